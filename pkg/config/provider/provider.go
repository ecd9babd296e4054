// Package provider abstracts where configuration bytes come from.
package provider

import "context"

// Type identifies a provider kind.
type Type string

const (
	TypeFile Type = "file"
)

// Provider loads raw configuration bytes and optionally watches for changes.
type Provider interface {
	Type() Type

	Load(ctx context.Context) ([]byte, error)

	// Watch returns a channel that receives a value when the source changes.
	// Providers that cannot watch return a nil channel and no error.
	Watch(ctx context.Context) (<-chan struct{}, error)

	Close() error
}
