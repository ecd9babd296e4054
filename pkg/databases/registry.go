// Package databases provides the vector store backends consumed by
// retrieval: Qdrant for deployments with infrastructure, chromem for
// embedded zero-config use.
package databases

import (
	"context"
	"fmt"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/registry"
)

// Provider is a vector database.
type Provider interface {
	Upsert(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error

	Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error)

	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]SearchResult, error)

	Delete(ctx context.Context, collection string, id string) error

	CreateCollection(ctx context.Context, collection string, vectorSize uint64) error

	DeleteCollection(ctx context.Context, collection string) error

	Close() error
}

// SearchResult is one scored passage from a vector store.
type SearchResult struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Registry holds named vector store providers.
type Registry struct {
	*registry.Registry[Provider]
}

func NewRegistry() *Registry {
	return &Registry{
		Registry: registry.New[Provider](),
	}
}

// CreateFromConfig constructs a provider from config and registers it.
func (r *Registry) CreateFromConfig(name string, cfg *config.VectorStoreConfig) (Provider, error) {
	if name == "" {
		return nil, fmt.Errorf("vector store name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("vector store config cannot be nil")
	}

	var provider Provider
	var err error

	switch cfg.Type {
	case "qdrant":
		provider, err = NewQdrantProviderFromConfig(cfg)
	case "chromem":
		provider, err = NewChromemProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	if err := r.Register(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register vector store: %w", err)
	}

	return provider, nil
}

// GetProvider returns a registered provider by name.
func (r *Registry) GetProvider(name string) (Provider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("vector store %q not found", name)
	}
	return provider, nil
}
