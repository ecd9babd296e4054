// Package embedders turns text into vectors for retrieval.
package embedders

import (
	"context"
	"fmt"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/registry"
)

// Provider is the embedding function consumed by retrieval.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	Dimension() int

	ModelName() string

	Close() error
}

// Registry holds named embedder providers.
type Registry struct {
	*registry.Registry[Provider]
}

func NewRegistry() *Registry {
	return &Registry{
		Registry: registry.New[Provider](),
	}
}

// CreateFromConfig constructs an embedder from config and registers it.
func (r *Registry) CreateFromConfig(name string, cfg *config.EmbedderProviderConfig) (Provider, error) {
	if name == "" {
		return nil, fmt.Errorf("embedder name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("embedder config cannot be nil")
	}

	var provider Provider
	var err error

	switch cfg.Type {
	case "openai":
		provider, err = NewOpenAIEmbedderFromConfig(cfg)
	case "ollama":
		provider, err = NewOllamaEmbedderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	if err := r.Register(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register embedder: %w", err)
	}

	return provider, nil
}

// GetProvider returns a registered embedder by name.
func (r *Registry) GetProvider(name string) (Provider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("embedder %q not found", name)
	}
	return provider, nil
}
