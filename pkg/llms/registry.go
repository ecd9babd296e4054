package llms

import (
	"fmt"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/registry"
)

// Registry holds named Provider instances.
type Registry struct {
	*registry.Registry[Provider]
}

func NewRegistry() *Registry {
	return &Registry{
		Registry: registry.New[Provider](),
	}
}

// CreateFromConfig constructs a provider from config and registers it.
func (r *Registry) CreateFromConfig(name string, cfg *config.LLMProviderConfig) (Provider, error) {
	if name == "" {
		return nil, fmt.Errorf("llm name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("llm config cannot be nil")
	}

	var provider Provider
	var err error

	switch cfg.Type {
	case "openai":
		provider, err = NewOpenAIProviderFromConfig(cfg)
	case "anthropic":
		provider, err = NewAnthropicProviderFromConfig(cfg)
	case "ollama":
		provider, err = NewOllamaProviderFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm type: %s (supported: openai, anthropic, ollama)", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create llm provider: %w", err)
	}

	if err := r.Register(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register llm: %w", err)
	}

	return provider, nil
}

// GetProvider returns a registered provider by name.
func (r *Registry) GetProvider(name string) (Provider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("llm provider %q not found", name)
	}
	return provider, nil
}
