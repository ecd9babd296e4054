package config

import "fmt"

// EmbedderProviderConfig configures one embedding provider.
type EmbedderProviderConfig struct {
	// Type is the embedder type: "openai", "ollama".
	Type string `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"enum=openai,enum=ollama,default=openai"`

	// Model name (e.g. "text-embedding-3-small", "nomic-embed-text").
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// Host overrides the default API endpoint.
	Host string `yaml:"host,omitempty" json:"host,omitempty"`

	// Dimension of the produced vectors. Zero picks the model default.
	Dimension int `yaml:"dimension,omitempty" json:"dimension,omitempty"`

	// Timeout in seconds for API calls.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"minimum=1,default=30"`
}

func (c *EmbedderProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}
	if c.Model == "" {
		switch c.Type {
		case "openai":
			c.Model = "text-embedding-3-small"
		case "ollama":
			c.Model = "nomic-embed-text"
		}
	}
	if c.APIKey == "" && c.Type == "openai" {
		c.APIKey = apiKeyFromEnv("openai")
	}
	if c.Host == "" {
		switch c.Type {
		case "openai":
			c.Host = "https://api.openai.com/v1"
		case "ollama":
			c.Host = "http://localhost:11434"
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
}

func (c *EmbedderProviderConfig) Validate() error {
	switch c.Type {
	case "openai", "ollama":
	default:
		return fmt.Errorf("invalid embedder type %q (valid: openai, ollama)", c.Type)
	}
	if c.Type == "openai" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for embedder type %q", c.Type)
	}
	if c.Dimension < 0 {
		return fmt.Errorf("dimension cannot be negative")
	}
	return nil
}
