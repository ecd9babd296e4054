package config

import "fmt"

// VectorStoreConfig configures a vector database provider.
type VectorStoreConfig struct {
	// Type is the vector store type: "qdrant" or "chromem".
	Type string `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"enum=qdrant,enum=chromem,default=chromem"`

	// Host for external stores (qdrant).
	Host string `yaml:"host,omitempty" json:"host,omitempty"`

	// Port for external stores.
	Port int `yaml:"port,omitempty" json:"port,omitempty"`

	// APIKey for authenticated access.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// EnableTLS enables TLS connections.
	EnableTLS *bool `yaml:"enable_tls,omitempty" json:"enable_tls,omitempty"`

	// Collection is the default collection name.
	Collection string `yaml:"collection,omitempty" json:"collection,omitempty"`

	// PersistPath for chromem file persistence. Empty keeps it in memory.
	PersistPath string `yaml:"persist_path,omitempty" json:"persist_path,omitempty"`

	// Compress enables gzip compression for chromem persistence.
	Compress bool `yaml:"compress,omitempty" json:"compress,omitempty"`
}

func (c *VectorStoreConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "chromem" // embedded store needs no infrastructure
	}
	if c.Port == 0 && c.Type == "qdrant" {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "policy_documents"
	}
}

func (c *VectorStoreConfig) Validate() error {
	switch c.Type {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("invalid vector store type %q (valid: qdrant, chromem)", c.Type)
	}
	if c.Type == "qdrant" && c.Host == "" {
		return fmt.Errorf("host is required for vector store type %q", c.Type)
	}
	return nil
}
