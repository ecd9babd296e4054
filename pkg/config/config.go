// Package config defines the typed configuration for the answer pipeline
// and its providers, with YAML loading, env expansion, defaults,
// validation, and hot reload.
package config

import (
	"fmt"
)

// Config is the root configuration document.
//
// Example YAML:
//
//	llms:
//	  main:
//	    type: openai
//	    model: gpt-4o
//	    api_key: ${OPENAI_API_KEY}
//	embedders:
//	  main:
//	    type: openai
//	vector_stores:
//	  main:
//	    type: qdrant
//	    host: localhost
//	search:
//	  default_threshold: 0.7
//	confidence:
//	  method: hybrid
//	escalation:
//	  threshold: 0.95
type Config struct {
	LLMs         map[string]*LLMProviderConfig      `yaml:"llms,omitempty" json:"llms,omitempty" jsonschema:"title=LLM Providers"`
	Embedders    map[string]*EmbedderProviderConfig `yaml:"embedders,omitempty" json:"embedders,omitempty" jsonschema:"title=Embedders"`
	VectorStores map[string]*VectorStoreConfig      `yaml:"vector_stores,omitempty" json:"vector_stores,omitempty" jsonschema:"title=Vector Stores"`

	Search     SearchConfig     `yaml:"search,omitempty" json:"search,omitempty" jsonschema:"title=Search Settings"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer,omitempty" json:"analyzer,omitempty" jsonschema:"title=Query Analyzer"`
	Generation GenerationConfig `yaml:"generation,omitempty" json:"generation,omitempty" jsonschema:"title=Response Generation"`
	Confidence ConfidenceConfig `yaml:"confidence,omitempty" json:"confidence,omitempty" jsonschema:"title=Confidence Scoring"`
	Escalation EscalationConfig `yaml:"escalation,omitempty" json:"escalation,omitempty" jsonschema:"title=Escalation"`
	Tools      ToolsConfig      `yaml:"tools,omitempty" json:"tools,omitempty" jsonschema:"title=Tools"`

	Logging       LoggingConfig       `yaml:"logging,omitempty" json:"logging,omitempty" jsonschema:"title=Logging"`
	Observability ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty" jsonschema:"title=Observability"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `yaml:"format,omitempty" json:"format,omitempty" jsonschema:"enum=text,enum=json,default=text"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// ObservabilityConfig configures tracing and metrics.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	ExporterType string  `yaml:"exporter_type,omitempty" json:"exporter_type,omitempty" jsonschema:"enum=otlp,enum=stdout,default=otlp"`
	EndpointURL  string  `yaml:"endpoint_url,omitempty" json:"endpoint_url,omitempty"`
	SamplingRate float64 `yaml:"sampling_rate,omitempty" json:"sampling_rate,omitempty" jsonschema:"minimum=0,maximum=1,default=1"`
	ServiceName  string  `yaml:"service_name,omitempty" json:"service_name,omitempty"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Port    int  `yaml:"port,omitempty" json:"port,omitempty" jsonschema:"default=9464"`
}

// SetDefaults applies defaults across the whole document.
func (c *Config) SetDefaults() {
	if c.LLMs == nil {
		c.LLMs = map[string]*LLMProviderConfig{
			"main": {},
		}
	}
	for _, llm := range c.LLMs {
		llm.SetDefaults()
	}
	for _, emb := range c.Embedders {
		emb.SetDefaults()
	}
	for _, vs := range c.VectorStores {
		vs.SetDefaults()
	}

	c.Search.SetDefaults()
	c.Analyzer.SetDefaults()
	c.Generation.SetDefaults()
	c.Confidence.SetDefaults()
	c.Escalation.SetDefaults()
	c.Tools.SetDefaults()

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Observability.Tracing.SamplingRate == 0 {
		c.Observability.Tracing.SamplingRate = 1.0
	}
	if c.Observability.Tracing.ServiceName == "" {
		c.Observability.Tracing.ServiceName = "labourlens"
	}
	if c.Observability.Tracing.ExporterType == "" {
		c.Observability.Tracing.ExporterType = "otlp"
	}
	if c.Observability.Metrics.Port == 0 {
		c.Observability.Metrics.Port = 9464
	}
}

// Validate checks the whole document. Weight-sum violations and other
// policy errors are rejected here, at load time, not at scoring time.
func (c *Config) Validate() error {
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			return fmt.Errorf("llms.%s: %w", name, err)
		}
	}
	for name, emb := range c.Embedders {
		if err := emb.Validate(); err != nil {
			return fmt.Errorf("embedders.%s: %w", name, err)
		}
	}
	for name, vs := range c.VectorStores {
		if err := vs.Validate(); err != nil {
			return fmt.Errorf("vector_stores.%s: %w", name, err)
		}
	}

	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := c.Analyzer.Validate(); err != nil {
		return fmt.Errorf("analyzer: %w", err)
	}
	if err := c.Generation.Validate(); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Confidence.Validate(); err != nil {
		return fmt.Errorf("confidence: %w", err)
	}
	if err := c.Escalation.Validate(); err != nil {
		return fmt.Errorf("escalation: %w", err)
	}
	return nil
}

// BoolPtr returns a pointer to a bool literal.
func BoolPtr(b bool) *bool {
	return &b
}

// Float64Ptr returns a pointer to a float64 literal.
func Float64Ptr(f float64) *float64 {
	return &f
}
