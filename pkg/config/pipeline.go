package config

import (
	"fmt"
	"math"
)

// Confidence methods selectable at scoring start.
const (
	ConfidenceMethodFormula = "formula"
	ConfidenceMethodLLM     = "llm"
	ConfidenceMethodHybrid  = "hybrid"
)

// weightSumTolerance absorbs float noise when checking that weights sum to 1.0.
const weightSumTolerance = 1e-6

// SearchConfig holds retrieval parameters. The threshold cap and doc-count
// bounds are tuned policy values, kept configurable because they keep changing.
type SearchConfig struct {
	// DefaultThreshold is the similarity threshold used when the analyzer
	// offers no suggestion.
	DefaultThreshold float64 `yaml:"default_threshold,omitempty" json:"default_threshold,omitempty" jsonschema:"minimum=0,maximum=1,default=0.7"`

	// SuggestedThresholdCap caps analyzer-suggested thresholds. An overly
	// strict suggestion would suppress valid keyword matches in hybrid search.
	SuggestedThresholdCap float64 `yaml:"suggested_threshold_cap,omitempty" json:"suggested_threshold_cap,omitempty" jsonschema:"minimum=0,maximum=1,default=0.5"`

	// DefaultDocCount is the retrieval limit without analyzer guidance.
	DefaultDocCount int `yaml:"default_doc_count,omitempty" json:"default_doc_count,omitempty" jsonschema:"minimum=1,maximum=20,default=5"`

	// MaxDocCount bounds analyzer-suggested retrieval limits.
	MaxDocCount int `yaml:"max_doc_count,omitempty" json:"max_doc_count,omitempty" jsonschema:"minimum=1,default=20"`

	// ProvinceField is the metadata key used to filter passages by jurisdiction.
	ProvinceField string `yaml:"province_field,omitempty" json:"province_field,omitempty"`

	// MaxExcerptChars bounds citation excerpt length.
	MaxExcerptChars int `yaml:"max_excerpt_chars,omitempty" json:"max_excerpt_chars,omitempty" jsonschema:"minimum=50,default=300"`
}

func (c *SearchConfig) SetDefaults() {
	if c.DefaultThreshold == 0 {
		c.DefaultThreshold = 0.7
	}
	if c.SuggestedThresholdCap == 0 {
		c.SuggestedThresholdCap = 0.5
	}
	if c.DefaultDocCount == 0 {
		c.DefaultDocCount = 5
	}
	if c.MaxDocCount == 0 {
		c.MaxDocCount = 20
	}
	if c.ProvinceField == "" {
		c.ProvinceField = "province"
	}
	if c.MaxExcerptChars == 0 {
		c.MaxExcerptChars = 300
	}
}

func (c *SearchConfig) Validate() error {
	if c.DefaultThreshold < 0 || c.DefaultThreshold > 1 {
		return fmt.Errorf("default_threshold must be in [0,1]")
	}
	if c.SuggestedThresholdCap < 0 || c.SuggestedThresholdCap > 1 {
		return fmt.Errorf("suggested_threshold_cap must be in [0,1]")
	}
	if c.DefaultDocCount < 1 || c.DefaultDocCount > c.MaxDocCount {
		return fmt.Errorf("default_doc_count must be in [1,%d]", c.MaxDocCount)
	}
	return nil
}

// AnalyzerConfig configures the query analysis call.
type AnalyzerConfig struct {
	// LLM names the llms entry to use.
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty"`

	// Temperature for the analysis call. Kept low for stable JSON.
	Temperature float64 `yaml:"temperature,omitempty" json:"temperature,omitempty" jsonschema:"minimum=0,maximum=1,default=0.1"`

	// MaxTokens for the analysis reply.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty" jsonschema:"minimum=1,default=800"`

	// Timeout in seconds for the analysis call.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"minimum=1,default=20"`
}

func (c *AnalyzerConfig) SetDefaults() {
	if c.LLM == "" {
		c.LLM = "main"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.1
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 800
	}
	if c.Timeout == 0 {
		c.Timeout = 20
	}
}

func (c *AnalyzerConfig) Validate() error {
	if c.Temperature < 0 || c.Temperature > 1 {
		return fmt.Errorf("temperature must be in [0,1]")
	}
	return nil
}

// GenerationConfig configures answer generation.
type GenerationConfig struct {
	// LLM names the llms entry to use.
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty"`

	// HistoryTokenBudget bounds how much conversation history enters the prompt.
	HistoryTokenBudget int `yaml:"history_token_budget,omitempty" json:"history_token_budget,omitempty" jsonschema:"minimum=0,default=2000"`

	// ApologyText is returned when generation itself fails.
	ApologyText string `yaml:"apology_text,omitempty" json:"apology_text,omitempty"`
}

func (c *GenerationConfig) SetDefaults() {
	if c.LLM == "" {
		c.LLM = "main"
	}
	if c.HistoryTokenBudget == 0 {
		c.HistoryTokenBudget = 2000
	}
	if c.ApologyText == "" {
		c.ApologyText = "I'm sorry, I wasn't able to generate an answer to your question right now. " +
			"Your question has been forwarded to a specialist who will follow up with you."
	}
}

func (c *GenerationConfig) Validate() error {
	return nil
}

// FormulaWeights combine similarity, source-count, and response-length signals.
// They must sum to 1.0; violations are rejected at load time, never normalized.
type FormulaWeights struct {
	Similarity float64 `yaml:"similarity,omitempty" json:"similarity,omitempty" jsonschema:"minimum=0,maximum=1,default=0.80"`
	Sources    float64 `yaml:"sources,omitempty" json:"sources,omitempty" jsonschema:"minimum=0,maximum=1,default=0.10"`
	Length     float64 `yaml:"length,omitempty" json:"length,omitempty" jsonschema:"minimum=0,maximum=1,default=0.10"`
}

// HybridWeights combine the formula and LLM-judged scores. Must sum to 1.0.
type HybridWeights struct {
	Formula float64 `yaml:"formula,omitempty" json:"formula,omitempty" jsonschema:"minimum=0,maximum=1,default=0.60"`
	LLM     float64 `yaml:"llm,omitempty" json:"llm,omitempty" jsonschema:"minimum=0,maximum=1,default=0.40"`
}

// ConfidenceConfig configures the scoring engine. The cutoffs are tuned
// policy values rather than derived constants.
type ConfidenceConfig struct {
	// Method selects the strategy: "formula", "llm", or "hybrid".
	Method string `yaml:"method,omitempty" json:"method,omitempty" jsonschema:"enum=formula,enum=llm,enum=hybrid,default=formula"`

	// LLM names the llms entry used for LLM-judged scoring.
	LLM string `yaml:"llm,omitempty" json:"llm,omitempty"`

	Formula FormulaWeights `yaml:"formula_weights,omitempty" json:"formula_weights,omitempty"`
	Hybrid  HybridWeights  `yaml:"hybrid_weights,omitempty" json:"hybrid_weights,omitempty"`

	// HighSimilarityCutoff is the similarity above which a passage counts
	// toward the source boost.
	HighSimilarityCutoff float64 `yaml:"high_similarity_cutoff,omitempty" json:"high_similarity_cutoff,omitempty" jsonschema:"minimum=0,maximum=1,default=0.75"`

	// FullLengthChars and HalfLengthChars are the response-length cutoffs
	// for the length boost.
	FullLengthChars int `yaml:"full_length_chars,omitempty" json:"full_length_chars,omitempty" jsonschema:"minimum=1,default=200"`
	HalfLengthChars int `yaml:"half_length_chars,omitempty" json:"half_length_chars,omitempty" jsonschema:"minimum=1,default=100"`

	// JudgeTimeout bounds the LLM-judged scoring call, in seconds.
	JudgeTimeout int `yaml:"judge_timeout,omitempty" json:"judge_timeout,omitempty" jsonschema:"minimum=1,default=10"`

	// JudgeMaxTokens bounds the judge reply.
	JudgeMaxTokens int `yaml:"judge_max_tokens,omitempty" json:"judge_max_tokens,omitempty" jsonschema:"minimum=1,default=100"`

	// JudgeDocChars and JudgeQueryChars bound how much context goes into
	// the judge prompt.
	JudgeDocChars   int `yaml:"judge_doc_chars,omitempty" json:"judge_doc_chars,omitempty" jsonschema:"minimum=1,default=1000"`
	JudgeQueryChars int `yaml:"judge_query_chars,omitempty" json:"judge_query_chars,omitempty" jsonschema:"minimum=1,default=500"`
}

func (c *ConfidenceConfig) SetDefaults() {
	if c.Method == "" {
		c.Method = ConfidenceMethodFormula
	}
	if c.LLM == "" {
		c.LLM = "main"
	}
	if c.Formula == (FormulaWeights{}) {
		c.Formula = FormulaWeights{Similarity: 0.80, Sources: 0.10, Length: 0.10}
	}
	if c.Hybrid == (HybridWeights{}) {
		c.Hybrid = HybridWeights{Formula: 0.60, LLM: 0.40}
	}
	if c.HighSimilarityCutoff == 0 {
		c.HighSimilarityCutoff = 0.75
	}
	if c.FullLengthChars == 0 {
		c.FullLengthChars = 200
	}
	if c.HalfLengthChars == 0 {
		c.HalfLengthChars = 100
	}
	if c.JudgeTimeout == 0 {
		c.JudgeTimeout = 10
	}
	if c.JudgeMaxTokens == 0 {
		c.JudgeMaxTokens = 100
	}
	if c.JudgeDocChars == 0 {
		c.JudgeDocChars = 1000
	}
	if c.JudgeQueryChars == 0 {
		c.JudgeQueryChars = 500
	}
}

func (c *ConfidenceConfig) Validate() error {
	switch c.Method {
	case ConfidenceMethodFormula, ConfidenceMethodLLM, ConfidenceMethodHybrid:
	default:
		return fmt.Errorf("invalid method %q (valid: formula, llm, hybrid)", c.Method)
	}

	if sum := c.Formula.Similarity + c.Formula.Sources + c.Formula.Length; math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("formula_weights must sum to 1.0, got %.4f", sum)
	}
	if sum := c.Hybrid.Formula + c.Hybrid.LLM; math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("hybrid_weights must sum to 1.0, got %.4f", sum)
	}
	if c.HighSimilarityCutoff < 0 || c.HighSimilarityCutoff > 1 {
		return fmt.Errorf("high_similarity_cutoff must be in [0,1]")
	}
	if c.HalfLengthChars > c.FullLengthChars {
		return fmt.Errorf("half_length_chars cannot exceed full_length_chars")
	}
	return nil
}

// EscalationConfig configures the human-review decision. The default
// threshold is deliberately high: wrong legal guidance is worse than a
// handoff.
type EscalationConfig struct {
	// Threshold is the minimum confidence to answer without escalation.
	// A score exactly equal to the threshold is accepted.
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty" jsonschema:"minimum=0,maximum=1,default=0.95"`
}

func (c *EscalationConfig) SetDefaults() {
	if c.Threshold == 0 {
		c.Threshold = 0.95
	}
}

func (c *EscalationConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0,1]")
	}
	return nil
}

// MCPServerConfig names one MCP tool server.
type MCPServerConfig struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// ToolsConfig configures tool invocation.
type ToolsConfig struct {
	// Local lists enabled built-in tools. Empty enables all.
	Local []string `yaml:"local,omitempty" json:"local,omitempty"`

	// MCPServers lists MCP tool servers to discover tools from.
	MCPServers []MCPServerConfig `yaml:"mcp_servers,omitempty" json:"mcp_servers,omitempty"`

	// Timeout in seconds per tool execution.
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"minimum=1,default=15"`
}

func (c *ToolsConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 15
	}
}
