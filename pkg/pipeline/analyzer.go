package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/llms"
)

const analyzerSystemPrompt = `You are a query analyzer for an employment-standards question answering system.
Analyze the user's question and reply with a single JSON object, no prose, with these fields:
- intent: one of factual, procedural, troubleshooting, comparison, definition, conceptual, navigational, transactional, unknown
- intent_confidence: number in [0,1]
- complexity: one of simple, moderate, complex, very_complex
- complexity_score: number in [0,1]
- entities: array of {text, type, confidence} objects for named things in the question
- routing: one of standard_rag, tool_invocation, multi_step_reasoning, direct_escalation, cached_response
- routing_confidence: number in [0,1]
- requires_recent_context: boolean
- requires_multiple_sources: boolean
- suggested_doc_count: integer in [1,20]
- suggested_similarity_threshold: number in [0,1]
- requires_tools: boolean
- suggested_tools: array of tool names, empty unless routing is tool_invocation
- key_concepts: array of strings
- query_topics: array of strings
- analysis_reasoning: one short sentence`

// Analyzer classifies a query with one low-temperature LLM call. It
// never fails: any parse or network problem produces the deterministic
// fallback analysis and a recorded error.
type Analyzer struct {
	llm llms.Provider
	cfg config.AnalyzerConfig
}

func NewAnalyzer(llm llms.Provider, cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{llm: llm, cfg: cfg}
}

// Analyze returns the analysis and, when the LLM path failed, the
// error that forced the fallback. The result is always usable.
func (a *Analyzer) Analyze(ctx context.Context, query string) (*QueryAnalysisResult, error) {
	start := time.Now()

	if a.llm == nil {
		return fallbackAnalysis(start), fmt.Errorf("no analyzer LLM configured")
	}

	temperature := a.cfg.Temperature
	reply, _, err := a.llm.Generate(ctx, analyzerSystemPrompt, query, llms.GenerateParams{
		Temperature: &temperature,
		MaxTokens:   a.cfg.MaxTokens,
		Timeout:     time.Duration(a.cfg.Timeout) * time.Second,
	})
	if err != nil {
		return fallbackAnalysis(start), fmt.Errorf("query analysis failed: %w", err)
	}

	analysis, err := parseAnalysis(reply)
	if err != nil {
		return fallbackAnalysis(start), fmt.Errorf("query analysis parse failed: %w", err)
	}

	analysis.AnalysisTimeMs = time.Since(start).Milliseconds()
	return analysis, nil
}

// fallbackAnalysis is the deterministic answer when analysis fails.
// Conservative on purpose: moderate complexity, standard retrieval,
// multiple sources wanted.
func fallbackAnalysis(start time.Time) *QueryAnalysisResult {
	return &QueryAnalysisResult{
		Intent:                       IntentUnknown,
		IntentConfidence:             0,
		Complexity:                   ComplexityModerate,
		Routing:                      RoutingStandardRAG,
		RequiresMultipleSources:      true,
		SuggestedDocCount:            5,
		SuggestedSimilarityThreshold: 0.7,
		AnalysisTimeMs:               time.Since(start).Milliseconds(),
	}
}

// rawAnalysis defers entity decoding; the field arrives in three
// different shapes from older prompt revisions.
type rawAnalysis struct {
	Intent           string  `json:"intent"`
	IntentConfidence float64 `json:"intent_confidence"`

	Complexity      string  `json:"complexity"`
	ComplexityScore float64 `json:"complexity_score"`

	Entities json.RawMessage `json:"entities"`

	Routing           string  `json:"routing"`
	RoutingConfidence float64 `json:"routing_confidence"`

	RequiresRecentContext   bool `json:"requires_recent_context"`
	RequiresMultipleSources bool `json:"requires_multiple_sources"`

	SuggestedDocCount            int     `json:"suggested_doc_count"`
	SuggestedSimilarityThreshold float64 `json:"suggested_similarity_threshold"`

	RequiresTools  bool     `json:"requires_tools"`
	SuggestedTools []string `json:"suggested_tools"`

	KeyConcepts []string `json:"key_concepts"`
	QueryTopics []string `json:"query_topics"`

	AnalysisReasoning string `json:"analysis_reasoning"`
}

func parseAnalysis(reply string) (*QueryAnalysisResult, error) {
	payload := extractJSON(reply)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in analyzer reply")
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("invalid analyzer JSON: %w", err)
	}

	entities, err := normalizeEntities(raw.Entities)
	if err != nil {
		return nil, err
	}

	analysis := &QueryAnalysisResult{
		Intent:                       normalizeIntent(raw.Intent),
		IntentConfidence:             clamp01(raw.IntentConfidence),
		Complexity:                   normalizeComplexity(raw.Complexity),
		ComplexityScore:              clamp01(raw.ComplexityScore),
		Entities:                     entities,
		Routing:                      normalizeRouting(raw.Routing),
		RoutingConfidence:            clamp01(raw.RoutingConfidence),
		RequiresRecentContext:        raw.RequiresRecentContext,
		RequiresMultipleSources:      raw.RequiresMultipleSources,
		SuggestedDocCount:            raw.SuggestedDocCount,
		SuggestedSimilarityThreshold: clamp01(raw.SuggestedSimilarityThreshold),
		RequiresTools:                raw.RequiresTools,
		SuggestedTools:               raw.SuggestedTools,
		KeyConcepts:                  raw.KeyConcepts,
		QueryTopics:                  raw.QueryTopics,
		AnalysisReasoning:            raw.AnalysisReasoning,
	}

	if analysis.SuggestedDocCount < 1 {
		analysis.SuggestedDocCount = 5
	}
	if analysis.SuggestedDocCount > 20 {
		analysis.SuggestedDocCount = 20
	}
	if analysis.SuggestedSimilarityThreshold == 0 {
		analysis.SuggestedSimilarityThreshold = 0.7
	}

	return analysis, nil
}

// normalizeEntities accepts the three shapes the entities field has
// shipped in: a list of entity objects, a flat list of strings, or a
// map from category name to lists of strings.
func normalizeEntities(raw json.RawMessage) ([]Entity, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var objects []Entity
	if err := json.Unmarshal(raw, &objects); err == nil {
		return objects, nil
	}

	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil {
		entities := make([]Entity, 0, len(strs))
		for _, text := range strs {
			entities = append(entities, Entity{
				Text:       text,
				Type:       "CONCEPT",
				Confidence: 0.7,
			})
		}
		return entities, nil
	}

	var categories map[string][]string
	if err := json.Unmarshal(raw, &categories); err == nil {
		var entities []Entity
		for category, texts := range categories {
			entityType := "CONCEPT"
			if strings.Contains(strings.ToLower(category), "product") {
				entityType = "PRODUCT"
			}
			for _, text := range texts {
				entities = append(entities, Entity{
					Text:       text,
					Type:       entityType,
					Confidence: 0.8,
					Metadata:   map[string]any{"category": category},
				})
			}
		}
		return entities, nil
	}

	return nil, fmt.Errorf("unrecognized entities shape: %s", truncate(string(raw), 80))
}

func normalizeIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentFactual, IntentProcedural, IntentTroubleshooting, IntentComparison,
		IntentDefinition, IntentConceptual, IntentNavigational, IntentTransactional:
		return Intent(strings.ToLower(strings.TrimSpace(s)))
	default:
		return IntentUnknown
	}
}

func normalizeComplexity(s string) Complexity {
	switch Complexity(strings.ToLower(strings.TrimSpace(s))) {
	case ComplexitySimple, ComplexityComplex, ComplexityVeryComplex:
		return Complexity(strings.ToLower(strings.TrimSpace(s)))
	default:
		return ComplexityModerate
	}
}

func normalizeRouting(s string) Routing {
	switch Routing(strings.ToLower(strings.TrimSpace(s))) {
	case RoutingToolInvocation, RoutingMultiStepReasoning,
		RoutingDirectEscalation, RoutingCachedResponse:
		return Routing(strings.ToLower(strings.TrimSpace(s)))
	default:
		return RoutingStandardRAG
	}
}

// extractJSON pulls the JSON object out of a reply that may wrap it in
// a fenced code block or surrounding prose.
func extractJSON(reply string) string {
	s := strings.TrimSpace(reply)

	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
