package pipeline

import (
	"github.com/google/uuid"

	"github.com/labourlens/labourlens/pkg/llms"
)

// Intent classifies what the user is trying to do.
type Intent string

const (
	IntentFactual         Intent = "factual"
	IntentProcedural      Intent = "procedural"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentComparison      Intent = "comparison"
	IntentDefinition      Intent = "definition"
	IntentConceptual      Intent = "conceptual"
	IntentNavigational    Intent = "navigational"
	IntentTransactional   Intent = "transactional"
	IntentUnknown         Intent = "unknown"
)

// Complexity grades how much work a question needs.
type Complexity string

const (
	ComplexitySimple      Complexity = "simple"
	ComplexityModerate    Complexity = "moderate"
	ComplexityComplex     Complexity = "complex"
	ComplexityVeryComplex Complexity = "very_complex"
)

// Routing is the analyzer's branch decision.
type Routing string

const (
	RoutingStandardRAG        Routing = "standard_rag"
	RoutingToolInvocation     Routing = "tool_invocation"
	RoutingMultiStepReasoning Routing = "multi_step_reasoning"
	RoutingDirectEscalation   Routing = "direct_escalation"
	RoutingCachedResponse     Routing = "cached_response"
)

// Entity is one thing the analyzer extracted from the query.
type Entity struct {
	Text       string         `json:"text"`
	Type       string         `json:"type"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// QueryAnalysisResult is the analyzer's full verdict on a query.
type QueryAnalysisResult struct {
	Intent           Intent  `json:"intent"`
	IntentConfidence float64 `json:"intent_confidence"`

	Complexity      Complexity `json:"complexity"`
	ComplexityScore float64    `json:"complexity_score"`

	Entities []Entity `json:"entities,omitempty"`

	Routing           Routing `json:"routing"`
	RoutingConfidence float64 `json:"routing_confidence"`

	RequiresRecentContext   bool `json:"requires_recent_context"`
	RequiresMultipleSources bool `json:"requires_multiple_sources"`

	SuggestedDocCount            int     `json:"suggested_doc_count"`
	SuggestedSimilarityThreshold float64 `json:"suggested_similarity_threshold"`

	RequiresTools  bool     `json:"requires_tools"`
	SuggestedTools []string `json:"suggested_tools,omitempty"`

	KeyConcepts []string `json:"key_concepts,omitempty"`
	QueryTopics []string `json:"query_topics,omitempty"`

	AnalysisReasoning string `json:"analysis_reasoning,omitempty"`
	AnalysisTimeMs    int64  `json:"analysis_time_ms"`
}

// Message is one turn of conversation history, oldest first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContextDocument is one passage (or tool result) feeding generation.
type ContextDocument struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	SourceType string         `json:"source_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Citation is one deduplicated, ranked source attribution.
type Citation struct {
	DisplayName string  `json:"display_name"`
	Excerpt     string  `json:"excerpt,omitempty"`
	Similarity  float64 `json:"similarity"`
	SourceType  string  `json:"source_type,omitempty"`
	SourceID    string  `json:"source_id,omitempty"`
}

// Request is what a caller hands the pipeline.
type Request struct {
	Query               string
	Province            string
	ConversationHistory []Message
	UserID              string
	SessionID           string
}

// Result is the minimal contract returned to callers. Intermediate
// fields stay observable on the State.
type Result struct {
	Response         string     `json:"response"`
	ConfidenceScore  float64    `json:"confidence_score"`
	ConfidenceMethod string     `json:"confidence_method"`
	Escalated        bool       `json:"escalated"`
	EscalationReason string     `json:"escalation_reason,omitempty"`
	Sources          []Citation `json:"sources,omitempty"`
	Usage            llms.Usage `json:"usage"`
}

// State is the per-request accumulator every stage reads and writes.
// It is never shared across requests.
type State struct {
	RequestID string
	Query     string
	Province  string
	UserID    string
	SessionID string

	ConversationHistory []Message

	QueryAnalysis    *QueryAnalysisResult
	ContextDocuments []ContextDocument

	Response string
	Usage    llms.Usage

	ConfidenceScore     float64
	ConfidenceMethod    string
	ConfidenceBreakdown map[string]any

	Escalated        bool
	EscalationReason string

	Sources []Citation

	// Error records non-fatal stage failures. It never stops the
	// pipeline.
	Error string
}

func NewState(req Request) *State {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &State{
		RequestID:           uuid.NewString(),
		Query:               req.Query,
		Province:            req.Province,
		UserID:              req.UserID,
		SessionID:           sessionID,
		ConversationHistory: req.ConversationHistory,
	}
}

// RecordError appends a non-fatal stage failure.
func (s *State) RecordError(msg string) {
	if s.Error == "" {
		s.Error = msg
		return
	}
	s.Error = s.Error + "; " + msg
}
