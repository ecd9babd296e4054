package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/labourlens/labourlens/pkg/observability"
	"github.com/labourlens/labourlens/pkg/retrieval"
	"github.com/labourlens/labourlens/pkg/tools"
)

// ContextRetriever is the retrieval collaborator. Failures degrade to
// an empty context, recorded on the state.
type ContextRetriever interface {
	Retrieve(ctx context.Context, p retrieval.Params) ([]retrieval.Document, error)
}

// ToolInvoker executes a named tool. Tool results merge into the
// generation context like retrieved passages.
type ToolInvoker interface {
	ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (tools.ToolResult, error)
}

// Pipeline runs one question through analysis, routing, context
// gathering, generation, confidence scoring, the escalation decision,
// and source formatting. Every stage failure is contained: the caller
// always gets a result with confidence_score and escalated set.
type Pipeline struct {
	analyzer  *Analyzer
	retriever ContextRetriever
	invoker   ToolInvoker
	generator *Generator
	scorer    *Scorer
	decider   *Decider
	formatter *Formatter
	metrics   *observability.PipelineMetrics
	tracer    trace.Tracer
}

// Dependencies wires a pipeline. Analyzer, Generator, Scorer, Decider
// and Formatter are required; Retriever, Tools and Metrics may be nil.
type Dependencies struct {
	Analyzer  *Analyzer
	Retriever ContextRetriever
	Tools     ToolInvoker
	Generator *Generator
	Scorer    *Scorer
	Decider   *Decider
	Formatter *Formatter
	Metrics   *observability.PipelineMetrics
}

func New(deps Dependencies) (*Pipeline, error) {
	if deps.Analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if deps.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if deps.Scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if deps.Decider == nil {
		return nil, fmt.Errorf("decider is required")
	}
	if deps.Formatter == nil {
		return nil, fmt.Errorf("formatter is required")
	}

	return &Pipeline{
		analyzer:  deps.Analyzer,
		retriever: deps.Retriever,
		invoker:   deps.Tools,
		generator: deps.Generator,
		scorer:    deps.Scorer,
		decider:   deps.Decider,
		formatter: deps.Formatter,
		metrics:   deps.Metrics,
		tracer:    observability.GetTracer("pipeline"),
	}, nil
}

// Execute is the single entry point. The returned result always has
// ConfidenceScore and Escalated populated, whatever went wrong.
func (p *Pipeline) Execute(ctx context.Context, req Request) (*Result, error) {
	state, err := p.Run(ctx, req)
	return &Result{
		Response:         state.Response,
		ConfidenceScore:  state.ConfidenceScore,
		ConfidenceMethod: state.ConfidenceMethod,
		Escalated:        state.Escalated,
		EscalationReason: state.EscalationReason,
		Sources:          state.Sources,
		Usage:            state.Usage,
	}, err
}

// Run executes the stages and returns the full state for callers that
// want the intermediate fields.
func (p *Pipeline) Run(ctx context.Context, req Request) (state *State, err error) {
	state = NewState(req)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Pipeline panicked", "request_id", state.RequestID, "panic", r)
			state.ConfidenceScore = 0
			state.ConfidenceMethod = MethodError
			state.Escalated = true
			state.EscalationReason = fmt.Sprintf("pipeline failure: %v; routing to a human specialist", r)
			state.RecordError(fmt.Sprintf("panic: %v", r))
			err = fmt.Errorf("pipeline failure: %v", r)
		}
	}()

	if strings.TrimSpace(state.Query) == "" {
		state.ConfidenceScore = 0
		state.ConfidenceMethod = MethodError
		state.Escalated = true
		state.EscalationReason = "empty query; routing to a human specialist"
		return state, fmt.Errorf("query cannot be empty")
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("request_id", state.RequestID)))
	defer span.End()

	p.analyze(ctx, state)

	branch := Route(state.QueryAnalysis)
	switch branch {
	case BranchTools:
		p.invokeTools(ctx, state)
	default:
		p.retrieve(ctx, state)
	}

	p.generate(ctx, state)
	p.scoreConfidence(ctx, state)
	p.decideEscalation(state)
	p.formatSources(state)

	routing := string(RoutingStandardRAG)
	if state.QueryAnalysis != nil {
		routing = string(state.QueryAnalysis.Routing)
	}
	p.metrics.RecordQuestion(ctx, routing, state.Escalated)

	return state, nil
}

func (p *Pipeline) analyze(ctx context.Context, state *State) {
	ctx, span := p.tracer.Start(ctx, "pipeline.analyze")
	defer span.End()
	start := time.Now()

	analysis, err := p.analyzer.Analyze(ctx, state.Query)
	if err != nil {
		state.RecordError(err.Error())
	}
	state.QueryAnalysis = analysis

	p.metrics.RecordStage(ctx, "analyze", time.Since(start))
}

func (p *Pipeline) invokeTools(ctx context.Context, state *State) {
	ctx, span := p.tracer.Start(ctx, "pipeline.tools")
	defer span.End()
	start := time.Now()

	if p.invoker == nil {
		state.RecordError("tool routing requested but no tool invoker configured")
		p.metrics.RecordStage(ctx, "tools", time.Since(start))
		return
	}

	args := map[string]interface{}{"query": state.Query}
	if state.Province != "" {
		args["province"] = state.Province
	}

	for _, name := range state.QueryAnalysis.SuggestedTools {
		toolStart := time.Now()
		result, err := p.invoker.ExecuteTool(ctx, name, args)
		p.metrics.RecordToolExecution(ctx, name, time.Since(toolStart))
		if err != nil {
			state.RecordError(fmt.Sprintf("tool %s failed: %v", name, err))
			continue
		}
		if !result.Success {
			state.RecordError(fmt.Sprintf("tool %s failed: %s", name, result.Error))
			continue
		}

		// A successful tool result enters the context like a passage
		// with full similarity: the tool computed it for this exact
		// query.
		state.ContextDocuments = append(state.ContextDocuments, ContextDocument{
			ID:         "tool:" + name,
			Content:    result.Content,
			Similarity: 1.0,
			SourceType: "tool",
			Metadata:   map[string]any{"title": name},
		})
	}

	p.metrics.RecordStage(ctx, "tools", time.Since(start))
}

func (p *Pipeline) retrieve(ctx context.Context, state *State) {
	ctx, span := p.tracer.Start(ctx, "pipeline.retrieve")
	defer span.End()
	start := time.Now()

	if p.retriever == nil {
		p.metrics.RecordStage(ctx, "retrieve", time.Since(start))
		return
	}

	params := retrieval.Params{
		Query:    state.Query,
		Province: state.Province,
	}
	if state.QueryAnalysis != nil {
		params.SuggestedDocCount = state.QueryAnalysis.SuggestedDocCount
		params.SuggestedThreshold = state.QueryAnalysis.SuggestedSimilarityThreshold
	}

	docs, err := p.retriever.Retrieve(ctx, params)
	if err != nil {
		state.RecordError(fmt.Sprintf("retrieval failed: %v", err))
		p.metrics.RecordStage(ctx, "retrieve", time.Since(start))
		return
	}

	for _, doc := range docs {
		sourceType := "document"
		if st, ok := doc.Metadata["source_type"].(string); ok && st != "" {
			sourceType = st
		}
		state.ContextDocuments = append(state.ContextDocuments, ContextDocument{
			ID:         doc.ID,
			Content:    doc.Content,
			Similarity: doc.Similarity,
			SourceType: sourceType,
			Metadata:   doc.Metadata,
		})
	}

	p.metrics.RecordStage(ctx, "retrieve", time.Since(start))
}

func (p *Pipeline) generate(ctx context.Context, state *State) {
	ctx, span := p.tracer.Start(ctx, "pipeline.generate")
	defer span.End()
	start := time.Now()

	if err := p.generator.Generate(ctx, state); err != nil {
		state.RecordError(err.Error())
	}

	p.metrics.RecordStage(ctx, "generate", time.Since(start))
}

func (p *Pipeline) scoreConfidence(ctx context.Context, state *State) {
	ctx, span := p.tracer.Start(ctx, "pipeline.confidence")
	defer span.End()
	start := time.Now()

	result := p.scorer.Score(ctx, state)
	state.ConfidenceScore = result.Score
	state.ConfidenceMethod = result.Method
	state.ConfidenceBreakdown = result.Breakdown

	span.SetAttributes(
		attribute.Float64("confidence.score", result.Score),
		attribute.String("confidence.method", result.Method),
	)
	p.metrics.RecordStage(ctx, "confidence", time.Since(start))
}

func (p *Pipeline) decideEscalation(state *State) {
	state.Escalated, state.EscalationReason = p.decider.Decide(state.ConfidenceScore)
}

func (p *Pipeline) formatSources(state *State) {
	state.Sources = p.formatter.Format(state.Query, state.ContextDocuments)
}
