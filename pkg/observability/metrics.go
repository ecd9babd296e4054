package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/labourlens/labourlens/pkg/config"
)

// PipelineMetrics records what the answering pipeline does: questions
// processed, escalations, confidence fallbacks, stage latency, and LLM
// usage. All methods are safe on a zero value so disabled metrics cost
// one nil check.
type PipelineMetrics struct {
	questionsTotal   metric.Int64Counter
	escalationsTotal metric.Int64Counter
	fallbacksTotal   metric.Int64Counter
	stageDuration    metric.Float64Histogram

	toolDuration   metric.Float64Histogram
	toolCallsTotal metric.Int64Counter

	llmDuration     metric.Float64Histogram
	llmInputTokens  metric.Int64Counter
	llmOutputTokens metric.Int64Counter
	llmErrorsTotal  metric.Int64Counter
}

func InitMetrics(ctx context.Context, cfg config.MetricsConfig) (*PipelineMetrics, error) {
	if !cfg.Enabled {
		return &PipelineMetrics{}, nil
	}

	promExporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)

	meter := meterProvider.Meter("labourlens")

	m := &PipelineMetrics{}

	m.questionsTotal, err = meter.Int64Counter(
		"labourlens_questions_total",
		metric.WithDescription("Total questions processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create questions counter: %w", err)
	}

	m.escalationsTotal, err = meter.Int64Counter(
		"labourlens_escalations_total",
		metric.WithDescription("Total questions escalated for human review"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create escalations counter: %w", err)
	}

	m.fallbacksTotal, err = meter.Int64Counter(
		"labourlens_confidence_fallbacks_total",
		metric.WithDescription("Total confidence scoring fallbacks to a simpler method"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallbacks counter: %w", err)
	}

	m.stageDuration, err = meter.Float64Histogram(
		"labourlens_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"labourlens_tool_execution_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool duration histogram: %w", err)
	}

	m.toolCallsTotal, err = meter.Int64Counter(
		"labourlens_tool_calls_total",
		metric.WithDescription("Total tool calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	m.llmDuration, err = meter.Float64Histogram(
		"labourlens_llm_request_duration_seconds",
		metric.WithDescription("LLM request duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm duration histogram: %w", err)
	}

	m.llmInputTokens, err = meter.Int64Counter(
		"labourlens_llm_tokens_input_total",
		metric.WithDescription("Total input tokens sent to LLMs"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm input tokens counter: %w", err)
	}

	m.llmOutputTokens, err = meter.Int64Counter(
		"labourlens_llm_tokens_output_total",
		metric.WithDescription("Total output tokens from LLMs"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm output tokens counter: %w", err)
	}

	m.llmErrorsTotal, err = meter.Int64Counter(
		"labourlens_llm_errors_total",
		metric.WithDescription("Total LLM errors"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm errors counter: %w", err)
	}

	return m, nil
}

// ServeMetrics exposes /metrics on the configured port. It blocks, so
// callers run it in a goroutine.
func ServeMetrics(cfg config.MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

func (m *PipelineMetrics) RecordQuestion(ctx context.Context, routing string, escalated bool) {
	if m == nil || m.questionsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("routing", routing),
	}

	m.questionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if escalated && m.escalationsTotal != nil {
		m.escalationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *PipelineMetrics) RecordConfidenceFallback(ctx context.Context, from, to string) {
	if m == nil || m.fallbacksTotal == nil {
		return
	}

	m.fallbacksTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration) {
	if m == nil || m.stageDuration == nil {
		return
	}

	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

func (m *PipelineMetrics) RecordToolExecution(ctx context.Context, tool string, duration time.Duration) {
	if m == nil || m.toolDuration == nil || m.toolCallsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("tool", tool),
	}

	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.toolCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *PipelineMetrics) RecordLLMCall(ctx context.Context, model string, duration time.Duration, inputTokens, outputTokens int, err error) {
	if m == nil || m.llmDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("model", model),
	}

	m.llmDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.llmInputTokens.Add(ctx, int64(inputTokens), metric.WithAttributes(attrs...))
	m.llmOutputTokens.Add(ctx, int64(outputTokens), metric.WithAttributes(attrs...))

	if err != nil && m.llmErrorsTotal != nil {
		m.llmErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
