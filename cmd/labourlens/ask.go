package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/config/provider"
	"github.com/labourlens/labourlens/pkg/databases"
	"github.com/labourlens/labourlens/pkg/embedders"
	"github.com/labourlens/labourlens/pkg/llms"
	"github.com/labourlens/labourlens/pkg/observability"
	"github.com/labourlens/labourlens/pkg/pipeline"
	"github.com/labourlens/labourlens/pkg/retrieval"
	"github.com/labourlens/labourlens/pkg/tools"
	"github.com/labourlens/labourlens/pkg/utils"
)

// AskCmd runs a single question through the pipeline and prints the answer.
type AskCmd struct {
	Query    string `arg:"" help:"The question to answer."`
	Province string `short:"p" help:"Two-letter province code to scope retrieval (e.g. on, bc)."`
	JSON     bool   `help:"Print the full result as JSON."`
	Timeout  int    `help:"Overall request timeout in seconds." default:"120"`
}

func (c *AskCmd) Run(cli *CLI) error {
	if cli.Config == "" {
		return fmt.Errorf("--config is required for ask command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(c.Timeout)*time.Second)
	defer cancel()

	p, err := provider.NewFileProvider(cli.Config)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	loader := config.NewLoader(p)
	defer func() { _ = loader.Close() }()

	store := config.NewStore(loader, 30*time.Second)
	cfg, err := store.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	_, shutdownTracer, err := observability.InitGlobalTracer(ctx, cfg.Observability.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			slog.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	metrics, err := observability.InitMetrics(ctx, cfg.Observability.Metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	if cfg.Observability.Metrics.Enabled {
		go func() {
			if err := observability.ServeMetrics(cfg.Observability.Metrics); err != nil {
				slog.Error("Metrics endpoint failed", "error", err)
			}
		}()
	}

	pipe, cleanup, err := buildPipeline(ctx, cfg, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := pipe.Execute(ctx, pipeline.Request{
		Query:    c.Query,
		Province: c.Province,
	})
	if err != nil {
		slog.Warn("Pipeline completed with errors", "error", err)
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printResult(result)
	return nil
}

// buildPipeline assembles the full pipeline from config. The cleanup
// function closes every provider it created.
func buildPipeline(ctx context.Context, cfg *config.Config, metrics *observability.PipelineMetrics) (*pipeline.Pipeline, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("Close failed during shutdown", "error", err)
			}
		}
	}
	fail := func(err error) (*pipeline.Pipeline, func(), error) {
		cleanup()
		return nil, nil, err
	}

	llmRegistry := llms.NewRegistry()
	for name, llmCfg := range cfg.LLMs {
		p, err := llmRegistry.CreateFromConfig(name, llmCfg)
		if err != nil {
			return fail(fmt.Errorf("llms.%s: %w", name, err))
		}
		closers = append(closers, p.Close)
	}

	analyzerLLM, err := llmRegistry.GetProvider(cfg.Analyzer.LLM)
	if err != nil {
		return fail(fmt.Errorf("analyzer: %w", err))
	}
	generatorLLM, err := llmRegistry.GetProvider(cfg.Generation.LLM)
	if err != nil {
		return fail(fmt.Errorf("generation: %w", err))
	}
	judgeLLM, err := llmRegistry.GetProvider(cfg.Confidence.LLM)
	if err != nil {
		return fail(fmt.Errorf("confidence: %w", err))
	}

	retriever, retrieverClosers, err := buildRetriever(cfg)
	closers = append(closers, retrieverClosers...)
	if err != nil {
		return fail(err)
	}

	toolRegistry, err := tools.NewRegistryFromConfig(&cfg.Tools)
	if err != nil {
		return fail(fmt.Errorf("tools: %w", err))
	}
	closers = append(closers, toolRegistry.Close)

	// Token counting follows the generation model; estimation kicks in
	// for models tiktoken does not know.
	var counter *utils.TokenCounter
	if genCfg, ok := cfg.LLMs[cfg.Generation.LLM]; ok {
		if tc, err := utils.NewTokenCounter(genCfg.Model); err == nil {
			counter = tc
		}
	}

	deps := pipeline.Dependencies{
		Analyzer:  pipeline.NewAnalyzer(analyzerLLM, cfg.Analyzer),
		Generator: pipeline.NewGenerator(generatorLLM, cfg.Generation, counter),
		Scorer:    pipeline.NewScorer(judgeLLM, cfg.Confidence, metrics),
		Decider:   pipeline.NewDecider(cfg.Escalation),
		Formatter: pipeline.NewFormatter(cfg.Search),
		Metrics:   metrics,
		Tools:     toolRegistry,
	}
	if retriever != nil {
		deps.Retriever = retriever
	}

	pipe, err := pipeline.New(deps)
	if err != nil {
		return fail(err)
	}
	return pipe, cleanup, nil
}

// buildRetriever wires the embedder and vector store when both are
// configured. Without them the pipeline still answers, it just has no
// retrieval context.
func buildRetriever(cfg *config.Config) (*retrieval.Retriever, []func() error, error) {
	if len(cfg.Embedders) == 0 || len(cfg.VectorStores) == 0 {
		slog.Warn("No embedder or vector store configured; retrieval disabled")
		return nil, nil, nil
	}

	var closers []func() error

	embRegistry := embedders.NewRegistry()
	for name, embCfg := range cfg.Embedders {
		p, err := embRegistry.CreateFromConfig(name, embCfg)
		if err != nil {
			return nil, closers, fmt.Errorf("embedders.%s: %w", name, err)
		}
		closers = append(closers, p.Close)
	}

	dbRegistry := databases.NewRegistry()
	for name, dbCfg := range cfg.VectorStores {
		p, err := dbRegistry.CreateFromConfig(name, dbCfg)
		if err != nil {
			return nil, closers, fmt.Errorf("vector_stores.%s: %w", name, err)
		}
		closers = append(closers, p.Close)
	}

	embName, err := defaultEntry(cfg.Embedders)
	if err != nil {
		return nil, closers, fmt.Errorf("embedders: %w", err)
	}
	dbName, err := defaultEntry(cfg.VectorStores)
	if err != nil {
		return nil, closers, fmt.Errorf("vector_stores: %w", err)
	}

	embedder, err := embRegistry.GetProvider(embName)
	if err != nil {
		return nil, closers, err
	}
	db, err := dbRegistry.GetProvider(dbName)
	if err != nil {
		return nil, closers, err
	}

	retriever, err := retrieval.NewRetriever(db, embedder, cfg.Search, cfg.VectorStores[dbName].Collection)
	if err != nil {
		return nil, closers, err
	}
	return retriever, closers, nil
}

// defaultEntry picks "main" when present, or the sole entry otherwise.
func defaultEntry[T any](m map[string]T) (string, error) {
	if _, ok := m["main"]; ok {
		return "main", nil
	}
	if len(m) == 1 {
		for name := range m {
			return name, nil
		}
	}
	return "", fmt.Errorf("multiple entries configured and none named \"main\"")
}

func printResult(result *pipeline.Result) {
	fmt.Println(result.Response)

	fmt.Printf("\nConfidence: %.4f (%s)\n", result.ConfidenceScore, result.ConfidenceMethod)
	if result.Escalated {
		fmt.Printf("Escalated:  %s\n", result.EscalationReason)
	}

	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range result.Sources {
			fmt.Printf("  - %s (similarity %.2f)\n", src.DisplayName, src.Similarity)
			if src.Excerpt != "" {
				fmt.Printf("    %s\n", src.Excerpt)
			}
		}
	}
}
