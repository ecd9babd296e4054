package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/llms"
	"github.com/labourlens/labourlens/pkg/observability"
)

// MethodHybridFallback tags a hybrid score whose LLM branch degraded:
// the reported score is the formula score alone, and callers can tell
// true hybrid from degraded hybrid.
const MethodHybridFallback = "hybrid_fallback"

// MethodError tags the last-resort zero score.
const MethodError = "error"

// ConfidenceResult is the one shape every strategy returns.
type ConfidenceResult struct {
	Score     float64
	Method    string
	Breakdown map[string]any
}

// Scorer runs the configured confidence strategy with its fallback
// chain. Score never returns an error and never panics out.
type Scorer struct {
	llm     llms.Provider
	cfg     config.ConfidenceConfig
	metrics *observability.PipelineMetrics
}

func NewScorer(llm llms.Provider, cfg config.ConfidenceConfig, metrics *observability.PipelineMetrics) *Scorer {
	return &Scorer{llm: llm, cfg: cfg, metrics: metrics}
}

func (s *Scorer) Score(ctx context.Context, state *State) (result ConfidenceResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Confidence scoring panicked", "panic", r)
			result = ConfidenceResult{
				Score:     0,
				Method:    MethodError,
				Breakdown: map[string]any{"panic": fmt.Sprint(r)},
			}
		}
	}()

	switch s.cfg.Method {
	case config.ConfidenceMethodLLM:
		return s.scoreLLM(ctx, state)
	case config.ConfidenceMethodHybrid:
		return s.scoreHybrid(ctx, state)
	default:
		return scoreFormula(state.ContextDocuments, len(state.Response), s.cfg)
	}
}

// scoreLLM tries the judge and falls back to the formula on any
// failure. The caller sees the method tag change, never an error.
func (s *Scorer) scoreLLM(ctx context.Context, state *State) ConfidenceResult {
	score, breakdown, err := scoreJudge(ctx, s.llm, state, s.cfg)
	if err != nil {
		slog.Debug("LLM-judged scoring failed, falling back to formula", "error", err)
		s.metrics.RecordConfidenceFallback(ctx, config.ConfidenceMethodLLM, config.ConfidenceMethodFormula)
		return scoreFormula(state.ContextDocuments, len(state.Response), s.cfg)
	}

	return ConfidenceResult{
		Score:     score,
		Method:    config.ConfidenceMethodLLM,
		Breakdown: breakdown,
	}
}

// scoreHybrid computes the formula and the judge concurrently. A
// degraded judge branch reports the formula score alone under the
// hybrid_fallback tag.
func (s *Scorer) scoreHybrid(ctx context.Context, state *State) ConfidenceResult {
	formulaResult := ConfidenceResult{}
	var judgeScore float64
	var judgeBreakdown map[string]any
	var judgeErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		formulaResult = scoreFormula(state.ContextDocuments, len(state.Response), s.cfg)
		return nil
	})
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				judgeErr = fmt.Errorf("judge panicked: %v", r)
			}
		}()
		judgeScore, judgeBreakdown, judgeErr = scoreJudge(gctx, s.llm, state, s.cfg)
		return nil
	})
	_ = g.Wait()

	if judgeErr != nil {
		slog.Debug("Hybrid LLM branch degraded, reporting formula score", "error", judgeErr)
		s.metrics.RecordConfidenceFallback(ctx, config.ConfidenceMethodHybrid, MethodHybridFallback)
		return ConfidenceResult{
			Score:  formulaResult.Score,
			Method: MethodHybridFallback,
			Breakdown: map[string]any{
				"formula":       formulaResult.Breakdown,
				"judge_error":   judgeErr.Error(),
				"formula_score": formulaResult.Score,
			},
		}
	}

	score := formulaResult.Score*s.cfg.Hybrid.Formula + judgeScore*s.cfg.Hybrid.LLM

	return ConfidenceResult{
		Score:  score,
		Method: config.ConfidenceMethodHybrid,
		Breakdown: map[string]any{
			"formula_score": formulaResult.Score,
			"llm_score":     judgeScore,
			"formula":       formulaResult.Breakdown,
			"judge":         judgeBreakdown,
			"weights": map[string]float64{
				"formula": s.cfg.Hybrid.Formula,
				"llm":     s.cfg.Hybrid.LLM,
			},
		},
	}
}
