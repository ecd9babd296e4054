package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/llms"
)

func confidenceConfig(method string) config.ConfidenceConfig {
	cfg := config.ConfidenceConfig{Method: method}
	cfg.SetDefaults()
	return cfg
}

func docsWithSimilarities(sims ...float64) []ContextDocument {
	docs := make([]ContextDocument, 0, len(sims))
	for _, sim := range sims {
		docs = append(docs, ContextDocument{Content: "passage", Similarity: sim})
	}
	return docs
}

func TestFormulaZeroDocumentsIsZero(t *testing.T) {
	for _, weights := range []config.FormulaWeights{
		{Similarity: 0.80, Sources: 0.10, Length: 0.10},
		{Similarity: 0.50, Sources: 0.25, Length: 0.25},
	} {
		cfg := confidenceConfig(config.ConfidenceMethodFormula)
		cfg.Formula = weights

		result := scoreFormula(nil, 500, cfg)
		assert.Zero(t, result.Score)
		assert.Equal(t, config.ConfidenceMethodFormula, result.Method)
		assert.Equal(t, "no_context_documents", result.Breakdown["reason"])
	}
}

func TestFormulaScenarioB(t *testing.T) {
	cfg := confidenceConfig(config.ConfidenceMethodFormula)
	docs := docsWithSimilarities(0.9, 0.8, 0.76)
	response := strings.Repeat("a", 250)

	result := scoreFormula(docs, len(response), cfg)
	assert.InDelta(t, 0.8848, result.Score, 1e-9)
	assert.Equal(t, config.ConfidenceMethodFormula, result.Method)
	assert.InDelta(t, 0.856, result.Breakdown["similarity_score"].(float64), 1e-9)
	assert.InDelta(t, 1.0, result.Breakdown["source_boost"].(float64), 1e-9)
	assert.InDelta(t, 1.0, result.Breakdown["length_boost"].(float64), 1e-9)
}

func TestFormulaMonotoneInTopSimilarity(t *testing.T) {
	cfg := confidenceConfig(config.ConfidenceMethodFormula)
	prev := -1.0
	for _, top := range []float64{0.1, 0.3, 0.5, 0.7, 0.76, 0.9, 1.0} {
		result := scoreFormula(docsWithSimilarities(top, 0.5, 0.4), 250, cfg)
		assert.GreaterOrEqual(t, result.Score, prev, "top similarity %f", top)
		prev = result.Score
	}
}

func TestFormulaFewerDocumentWeights(t *testing.T) {
	cfg := confidenceConfig(config.ConfidenceMethodFormula)

	two := scoreFormula(docsWithSimilarities(0.9, 0.8), 0, cfg)
	assert.InDelta(t, (0.9*0.7+0.8*0.3)*0.8+0.6*0.1, two.Score, 1e-9)

	one := scoreFormula(docsWithSimilarities(0.9), 0, cfg)
	assert.InDelta(t, 0.9*0.8+0.3*0.1, one.Score, 1e-9)
}

func TestFormulaLengthBoostTiers(t *testing.T) {
	cfg := confidenceConfig(config.ConfidenceMethodFormula)
	docs := docsWithSimilarities(0.5)

	short := scoreFormula(docs, 50, cfg)
	medium := scoreFormula(docs, 150, cfg)
	long := scoreFormula(docs, 200, cfg)

	assert.InDelta(t, 0.1, long.Score-short.Score, 1e-9)
	assert.InDelta(t, 0.05, medium.Score-short.Score, 1e-9)
}

func TestFormulaClampedAtOne(t *testing.T) {
	cfg := confidenceConfig(config.ConfidenceMethodFormula)
	result := scoreFormula(docsWithSimilarities(1.0, 1.0, 1.0), 1000, cfg)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
}

func TestParseJudgeReply(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    float64
		wantErr bool
	}{
		{"bare float", "0.85", 0.85, false},
		{"bare float with whitespace", "  0.7\n", 0.7, false},
		{"json object", `{"confidence_score": 0.92}`, 0.92, false},
		{"fenced json", "```json\n{\"confidence_score\": 0.4}\n```", 0.4, false},
		{"prose with number", "I would rate this 0.65 overall.", 0.65, false},
		{"clamped above one", "1.8", 1.0, false},
		{"clamped below zero", "-0.2", 0.0, false},
		{"no number", "excellent answer", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJudgeReply(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLLMMethodFallsBackToFormulaOnTimeout(t *testing.T) {
	llm := &mockLLM{
		generateFunc: func(ctx context.Context, _, _ string, _ llms.GenerateParams) (string, llms.Usage, error) {
			return "", llms.Usage{}, context.DeadlineExceeded
		},
	}

	scorer := NewScorer(llm, confidenceConfig(config.ConfidenceMethodLLM), nil)
	state := &State{
		Query:            "overtime rules",
		Response:         strings.Repeat("a", 250),
		ContextDocuments: docsWithSimilarities(0.9, 0.8, 0.76),
	}

	result := scorer.Score(context.Background(), state)
	assert.Equal(t, config.ConfidenceMethodFormula, result.Method)
	assert.InDelta(t, 0.8848, result.Score, 1e-9)
}

func TestLLMMethodUsesJudgeScore(t *testing.T) {
	scorer := NewScorer(staticLLM("0.9"), confidenceConfig(config.ConfidenceMethodLLM), nil)
	state := &State{
		Query:            "overtime rules",
		Response:         "answer",
		ContextDocuments: docsWithSimilarities(0.5),
	}

	result := scorer.Score(context.Background(), state)
	assert.Equal(t, config.ConfidenceMethodLLM, result.Method)
	assert.InDelta(t, 0.9, result.Score, 1e-9)
}

func TestHybridCombinesLinearly(t *testing.T) {
	scorer := NewScorer(staticLLM("0.5"), confidenceConfig(config.ConfidenceMethodHybrid), nil)
	state := &State{
		Query:            "overtime rules",
		Response:         strings.Repeat("a", 250),
		ContextDocuments: docsWithSimilarities(0.9, 0.8, 0.76),
	}

	result := scorer.Score(context.Background(), state)
	assert.Equal(t, config.ConfidenceMethodHybrid, result.Method)
	assert.InDelta(t, 0.8848*0.6+0.5*0.4, result.Score, 1e-9)
	assert.InDelta(t, 0.8848, result.Breakdown["formula_score"].(float64), 1e-9)
	assert.InDelta(t, 0.5, result.Breakdown["llm_score"].(float64), 1e-9)
}

func TestHybridDegradesToFormulaScore(t *testing.T) {
	llm := &mockLLM{
		generateFunc: func(ctx context.Context, _, _ string, _ llms.GenerateParams) (string, llms.Usage, error) {
			return "no number here", llms.Usage{}, nil
		},
	}

	scorer := NewScorer(llm, confidenceConfig(config.ConfidenceMethodHybrid), nil)
	state := &State{
		Query:            "overtime rules",
		Response:         strings.Repeat("a", 250),
		ContextDocuments: docsWithSimilarities(0.9, 0.8, 0.76),
	}

	result := scorer.Score(context.Background(), state)
	assert.Equal(t, MethodHybridFallback, result.Method)
	assert.InDelta(t, 0.8848, result.Score, 1e-9)
}

func TestScorePanicBecomesErrorMethod(t *testing.T) {
	llm := &mockLLM{
		generateFunc: func(ctx context.Context, _, _ string, _ llms.GenerateParams) (string, llms.Usage, error) {
			panic("boom")
		},
	}

	scorer := NewScorer(llm, confidenceConfig(config.ConfidenceMethodLLM), nil)
	state := &State{Query: "q", Response: "r", ContextDocuments: docsWithSimilarities(0.9)}

	result := scorer.Score(context.Background(), state)
	assert.Zero(t, result.Score)
	assert.Equal(t, MethodError, result.Method)
}
