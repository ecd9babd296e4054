package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labourlens/labourlens/pkg/config/provider"
)

func TestConfidenceDefaults(t *testing.T) {
	cfg := ConfidenceConfig{}
	cfg.SetDefaults()

	assert.Equal(t, ConfidenceMethodFormula, cfg.Method)
	assert.Equal(t, FormulaWeights{Similarity: 0.80, Sources: 0.10, Length: 0.10}, cfg.Formula)
	assert.Equal(t, HybridWeights{Formula: 0.60, LLM: 0.40}, cfg.Hybrid)
	assert.Equal(t, 0.75, cfg.HighSimilarityCutoff)
	assert.Equal(t, 200, cfg.FullLengthChars)
	assert.Equal(t, 100, cfg.HalfLengthChars)
	require.NoError(t, cfg.Validate())
}

func TestConfidenceWeightsMustSumToOne(t *testing.T) {
	tests := []struct {
		name    string
		formula FormulaWeights
		hybrid  HybridWeights
		wantErr bool
	}{
		{
			name:    "defaults valid",
			formula: FormulaWeights{Similarity: 0.80, Sources: 0.10, Length: 0.10},
			hybrid:  HybridWeights{Formula: 0.60, LLM: 0.40},
		},
		{
			name:    "formula weights under one",
			formula: FormulaWeights{Similarity: 0.5, Sources: 0.1, Length: 0.1},
			hybrid:  HybridWeights{Formula: 0.60, LLM: 0.40},
			wantErr: true,
		},
		{
			name:    "formula weights over one",
			formula: FormulaWeights{Similarity: 0.9, Sources: 0.2, Length: 0.1},
			hybrid:  HybridWeights{Formula: 0.60, LLM: 0.40},
			wantErr: true,
		},
		{
			name:    "hybrid weights invalid",
			formula: FormulaWeights{Similarity: 0.80, Sources: 0.10, Length: 0.10},
			hybrid:  HybridWeights{Formula: 0.8, LLM: 0.4},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfidenceConfig{Method: ConfidenceMethodHybrid, Formula: tt.formula, Hybrid: tt.hybrid}
			cfg.SetDefaults()
			cfg.Formula = tt.formula
			cfg.Hybrid = tt.hybrid

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEscalationDefaults(t *testing.T) {
	cfg := EscalationConfig{}
	cfg.SetDefaults()
	assert.Equal(t, 0.95, cfg.Threshold)
	assert.NoError(t, cfg.Validate())

	cfg.Threshold = 1.5
	assert.Error(t, cfg.Validate())
}

func TestSearchDefaults(t *testing.T) {
	cfg := SearchConfig{}
	cfg.SetDefaults()

	assert.Equal(t, 0.7, cfg.DefaultThreshold)
	assert.Equal(t, 0.5, cfg.SuggestedThresholdCap)
	assert.Equal(t, 5, cfg.DefaultDocCount)
	assert.Equal(t, 20, cfg.MaxDocCount)
	assert.Equal(t, "province", cfg.ProvinceField)
	assert.NoError(t, cfg.Validate())
}

func TestLoaderRejectsBadWeightsAtLoadTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
llms:
  main:
    type: ollama
confidence:
  method: formula
  formula_weights:
    similarity: 0.5
    sources: 0.1
    length: 0.1
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	p, err := provider.NewFileProvider(path)
	require.NoError(t, err)
	loader := NewLoader(p)

	_, err = loader.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must sum to 1.0")
}

func TestLoaderExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_LLM_KEY", "sk-test-123")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
llms:
  main:
    type: openai
    api_key: ${TEST_LLM_KEY}
escalation:
  threshold: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	p, err := provider.NewFileProvider(path)
	require.NoError(t, err)
	loader := NewLoader(p)

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sk-test-123", cfg.LLMs["main"].APIKey)
	assert.Equal(t, "gpt-4o", cfg.LLMs["main"].Model)
	assert.Equal(t, 0.9, cfg.Escalation.Threshold)
	assert.Equal(t, ConfidenceMethodFormula, cfg.Confidence.Method)
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("LL_PRESENT", "value")

	assert.Equal(t, "value", expandEnvString("${LL_PRESENT}"))
	assert.Equal(t, "", expandEnvString("${LL_MISSING_VAR}"))
	assert.Equal(t, "fallback", expandEnvString("${LL_MISSING_VAR:-fallback}"))
	assert.Equal(t, "no vars here", expandEnvString("no vars here"))
	assert.Equal(t, "prefix-value-suffix", expandEnvString("prefix-${LL_PRESENT}-suffix"))
}
