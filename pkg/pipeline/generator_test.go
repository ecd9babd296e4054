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

func generationConfig() config.GenerationConfig {
	cfg := config.GenerationConfig{}
	cfg.SetDefaults()
	return cfg
}

func TestGeneratePromptCarriesJurisdictionAndContext(t *testing.T) {
	var gotSystem, gotUser string
	llm := &mockLLM{
		generateFunc: func(ctx context.Context, systemPrompt, userPrompt string, _ llms.GenerateParams) (string, llms.Usage, error) {
			gotSystem, gotUser = systemPrompt, userPrompt
			return "answer", llms.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
		},
	}

	g := NewGenerator(llm, generationConfig(), nil)
	state := NewState(Request{Query: "When is overtime owed?", Province: "on"})
	state.ContextDocuments = []ContextDocument{
		{Content: "Overtime applies after 44 hours."},
	}

	require.NoError(t, g.Generate(context.Background(), state))

	assert.Contains(t, gotSystem, "Ontario")
	assert.Contains(t, gotSystem, "Overtime applies after 44 hours.")
	assert.Equal(t, "When is overtime owed?", gotUser)
	assert.Equal(t, "answer", state.Response)
	assert.Equal(t, 15, state.Usage.TotalTokens)
}

func TestGenerateIncludesHistory(t *testing.T) {
	var gotUser string
	llm := &mockLLM{
		generateFunc: func(ctx context.Context, _, userPrompt string, _ llms.GenerateParams) (string, llms.Usage, error) {
			gotUser = userPrompt
			return "answer", llms.Usage{}, nil
		},
	}

	g := NewGenerator(llm, generationConfig(), nil)
	state := NewState(Request{
		Query: "And in Quebec?",
		ConversationHistory: []Message{
			{Role: "user", Content: "What is the overtime threshold in Ontario?"},
			{Role: "assistant", Content: "44 hours per week."},
		},
	})

	require.NoError(t, g.Generate(context.Background(), state))
	assert.Contains(t, gotUser, "44 hours per week.")
	assert.Contains(t, gotUser, "Current question: And in Quebec?")
}

func TestTrimHistoryDropsOldestFirst(t *testing.T) {
	cfg := generationConfig()
	cfg.HistoryTokenBudget = 30
	g := NewGenerator(staticLLM("ok"), cfg, nil)

	history := []Message{
		{Role: "user", Content: strings.Repeat("old ", 40)},
		{Role: "assistant", Content: "short reply"},
		{Role: "user", Content: "latest question"},
	}

	trimmed := g.trimHistory(history)
	require.NotEmpty(t, trimmed)
	assert.Equal(t, "latest question", trimmed[len(trimmed)-1].Content)
	assert.Less(t, len(trimmed), len(history))
}
