package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/llms"
	"github.com/labourlens/labourlens/pkg/utils"
)

var provinceNames = map[string]string{
	"AB": "Alberta",
	"BC": "British Columbia",
	"MB": "Manitoba",
	"NB": "New Brunswick",
	"NL": "Newfoundland and Labrador",
	"NS": "Nova Scotia",
	"NT": "Northwest Territories",
	"NU": "Nunavut",
	"ON": "Ontario",
	"PE": "Prince Edward Island",
	"QC": "Quebec",
	"SK": "Saskatchewan",
	"YT": "Yukon",
}

// Generator assembles the answer prompt and calls the LLM. Generation
// failure degrades to a configured apology; the pipeline keeps going.
type Generator struct {
	llm     llms.Provider
	cfg     config.GenerationConfig
	counter *utils.TokenCounter
}

func NewGenerator(llm llms.Provider, cfg config.GenerationConfig, counter *utils.TokenCounter) *Generator {
	return &Generator{llm: llm, cfg: cfg, counter: counter}
}

// Generate writes the response and accumulated usage onto the state.
// The returned error is recorded, not fatal: on failure the response
// is the apology text.
func (g *Generator) Generate(ctx context.Context, state *State) error {
	if g.llm == nil {
		state.Response = g.cfg.ApologyText
		return fmt.Errorf("no generation LLM configured")
	}

	systemPrompt := g.buildSystemPrompt(state)
	userPrompt := g.buildUserPrompt(state)

	reply, usage, err := g.llm.Generate(ctx, systemPrompt, userPrompt, llms.GenerateParams{})
	state.Usage.Add(usage)
	if err != nil {
		state.Response = g.cfg.ApologyText
		return fmt.Errorf("generation failed: %w", err)
	}

	state.Response = strings.TrimSpace(reply)
	return nil
}

func (g *Generator) buildSystemPrompt(state *State) string {
	var b strings.Builder

	b.WriteString("You are an employment-standards assistant for HR professionals. ")
	b.WriteString("Answer using only the provided context. ")
	b.WriteString("If the context does not cover the question, say so plainly instead of guessing.")

	if state.Province != "" {
		name, ok := provinceNames[strings.ToUpper(state.Province)]
		if !ok {
			name = state.Province
		}
		fmt.Fprintf(&b, "\n\nThe question concerns %s. Apply that jurisdiction's employment standards and say when federal rules differ.", name)
	}

	if len(state.ContextDocuments) > 0 {
		b.WriteString("\n\nContext:\n")
		for i, doc := range state.ContextDocuments {
			fmt.Fprintf(&b, "\n[%d] %s\n", i+1, doc.Content)
		}
	}

	return b.String()
}

func (g *Generator) buildUserPrompt(state *State) string {
	history := g.trimHistory(state.ConversationHistory)
	if len(history) == 0 {
		return state.Query
	}

	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	b.WriteString("\nCurrent question: ")
	b.WriteString(state.Query)
	return b.String()
}

// trimHistory keeps the newest turns that fit the token budget, oldest
// dropped first.
func (g *Generator) trimHistory(history []Message) []Message {
	if g.cfg.HistoryTokenBudget <= 0 || len(history) == 0 {
		return history
	}

	budget := g.cfg.HistoryTokenBudget
	start := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := g.countTokens(history[i].Content) + g.countTokens(history[i].Role)
		if cost > budget {
			break
		}
		budget -= cost
		start = i
	}
	return history[start:]
}

func (g *Generator) countTokens(text string) int {
	if g.counter != nil {
		return g.counter.Count(text)
	}
	return utils.EstimateTokens(text)
}
