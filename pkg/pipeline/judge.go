package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/llms"
)

const judgeSystemPrompt = `You grade how well an answer is supported by its source passages.
Reply with a single number between 0.0 and 1.0, where 1.0 means fully supported and 0.0 means unsupported. No prose.`

// scoreJudge asks an LLM to grade the answer against its sources. Any
// failure is returned to the caller, which falls back to the formula.
func scoreJudge(ctx context.Context, llm llms.Provider, state *State, cfg config.ConfidenceConfig) (float64, map[string]any, error) {
	if llm == nil {
		return 0, nil, fmt.Errorf("no judge LLM configured")
	}

	prompt := buildJudgePrompt(state, cfg)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.JudgeTimeout)*time.Second)
	defer cancel()

	reply, usage, err := llm.Generate(ctx, judgeSystemPrompt, prompt, llms.GenerateParams{
		MaxTokens: cfg.JudgeMaxTokens,
	})
	state.Usage.Add(usage)
	if err != nil {
		return 0, nil, fmt.Errorf("judge call failed: %w", err)
	}

	score, err := parseJudgeReply(reply)
	if err != nil {
		return 0, nil, err
	}

	breakdown := map[string]any{
		"judge_model": llm.ModelName(),
		"raw_reply":   truncate(strings.TrimSpace(reply), 120),
	}
	return score, breakdown, nil
}

func buildJudgePrompt(state *State, cfg config.ConfidenceConfig) string {
	var b strings.Builder

	b.WriteString("Source passages:\n")
	for i, doc := range state.ContextDocuments {
		if i >= 3 {
			break
		}
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, truncate(doc.Content, cfg.JudgeDocChars))
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", truncate(state.Query, cfg.JudgeQueryChars))
	fmt.Fprintf(&b, "\nAnswer: %s\n", truncate(state.Response, cfg.JudgeQueryChars))
	b.WriteString("\nHow well is the answer supported by the passages?")

	return b.String()
}

// parseJudgeReply accepts a bare float or a JSON object carrying
// confidence_score, clamped to [0,1].
func parseJudgeReply(reply string) (float64, error) {
	s := strings.TrimSpace(reply)

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return clamp01(v), nil
	}

	payload := extractJSON(s)
	if payload != "" {
		var obj struct {
			ConfidenceScore *float64 `json:"confidence_score"`
		}
		if err := json.Unmarshal([]byte(payload), &obj); err == nil && obj.ConfidenceScore != nil {
			return clamp01(*obj.ConfidenceScore), nil
		}
	}

	// Some models pad the number with prose; take the first token that
	// parses.
	for _, field := range strings.Fields(s) {
		field = strings.Trim(field, ",.;:")
		if v, err := strconv.ParseFloat(field, 64); err == nil {
			return clamp01(v), nil
		}
	}

	return 0, fmt.Errorf("unparseable judge reply: %q", truncate(s, 80))
}
