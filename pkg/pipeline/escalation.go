package pipeline

import (
	"fmt"

	"github.com/labourlens/labourlens/pkg/config"
)

// Decider compares the confidence score against the configured
// threshold. A score exactly at the threshold is accepted.
type Decider struct {
	cfg config.EscalationConfig
}

func NewDecider(cfg config.EscalationConfig) *Decider {
	return &Decider{cfg: cfg}
}

// Decide returns whether to escalate and, when escalating, a reason
// carrying both numbers.
func (d *Decider) Decide(score float64) (bool, string) {
	if score < d.cfg.Threshold {
		return true, fmt.Sprintf(
			"confidence score %.4f is below the escalation threshold %.4f; routing to a human specialist",
			score, d.cfg.Threshold,
		)
	}
	return false, ""
}
