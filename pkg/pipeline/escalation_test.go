package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/labourlens/labourlens/pkg/config"
)

func TestDecideEscalatesBelowThreshold(t *testing.T) {
	decider := NewDecider(config.EscalationConfig{Threshold: 0.95})

	escalated, reason := decider.Decide(0.80)
	assert.True(t, escalated)
	assert.Contains(t, reason, "0.8000")
	assert.Contains(t, reason, "0.9500")
}

func TestDecideAcceptsAtThreshold(t *testing.T) {
	decider := NewDecider(config.EscalationConfig{Threshold: 0.95})

	escalated, reason := decider.Decide(0.95)
	assert.False(t, escalated)
	assert.Empty(t, reason)
}

func TestDecideAcceptsAboveThreshold(t *testing.T) {
	decider := NewDecider(config.EscalationConfig{Threshold: 0.95})

	escalated, _ := decider.Decide(0.99)
	assert.False(t, escalated)
}

func TestDecideZeroScoreAlwaysEscalates(t *testing.T) {
	decider := NewDecider(config.EscalationConfig{Threshold: 0.95})

	escalated, _ := decider.Decide(0)
	assert.True(t, escalated)
}
