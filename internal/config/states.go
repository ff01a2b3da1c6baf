package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/happybuttons/orderflow/internal/models"
	"github.com/happybuttons/orderflow/pkg/logger"
)

// DefaultStateSLA applies when a state has no sla_hours configured
const DefaultStateSLA = 24 * time.Hour

// StateRule describes one lifecycle state: which states it may move to
// and how long an order may dwell in it before counting as overdue.
type StateRule struct {
	Description string              `yaml:"description"`
	NextStates  []models.OrderState `yaml:"next_states"`
	SLAHours    float64             `yaml:"sla_hours"`
}

// StateRules maps each state to its configured rule. It is parsed once at
// state machine construction and never reloaded.
type StateRules map[models.OrderState]StateRule

// LoadStateRules parses the lifecycle rules YAML. A missing or unreadable
// file yields an empty rule set, under which no transition is ever legal;
// this mirrors the configured-lockout failure mode rather than aborting.
func LoadStateRules(path string, log logger.Logger) StateRules {
	data, err := os.ReadFile(path)

	if err != nil {
		log.Warn("State rules config not readable, starting with empty rule set",
			"path", path,
			"error", err)
		return StateRules{}
	}

	rules, err := ParseStateRules(data)

	if err != nil {
		log.Warn("State rules config invalid, starting with empty rule set",
			"path", path,
			"error", err)
		return StateRules{}
	}

	log.Info("Loaded state rules", "path", path, "states", len(rules))
	return rules
}

// ParseStateRules parses rules from raw YAML
func ParseStateRules(data []byte) (StateRules, error) {
	var raw struct {
		States map[models.OrderState]StateRule `yaml:"states"`
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse state rules: %w", err)
	}

	rules := make(StateRules, len(raw.States))
	for state, rule := range raw.States {
		rules[state] = rule
	}

	return rules, nil
}

// CanTransition reports whether moving from one state to another is permitted.
// Unknown source states, including any state under an empty rule set, permit
// nothing.
func (r StateRules) CanTransition(from, to models.OrderState) bool {
	rule, exists := r[from]

	if !exists {
		return false
	}

	for _, next := range rule.NextStates {
		if next == to {
			return true
		}
	}

	return false
}

// SLAFor returns the configured dwell-time SLA for a state, falling back
// to DefaultStateSLA when unconfigured
func (r StateRules) SLAFor(state models.OrderState) time.Duration {
	rule, exists := r[state]

	if !exists || rule.SLAHours <= 0 {
		return DefaultStateSLA
	}

	return time.Duration(rule.SLAHours * float64(time.Hour))
}
