package policy

import (
	"fmt"
	"strings"
)

// severityRank orders known severities; unknown values rank lowest.
var severityRank = map[string]int{
	"low":    1,
	"medium": 2,
	"high":   3,
}

// Evaluator performs pure policy decisions over proposed fixes.
type Evaluator struct {
	mode           Mode
	minSeverity    int
	dropCategories map[string]struct{}
}

// NewEvaluator builds a deterministic, side-effect free evaluator.
func NewEvaluator(cfg Config) Evaluator {
	dropCategories := make(map[string]struct{}, len(cfg.DropCategories))
	for _, category := range cfg.DropCategories {
		normalized := normalizeLabel(category)
		if normalized == "" {
			continue
		}
		dropCategories[normalized] = struct{}{}
	}

	return Evaluator{
		mode:           normalizeMode(cfg.Mode),
		minSeverity:    severityRank[normalizeLabel(cfg.MinSeverity)],
		dropCategories: dropCategories,
	}
}

// Evaluate returns a deterministic decision for one proposed fix.
func (e Evaluator) Evaluate(input Input) Decision {
	if e.mode == ModeOff {
		return Decision{Action: ActionKeep}
	}

	category := normalizeLabel(input.Category)
	if _, ok := e.dropCategories[category]; ok {
		return Decision{Action: ActionDrop, Reason: fmt.Sprintf("category %s is dropped by policy", category)}
	}

	if e.mode == ModeStrict && e.minSeverity > 0 {
		severity := severityRank[normalizeLabel(input.Severity)]
		if severity == 0 {
			severity = severityRank["low"]
		}
		if severity < e.minSeverity {
			return Decision{Action: ActionDrop, Reason: fmt.Sprintf("severity %s is below the policy floor", normalizeLabel(input.Severity))}
		}
	}

	return Decision{Action: ActionKeep}
}

func normalizeMode(mode Mode) Mode {
	switch strings.ToLower(strings.TrimSpace(string(mode))) {
	case string(ModeRelaxed):
		return ModeRelaxed
	case string(ModeOff):
		return ModeOff
	default:
		return ModeStrict
	}
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
