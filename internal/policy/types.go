package policy

// Action is the policy decision for a proposed fix.
type Action string

const (
	ActionKeep Action = "keep"
	ActionDrop Action = "drop"
)

// Mode controls evaluator behavior.
type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeRelaxed Mode = "relaxed"
	ModeOff     Mode = "off"
)

// Config contains policy settings required by the evaluator.
type Config struct {
	Mode           Mode
	MinSeverity    string
	DropCategories []string
}

// Input is the minimum evaluation context for one proposed fix.
type Input struct {
	Category string
	Severity string
}

// Decision is the deterministic policy result.
type Decision struct {
	Action Action
	Reason string
}
