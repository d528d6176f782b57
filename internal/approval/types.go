package approval

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of an approval request.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateDenied   State = "denied"
	StateExpired  State = "expired"
)

// Terminal reports whether the state permits no further transitions.
func (s State) Terminal() bool {
	return s == StateApproved || s == StateDenied || s == StateExpired
}

// Quality score bounds for a reviewed target.
const (
	MinQuality = 0
	MaxQuality = 10
)

// Fix is one proposed change within a request.
type Fix struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Severity    string `json:"severity,omitempty"`
	Before      string `json:"before,omitempty"`
	After       string `json:"after,omitempty"`
}

// Request is a persisted approval request record. It is stored as one
// self-describing JSON file per id so operators can read or hand-edit a
// record with a text editor.
//
// Version counts persisted writes and backs optimistic concurrency:
// an update only succeeds when it carries the version it read.
type Request struct {
	ID            string     `json:"id"`
	Target        string     `json:"target"`
	Fixes         []Fix      `json:"proposed_fixes"`
	QualityBefore float64    `json:"quality_before"`
	QualityAfter  float64    `json:"quality_after"`
	State         State      `json:"state"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	DecidedBy     string     `json:"decided_by,omitempty"`
}

// Validate checks the construction-time invariants of a request.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Target) == "" {
		return fmt.Errorf("target is required: %w", ErrInvalidRequest)
	}
	if len(r.Fixes) == 0 {
		return fmt.Errorf("request for %s has no fixes: %w", r.Target, ErrInvalidRequest)
	}
	for i, fix := range r.Fixes {
		if strings.TrimSpace(fix.Description) == "" {
			return fmt.Errorf("fix %d for %s has no description: %w", i+1, r.Target, ErrInvalidRequest)
		}
	}
	if r.QualityBefore < MinQuality || r.QualityBefore > MaxQuality {
		return fmt.Errorf("quality_before %.1f out of range: %w", r.QualityBefore, ErrInvalidRequest)
	}
	if r.QualityAfter < MinQuality || r.QualityAfter > MaxQuality {
		return fmt.Errorf("quality_after %.1f out of range: %w", r.QualityAfter, ErrInvalidRequest)
	}
	return nil
}

// QualityDelta is the estimated improvement if the fix set is applied.
func (r Request) QualityDelta() float64 {
	return r.QualityAfter - r.QualityBefore
}

// Age is how long the request has been waiting at the given instant.
func (r Request) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// Clone returns a deep copy so callers can mutate the result without
// racing with store internals.
func (r Request) Clone() Request {
	cp := r
	if r.Fixes != nil {
		cp.Fixes = make([]Fix, len(r.Fixes))
		copy(cp.Fixes, r.Fixes)
	}
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		cp.DecidedAt = &t
	}
	return cp
}
