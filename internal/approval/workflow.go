package approval

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultRetention is how long a pending request stays decidable.
const DefaultRetention = 24 * time.Hour

// Config configures a Workflow. Store is required; zero values for the
// rest fall back to DefaultRetention and the wall clock.
type Config struct {
	Store     Store
	Retention time.Duration
	Now       func() time.Time
}

// Workflow drives the approval state machine over a Store:
// pending transitions to exactly one of approved, denied or expired,
// and a terminal record never changes again.
type Workflow struct {
	store     Store
	retention time.Duration
	now       func() time.Time
}

// New creates a workflow from explicit configuration.
func New(cfg Config) *Workflow {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Workflow{
		store:     cfg.Store,
		retention: retention,
		now:       now,
	}
}

// Proposal describes a fix set awaiting sign-off.
type Proposal struct {
	Target        string
	Fixes         []Fix
	QualityBefore float64
	QualityAfter  float64
}

// Request validates a proposal and stores it as a pending record.
func (w *Workflow) Request(p Proposal) (Request, error) {
	req := Request{
		Target:        strings.TrimSpace(p.Target),
		Fixes:         p.Fixes,
		QualityBefore: p.QualityBefore,
		QualityAfter:  p.QualityAfter,
		State:         StatePending,
		CreatedAt:     w.now().UTC(),
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return w.store.Create(req)
}

// Get returns the record with expiry applied to the reported view.
// An aged-out pending record reads as expired even before any write
// has made that durable.
func (w *Workflow) Get(id string) (Request, error) {
	req, err := w.store.Get(id)
	if err != nil {
		return Request{}, err
	}
	return w.view(req), nil
}

// Approve transitions a pending request to approved.
func (w *Workflow) Approve(id, actor string) (Request, error) {
	return w.decide("approve", id, actor, StateApproved)
}

// Deny transitions a pending request to denied.
func (w *Workflow) Deny(id, actor string) (Request, error) {
	return w.decide("deny", id, actor, StateDenied)
}

// ListPending returns undecided records ordered by creation time.
// Aged-out entries appear with state expired so callers never have to
// compute expiry themselves.
func (w *Workflow) ListPending() ([]Request, error) {
	reqs, err := w.store.List(Query{State: StatePending})
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		reqs[i] = w.view(reqs[i])
	}
	return reqs, nil
}

// List returns records matching the query, expiry applied.
func (w *Workflow) List(q Query) ([]Request, error) {
	reqs, err := w.store.List(q)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		reqs[i] = w.view(reqs[i])
	}
	return reqs, nil
}

// ExpirePending persists the expired state for every aged-out pending
// record and returns the records it rewrote. Lazy expiry makes this
// optional for correctness; pruning runs it first so the audit trail
// records the expiry before the record disappears.
func (w *Workflow) ExpirePending() ([]Request, error) {
	reqs, err := w.store.List(Query{State: StatePending})
	if err != nil {
		return nil, err
	}

	now := w.now().UTC()
	expired := make([]Request, 0)
	for _, req := range reqs {
		if !expiredByAge(now, req.CreatedAt, w.retention) {
			continue
		}
		req.State = StateExpired
		req.DecidedAt = &now
		req.DecidedBy = "system"
		updated, err := w.store.Update(req)
		if err != nil {
			return expired, err
		}
		expired = append(expired, updated)
	}
	return expired, nil
}

// Prune removes terminal records after persisting expiry for aged-out
// pending ones. Pending records are never pruned.
func (w *Workflow) Prune() ([]Request, error) {
	if _, err := w.ExpirePending(); err != nil {
		return nil, err
	}

	reqs, err := w.store.List(Query{})
	if err != nil {
		return nil, err
	}

	pruned := make([]Request, 0)
	for _, req := range reqs {
		if !req.State.Terminal() {
			continue
		}
		if err := w.store.Delete(req.ID); err != nil {
			return pruned, err
		}
		pruned = append(pruned, req)
	}
	return pruned, nil
}

func (w *Workflow) decide(op, id, actor string, next State) (Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Request{}, fmt.Errorf("%s: id is required: %w", op, ErrInvalidRequest)
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return Request{}, fmt.Errorf("%s %s: actor is required: %w", op, id, ErrInvalidRequest)
	}

	current, err := w.store.Get(id)
	if err != nil {
		return Request{}, err
	}

	now := w.now().UTC()
	if current.State == StatePending && expiredByAge(now, current.CreatedAt, w.retention) {
		current.State = StateExpired
		current.DecidedAt = &now
		current.DecidedBy = "system"
		// A racing writer may have decided the record first; the
		// terminal outcome on disk stands either way.
		if _, uerr := w.store.Update(current); uerr != nil && !isTerminalRace(uerr) {
			return Request{}, uerr
		}
		return Request{}, fmt.Errorf("%s %s: no decision recorded: %w", op, id, ErrAlreadyExpired)
	}
	if current.State.Terminal() {
		return Request{}, fmt.Errorf("%s %s: state is %s: %w", op, id, current.State, ErrInvalidTransition)
	}

	current.State = next
	current.DecidedAt = &now
	current.DecidedBy = actor
	return w.store.Update(current)
}

// view maps an aged-out pending record to its expired view without
// persisting anything. Expiry is a pure function of the clock, the
// creation time and the retention window, so Get and ListPending can
// never disagree about the same record.
func (w *Workflow) view(req Request) Request {
	if req.State == StatePending && expiredByAge(w.now().UTC(), req.CreatedAt, w.retention) {
		req.State = StateExpired
	}
	return req
}

// expiredByAge reports whether a pending record created at createdAt
// has aged out. The boundary is inclusive: a record exactly retention
// old is already expired.
func expiredByAge(now, createdAt time.Time, retention time.Duration) bool {
	if retention <= 0 {
		return false
	}
	return now.Sub(createdAt) >= retention
}

func isTerminalRace(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrConflict)
}
