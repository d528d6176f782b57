package approval

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is durable CRUD for approval requests keyed by id.
//
// Implementations guarantee atomicity of a single record's write only;
// there are no cross-record transactions. List and Get reflect the
// backing storage at call time, so edits made outside the process (an
// operator changing a record file by hand) are observed on the next
// call.
type Store interface {
	// Create persists a new pending record, assigning an id when the
	// request carries none, and returns the stored record.
	Create(req Request) (Request, error)

	// Get returns the record with the given id, or ErrNotFound.
	Get(id string) (Request, error)

	// List returns a snapshot of records matching the query, ordered
	// by creation time ascending.
	List(q Query) ([]Request, error)

	// Update overwrites a record that is still pending. It fails with
	// ErrInvalidTransition when the persisted state is already
	// terminal, and with ErrConflict when the persisted version
	// differs from req.Version.
	Update(req Request) (Request, error)

	// Delete removes a record. Records are never deleted automatically;
	// this is the primitive behind explicit operator pruning.
	Delete(id string) error
}

// Query filters listed requests. The zero value matches everything.
type Query struct {
	State State
}

// Matches reports whether the request passes the query filter.
func (q Query) Matches(req Request) bool {
	return q.State == "" || req.State == q.State
}

// NewID builds a request id from the creation time plus a random
// suffix. Ids sort roughly by creation time, which keeps the record
// directory browsable, and are never reused.
func NewID(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}
