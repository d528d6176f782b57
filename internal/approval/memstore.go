package approval

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store with the same contract as DirStore.
// It backs tests and dry runs where nothing should touch disk.
type MemStore struct {
	mu      sync.Mutex
	records map[string]Request
	now     func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]Request),
		now:     time.Now,
	}
}

// Create stores a new pending record.
func (s *MemStore) Create(req Request) (Request, error) {
	if err := req.Validate(); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now().UTC()
	}
	if req.ID == "" {
		req.ID = NewID(req.CreatedAt)
	}
	if err := checkID(req.ID); err != nil {
		return Request{}, err
	}
	if req.State == "" {
		req.State = StatePending
	}
	req.Version = 1

	if _, ok := s.records[req.ID]; ok {
		return Request{}, fmt.Errorf("create %s: id already exists: %w", req.ID, ErrConflict)
	}

	s.records[req.ID] = req.Clone()
	return req, nil
}

// Get returns a copy of the record with the given id.
func (s *MemStore) Get(id string) (Request, error) {
	if err := checkID(id); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.records[id]
	if !ok {
		return Request{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return req.Clone(), nil
}

// List returns matching records ordered by creation time ascending.
func (s *MemStore) List(q Query) ([]Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Request, 0, len(s.records))
	for _, req := range s.records {
		if q.Matches(req) {
			result = append(result, req.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Update overwrites a record that is still pending.
func (s *MemStore) Update(req Request) (Request, error) {
	if err := checkID(req.ID); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[req.ID]
	if !ok {
		return Request{}, fmt.Errorf("update %s: %w", req.ID, ErrNotFound)
	}
	if current.State != StatePending {
		return Request{}, fmt.Errorf("update %s: state is %s: %w", req.ID, current.State, ErrInvalidTransition)
	}
	if current.Version != req.Version {
		return Request{}, fmt.Errorf("update %s: version %d, want %d: %w", req.ID, req.Version, current.Version, ErrConflict)
	}

	req.Version++
	s.records[req.ID] = req.Clone()
	return req, nil
}

// Delete removes a record.
func (s *MemStore) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(s.records, id)
	return nil
}
