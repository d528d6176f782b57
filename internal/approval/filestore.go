package approval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	recordFileMode = 0644
	recordDirMode  = 0755
	recordExt      = ".json"
)

// DirStore persists one JSON record file per request id under a
// directory, so an operator can inspect or hand-edit any record with a
// text editor. Writes go through a temp file plus rename, making each
// record write all-or-nothing even across a crash.
type DirStore struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewDirStore creates a store rooted at <workspace>/approvals.
func NewDirStore(workspace string) *DirStore {
	return &DirStore{
		dir: filepath.Join(workspace, "approvals"),
		now: time.Now,
	}
}

// Dir returns the record directory.
func (s *DirStore) Dir() string { return s.dir }

// Create persists a new pending record.
func (s *DirStore) Create(req Request) (Request, error) {
	if err := req.Validate(); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
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

	if _, err := os.Stat(s.path(req.ID)); err == nil {
		return Request{}, fmt.Errorf("create %s: id already exists: %w", req.ID, ErrConflict)
	} else if !os.IsNotExist(err) {
		return Request{}, storageErr("create", req.ID, err)
	}

	if err := s.writeRecord(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Get reads one record from disk.
func (s *DirStore) Get(id string) (Request, error) {
	if err := checkID(id); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readRecord("get", id)
}

// List reads every record file and returns the matching ones ordered by
// creation time ascending. The directory is re-read on every call.
func (s *DirStore) List(q Query) ([]Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Request{}, nil
		}
		return nil, storageErr("list", "", err)
	}

	result := make([]Request, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		req, err := s.readRecord("list", strings.TrimSuffix(name, recordExt))
		if err != nil {
			return nil, err
		}
		if q.Matches(req) {
			result = append(result, req)
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

// Update overwrites a record that is still pending on disk. The caller
// must pass the version it read; a mismatch means another writer got
// there first.
func (s *DirStore) Update(req Request) (Request, error) {
	if err := checkID(req.ID); err != nil {
		return Request{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.readRecord("update", req.ID)
	if err != nil {
		return Request{}, err
	}
	if current.State != StatePending {
		return Request{}, fmt.Errorf("update %s: state is %s: %w", req.ID, current.State, ErrInvalidTransition)
	}
	if current.Version != req.Version {
		return Request{}, fmt.Errorf("update %s: version %d, want %d: %w", req.ID, req.Version, current.Version, ErrConflict)
	}

	req.Version++
	if err := s.writeRecord(req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Delete removes a record file.
func (s *DirStore) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("delete %s: %w", id, ErrNotFound)
		}
		return storageErr("delete", id, err)
	}
	return nil
}

func (s *DirStore) path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}

func (s *DirStore) readRecord(op, id string) (Request, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Request{}, fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
		}
		return Request{}, storageErr(op, id, err)
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, storageErr(op, id, fmt.Errorf("parse record: %w", err))
	}
	return req, nil
}

func (s *DirStore) writeRecord(req Request) error {
	encoded, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return storageErr("write", req.ID, err)
	}

	if err := os.MkdirAll(s.dir, recordDirMode); err != nil {
		return storageErr("write", req.ID, err)
	}

	tmpFile, err := os.CreateTemp(s.dir, req.ID+"-*.tmp")
	if err != nil {
		return storageErr("write", req.ID, err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(encoded); err != nil {
		_ = tmpFile.Close()
		return storageErr("write", req.ID, err)
	}
	if err := tmpFile.Chmod(recordFileMode); err != nil {
		_ = tmpFile.Close()
		return storageErr("write", req.ID, err)
	}
	if err := tmpFile.Close(); err != nil {
		return storageErr("write", req.ID, err)
	}

	if err := os.Rename(tmpPath, s.path(req.ID)); err != nil {
		return storageErr("write", req.ID, err)
	}
	return nil
}

// checkID rejects ids that would escape the record directory or map to
// a non-deterministic file name.
func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id is required: %w", ErrInvalidRequest)
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return fmt.Errorf("id %q is not a valid record name: %w", id, ErrInvalidRequest)
	}
	return nil
}
