package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const lastRunFileMode = 0600

// LastRun stores a summary of the most recent review run.
type LastRun struct {
	Target          string    `json:"target"`
	StartedAt       time.Time `json:"started_at,omitempty"`
	FilesScanned    int       `json:"files_scanned"`
	FilesReviewed   int       `json:"files_reviewed"`
	RequestsCreated int       `json:"requests_created"`
	FixesProposed   int       `json:"fixes_proposed"`
	FixesDropped    int       `json:"fixes_dropped"`
}

// Manager persists lightweight runtime state.
type Manager struct {
	lastRunPath string
	mu          sync.Mutex
}

// NewManager creates a state manager under <baseDir>/state.
func NewManager(baseDir string) *Manager {
	return &Manager{
		lastRunPath: filepath.Join(baseDir, "state", "lastrun.json"),
	}
}

// LoadLastRun reads the last run summary from disk.
// Missing or malformed files are treated as empty state.
func (m *Manager) LoadLastRun() (LastRun, error) {
	data, err := os.ReadFile(m.lastRunPath)
	if err != nil {
		if os.IsNotExist(err) {
			return LastRun{}, nil
		}
		return LastRun{}, err
	}

	var run LastRun
	if err := json.Unmarshal(data, &run); err != nil {
		return LastRun{}, nil
	}
	return run, nil
}

// SaveLastRun writes the last run summary to disk.
func (m *Manager) SaveLastRun(run LastRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.lastRunPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(m.lastRunPath, data, lastRunFileMode)
}
