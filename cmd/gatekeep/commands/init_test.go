package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sidegrid/gatekeep/internal/config"
)

func TestInitCommand_CreatesConfigAndWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("USERPROFILE", tmpDir)

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit error: %v", err)
	}

	configPath := config.ConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("expected config file at %s: %v", configPath, err)
	}

	cfg := config.DefaultConfig()
	if _, err := os.Stat(cfg.WorkspacePath()); err != nil {
		t.Fatalf("expected workspace dir at %s: %v", cfg.WorkspacePath(), err)
	}

	approvalsDir := filepath.Join(cfg.WorkspacePath(), "approvals")
	if _, err := os.Stat(approvalsDir); err != nil {
		t.Fatalf("expected approvals dir at %s: %v", approvalsDir, err)
	}
	stateDir := filepath.Join(cfg.WorkspacePath(), "state")
	if _, err := os.Stat(stateDir); err != nil {
		t.Fatalf("expected state dir at %s: %v", stateDir, err)
	}
}

func TestInitCommand_IdempotentWhenConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("USERPROFILE", tmpDir)

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("first runInit error: %v", err)
	}

	before, err := os.ReadFile(config.ConfigPath())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("second runInit error: %v", err)
	}

	after, err := os.ReadFile(config.ConfigPath())
	if err != nil {
		t.Fatalf("re-read config: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("expected existing config to be left untouched")
	}
}
