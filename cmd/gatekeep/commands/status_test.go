package commands

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/sidegrid/gatekeep/internal/state"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func TestStatusCommand_PrintsConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("USERPROFILE", tmpDir)

	output := captureOutput(t, func() {
		if err := runStatus(nil, nil); err != nil {
			t.Fatalf("runStatus error: %v", err)
		}
	})

	cleanOutput := stripANSI(output)

	if !strings.Contains(cleanOutput, "Gatekeep Status") {
		t.Fatalf("expected status output, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "Config:") {
		t.Fatalf("expected config section, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "Model:") {
		t.Fatalf("expected model line, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "OpenRouter") || !strings.Contains(cleanOutput, "Not configured") {
		t.Fatalf("expected provider section, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "Retention: 24h") {
		t.Fatalf("expected approvals retention line, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "Telegram: disabled") {
		t.Fatalf("expected notify section, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "None recorded") {
		t.Fatalf("expected empty last-run section, got: %s", cleanOutput)
	}
}

func TestStatusCommand_ShowsQueueAndLastRun(t *testing.T) {
	wf, workspacePath := prepareWorkspace(t)
	queueRequest(t, wf)

	if err := state.NewManager(workspacePath).SaveLastRun(state.LastRun{
		Target:          "/repos/service",
		StartedAt:       time.Now().UTC().Truncate(time.Second),
		FilesScanned:    10,
		FilesReviewed:   10,
		RequestsCreated: 1,
		FixesProposed:   3,
		FixesDropped:    1,
	}); err != nil {
		t.Fatalf("SaveLastRun: %v", err)
	}

	output := captureOutput(t, func() {
		if err := runStatus(nil, nil); err != nil {
			t.Fatalf("runStatus error: %v", err)
		}
	})

	cleanOutput := stripANSI(output)
	if !strings.Contains(cleanOutput, "1 pending") {
		t.Fatalf("expected one pending request in queue line, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "Target: /repos/service") {
		t.Fatalf("expected last-run target, got: %s", cleanOutput)
	}
	if !strings.Contains(cleanOutput, "3 proposed, 1 dropped") {
		t.Fatalf("expected fix counters, got: %s", cleanOutput)
	}
}
