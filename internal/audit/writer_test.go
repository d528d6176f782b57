package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWriter_AppendEvent(t *testing.T) {
	workspace := t.TempDir()
	writer := NewWriter(workspace)

	firstTime := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	secondTime := firstTime.Add(5 * time.Second)

	if err := writer.Append(Event{
		Time:      firstTime,
		Action:    ActionRequested,
		RequestID: "20260305T080000-ab12cd34",
		Target:    "internal/server/handler.go",
	}); err != nil {
		t.Fatalf("Append first event error: %v", err)
	}

	if err := writer.Append(Event{
		Time:      secondTime,
		Action:    ActionApproved,
		RequestID: "20260305T080000-ab12cd34",
		Target:    "internal/server/handler.go",
		Actor:     "alice",
	}); err != nil {
		t.Fatalf("Append second event error: %v", err)
	}

	auditPath := filepath.Join(workspace, "state", "audit.jsonl")
	file, err := os.Open(auditPath)
	if err != nil {
		t.Fatalf("Open audit file error: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lines := make([]string, 0, 2)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan audit file error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 jsonl lines, got %d", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first line error: %v", err)
	}
	if !first.Time.Equal(firstTime) {
		t.Fatalf("expected first time %s, got %s", firstTime, first.Time)
	}
	if first.Action != ActionRequested {
		t.Fatalf("expected first action requested, got %q", first.Action)
	}
	if first.RequestID != "20260305T080000-ab12cd34" {
		t.Fatalf("unexpected first request_id %q", first.RequestID)
	}

	var second Event
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("unmarshal second line error: %v", err)
	}
	if second.Action != ActionApproved {
		t.Fatalf("expected second action approved, got %q", second.Action)
	}
	if second.Actor != "alice" {
		t.Fatalf("expected second actor alice, got %q", second.Actor)
	}
}

func TestWriter_AppendEvent_MkdirAllFailure(t *testing.T) {
	workspace := t.TempDir()
	statePath := filepath.Join(workspace, "state")
	if err := os.WriteFile(statePath, []byte("not-a-dir"), 0644); err != nil {
		t.Fatalf("WriteFile state blocker error: %v", err)
	}

	writer := NewWriter(workspace)
	err := writer.Append(Event{Time: time.Now().UTC(), Action: ActionRequested})
	if err == nil {
		t.Fatal("expected append error when state path is a file")
	}
}

func TestWriter_AppendEvent_Concurrent(t *testing.T) {
	workspace := t.TempDir()
	writer := NewWriter(workspace)

	const total = 20
	var wg sync.WaitGroup
	errCh := make(chan error, total)
	wg.Add(total)
	for i := 0; i < total; i++ {
		i := i
		go func() {
			defer wg.Done()
			if err := writer.Append(Event{
				Time:      time.Date(2026, 3, 5, 9, 0, i, 0, time.UTC),
				Action:    ActionDenied,
				RequestID: fmt.Sprintf("req-%d", i),
				Actor:     "bob",
			}); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("append failed in concurrent path: %v", err)
	}

	auditPath := filepath.Join(workspace, "state", "audit.jsonl")
	file, err := os.Open(auditPath)
	if err != nil {
		t.Fatalf("Open audit file error: %v", err)
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		count++
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan audit file error: %v", err)
	}
	if count != total {
		t.Fatalf("expected %d lines, got %d", total, count)
	}
}
