package render

import (
	"strings"
	"testing"
	"time"

	"github.com/sidegrid/gatekeep/internal/approval"
)

func TestRequestMarkdown(t *testing.T) {
	createdAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	decidedAt := createdAt.Add(time.Hour)
	req := approval.Request{
		ID:     "20260310T120000-abcd1234",
		Target: "/repos/service",
		Fixes: []approval.Fix{
			{
				Description: "Close the response body",
				Category:    "bug",
				Severity:    "high",
				Before:      "resp, _ := client.Do(req)",
				After:       "resp, err := client.Do(req)\ndefer resp.Body.Close()",
			},
			{Description: "Rename shadowed variable", Category: "style", Severity: "low"},
		},
		QualityBefore: 5,
		QualityAfter:  8,
		State:         approval.StateApproved,
		CreatedAt:     createdAt,
		DecidedAt:     &decidedAt,
		DecidedBy:     "dana",
	}

	md := RequestMarkdown(req)
	for _, want := range []string{
		"# Review 20260310T120000-abcd1234",
		"`/repos/service`",
		"5.0 → 8.0 (+3.0)",
		"## Proposed fixes (2)",
		"### 1. Close the response body",
		"*bug / high*",
		"defer resp.Body.Close()",
		"### 2. Rename shadowed variable",
		"by dana",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestRequestMarkdown_PendingHasNoDecision(t *testing.T) {
	req := approval.Request{
		ID:        "20260310T120000-abcd1234",
		Target:    "/repos/service",
		Fixes:     []approval.Fix{{Description: "x"}},
		State:     approval.StatePending,
		CreatedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	md := RequestMarkdown(req)
	if strings.Contains(md, "**Decided:**") {
		t.Fatalf("pending request should not render a decision line:\n%s", md)
	}
}
