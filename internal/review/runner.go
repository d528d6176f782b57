package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sidegrid/gatekeep/internal/analyzer"
	"github.com/sidegrid/gatekeep/internal/approval"
	"github.com/sidegrid/gatekeep/internal/audit"
	"github.com/sidegrid/gatekeep/internal/notify"
	"github.com/sidegrid/gatekeep/internal/policy"
	"github.com/sidegrid/gatekeep/internal/state"
)

// chunkReviewer lets tests drive the run with a scripted model.
type chunkReviewer interface {
	Review(ctx context.Context, category string, files map[string]string) (*Result, error)
}

// Runner drives a full review: scan the target, review each chunk, filter
// the proposals through policy and queue the survivors for approval.
type Runner struct {
	Scanner  *analyzer.Scanner
	Reviewer chunkReviewer
	Policy   policy.Evaluator
	Workflow *approval.Workflow
	Audit    *audit.Writer
	Notifier *notify.Notifier
	State    *state.Manager
	Now      func() time.Time
}

// Summary reports what one run did.
type Summary struct {
	Target        string
	FilesScanned  int
	FilesReviewed int
	ChunksTotal   int
	ChunksFailed  int
	FixesProposed int
	FixesDropped  int
	Requests      []approval.Request
}

// Run reviews target and returns the run summary. Individual chunk failures
// are logged and skipped so one bad model response does not abort the run.
func (r *Runner) Run(ctx context.Context, target string) (*Summary, error) {
	startedAt := r.now()

	inv, err := r.Scanner.Scan(target)
	if err != nil {
		return nil, fmt.Errorf("scan target: %w", err)
	}
	chunks := r.Scanner.Chunks(inv)

	summary := &Summary{
		Target:       inv.Root,
		FilesScanned: len(inv.Files),
		ChunksTotal:  len(chunks),
	}

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		contents := analyzer.ReadChunk(inv.Root, chunk)
		result, err := r.Reviewer.Review(ctx, chunk.Category, contents)
		if err != nil {
			slog.Warn("chunk review failed", "category", chunk.Category, "files", len(chunk.Files), "error", err)
			summary.ChunksFailed++
			continue
		}
		summary.FilesReviewed += len(chunk.Files)

		kept := r.filterFixes(result.Fixes, summary)
		if len(kept) == 0 {
			continue
		}

		req, err := r.Workflow.Request(approval.Proposal{
			Target:        inv.Root,
			Fixes:         kept,
			QualityBefore: result.QualityBefore,
			QualityAfter:  result.QualityAfter,
		})
		if err != nil {
			return nil, fmt.Errorf("queue approval request: %w", err)
		}
		summary.Requests = append(summary.Requests, req)

		if r.Audit != nil {
			if err := r.Audit.Append(audit.Event{
				Time:      r.now(),
				Action:    audit.ActionRequested,
				RequestID: req.ID,
				Target:    req.Target,
				Detail:    fmt.Sprintf("%d fixes, category %s", len(req.Fixes), chunk.Category),
			}); err != nil {
				slog.Warn("audit append failed", "request", req.ID, "error", err)
			}
		}
		r.Notifier.RequestCreated(req)
	}

	if r.State != nil {
		if err := r.State.SaveLastRun(state.LastRun{
			Target:          summary.Target,
			StartedAt:       startedAt,
			FilesScanned:    summary.FilesScanned,
			FilesReviewed:   summary.FilesReviewed,
			RequestsCreated: len(summary.Requests),
			FixesProposed:   summary.FixesProposed,
			FixesDropped:    summary.FixesDropped,
		}); err != nil {
			slog.Warn("persist run summary failed", "error", err)
		}
	}

	return summary, nil
}

func (r *Runner) filterFixes(fixes []approval.Fix, summary *Summary) []approval.Fix {
	kept := make([]approval.Fix, 0, len(fixes))
	for _, fix := range fixes {
		summary.FixesProposed++
		decision := r.Policy.Evaluate(policy.Input{Category: fix.Category, Severity: fix.Severity})
		if decision.Action == policy.ActionDrop {
			slog.Debug("fix dropped by policy", "reason", decision.Reason, "description", fix.Description)
			summary.FixesDropped++
			continue
		}
		kept = append(kept, fix)
	}
	return kept
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
