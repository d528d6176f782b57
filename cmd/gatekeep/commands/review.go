package commands

import (
	"fmt"
	"time"

	"github.com/sidegrid/gatekeep/internal/analyzer"
	"github.com/sidegrid/gatekeep/internal/approval"
	"github.com/sidegrid/gatekeep/internal/audit"
	"github.com/sidegrid/gatekeep/internal/config"
	"github.com/sidegrid/gatekeep/internal/notify"
	"github.com/sidegrid/gatekeep/internal/policy"
	"github.com/sidegrid/gatekeep/internal/provider"
	"github.com/sidegrid/gatekeep/internal/review"
	"github.com/sidegrid/gatekeep/internal/state"
	"github.com/spf13/cobra"
)

func NewReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review [path]",
		Short: "Review a repository and queue fixes for approval",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReview,
	}
}

func runReview(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	workspacePath, err := cfg.WorkspacePathChecked()
	if err != nil {
		return fmt.Errorf("invalid workspace: %w", err)
	}

	chatModel, err := provider.NewChatModel(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	notifier, err := notify.NewTelegram(cfg.Notify.Telegram)
	if err != nil {
		return err
	}

	runner := &review.Runner{
		Scanner:  analyzer.NewScanner(int64(cfg.Review.MaxChunkBytes), cfg.Review.MaxChunkFiles),
		Reviewer: review.NewReviewer(chatModel),
		Policy: policy.NewEvaluator(policy.Config{
			Mode:           policy.Mode(cfg.Policy.Mode),
			MinSeverity:    cfg.Policy.MinSeverity,
			DropCategories: cfg.Policy.DropCategories,
		}),
		Workflow: approval.New(approval.Config{
			Store:     approval.NewDirStore(workspacePath),
			Retention: time.Duration(cfg.Approvals.RetentionHours) * time.Hour,
		}),
		Audit:    audit.NewWriter(workspacePath),
		Notifier: notifier,
		State:    state.NewManager(workspacePath),
	}

	fmt.Printf("Reviewing %s ...\n", target)
	summary, err := runner.Run(cmd.Context(), target)
	if err != nil {
		return err
	}

	fmt.Printf("\nScanned %d files, reviewed %d across %d chunks",
		summary.FilesScanned, summary.FilesReviewed, summary.ChunksTotal)
	if summary.ChunksFailed > 0 {
		fmt.Printf(" (%d chunks failed)", summary.ChunksFailed)
	}
	fmt.Println()
	fmt.Printf("Fixes proposed: %d, dropped by policy: %d\n",
		summary.FixesProposed, summary.FixesDropped)

	if len(summary.Requests) == 0 {
		fmt.Println("Nothing to approve.")
		return nil
	}

	fmt.Printf("\nQueued %d approval request(s):\n", len(summary.Requests))
	for _, req := range summary.Requests {
		fmt.Printf("  %s  (%d fixes, quality %.1f -> %.1f)\n",
			req.ID, len(req.Fixes), req.QualityBefore, req.QualityAfter)
	}
	fmt.Println("\nRun 'gatekeep approval list' to inspect the queue.")
	return nil
}
