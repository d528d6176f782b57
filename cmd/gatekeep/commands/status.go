package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sidegrid/gatekeep/internal/approval"
	"github.com/sidegrid/gatekeep/internal/config"
	"github.com/sidegrid/gatekeep/internal/state"
	"github.com/spf13/cobra"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show Gatekeep configuration status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	workspacePath, err := cfg.WorkspacePathChecked()
	if err != nil {
		return fmt.Errorf("invalid workspace: %w", err)
	}

	fmt.Println("=== Gatekeep Status ===")
	fmt.Println()

	fmt.Printf("Config: %s\n", config.ConfigPath())
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		fmt.Println("  Status: OK")
	} else {
		fmt.Println("  Status: Not found (run 'gatekeep init')")
	}

	fmt.Printf("\nWorkspace: %s\n", workspacePath)
	if _, err := os.Stat(workspacePath); err == nil {
		fmt.Println("  Status: OK")
	} else {
		fmt.Println("  Status: Not found")
	}
	workspaceMode := strings.TrimSpace(cfg.Review.WorkspaceMode)
	if workspaceMode == "" {
		workspaceMode = "default"
	}
	fmt.Printf("  Mode: %s\n", workspaceMode)

	fmt.Printf("\nModel: %s\n", cfg.Review.Model)

	fmt.Println("\nProviders:")
	providers := map[string]string{
		"OpenRouter": cfg.Providers.OpenRouter.APIKey,
		"Claude":     cfg.Providers.Claude.APIKey,
		"OpenAI":     cfg.Providers.OpenAI.APIKey,
		"DeepSeek":   cfg.Providers.DeepSeek.APIKey,
		"Ollama":     cfg.Providers.Ollama.BaseURL,
	}
	for name, key := range providers {
		status := "Not configured"
		if key != "" {
			status = "Configured"
		}
		fmt.Printf("  %s: %s\n", name, status)
	}

	fmt.Println("\nPolicy:")
	fmt.Printf("  Mode: %s\n", cfg.Policy.Mode)
	fmt.Printf("  Min severity: %s\n", cfg.Policy.MinSeverity)
	if len(cfg.Policy.DropCategories) > 0 {
		fmt.Printf("  Drop categories: %s\n", strings.Join(cfg.Policy.DropCategories, ", "))
	}

	fmt.Println("\nApprovals:")
	fmt.Printf("  Retention: %dh\n", cfg.Approvals.RetentionHours)
	wf := approval.New(approval.Config{
		Store:     approval.NewDirStore(workspacePath),
		Retention: time.Duration(cfg.Approvals.RetentionHours) * time.Hour,
	})
	if all, err := wf.List(approval.Query{}); err == nil {
		counts := map[approval.State]int{}
		for _, req := range all {
			counts[req.State]++
		}
		fmt.Printf("  Queue: %d total (%d pending, %d approved, %d denied, %d expired)\n",
			len(all),
			counts[approval.StatePending],
			counts[approval.StateApproved],
			counts[approval.StateDenied],
			counts[approval.StateExpired],
		)
	} else {
		fmt.Println("  Queue: unavailable")
	}

	fmt.Println("\nNotify:")
	telegramStatus := "disabled"
	if cfg.Notify.Telegram.Enabled {
		telegramStatus = "enabled"
	}
	fmt.Printf("  Telegram: %s\n", telegramStatus)

	fmt.Println("\nLast run:")
	lastRun, err := state.NewManager(workspacePath).LoadLastRun()
	if err != nil || lastRun.StartedAt.IsZero() {
		fmt.Println("  None recorded")
		return nil
	}
	fmt.Printf("  Target: %s\n", lastRun.Target)
	fmt.Printf("  Started: %s\n", lastRun.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Files: %d scanned, %d reviewed\n", lastRun.FilesScanned, lastRun.FilesReviewed)
	fmt.Printf("  Fixes: %d proposed, %d dropped\n", lastRun.FixesProposed, lastRun.FixesDropped)
	fmt.Printf("  Requests created: %d\n", lastRun.RequestsCreated)

	return nil
}
