package commands

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os/user"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sidegrid/gatekeep/internal/approval"
	"github.com/sidegrid/gatekeep/internal/audit"
	"github.com/sidegrid/gatekeep/internal/config"
	"github.com/sidegrid/gatekeep/internal/render"
)

func NewApprovalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approval",
		Short: "Manage the approval queue",
	}

	cmd.AddCommand(
		newApprovalListCmd(),
		newApprovalShowCmd(),
		newApprovalReviewCmd(),
		newApprovalApproveCmd(),
		newApprovalDenyCmd(),
		newApprovalExpireCmd(),
		newApprovalPruneCmd(),
	)

	return cmd
}

func newApprovalListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending approval requests",
		RunE:  runApprovalList,
	}
	cmd.Flags().Bool("all", false, "Include decided and expired requests")
	return cmd
}

func newApprovalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full fix set of a request",
		Args:  cobra.ExactArgs(1),
		RunE:  runApprovalShow,
	}
}

func newApprovalReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Interactively review a pending request",
		Args:  cobra.ExactArgs(1),
		RunE:  runApprovalReview,
	}
	cmd.Flags().String("by", "", "Decision maker (defaults to the current user)")
	return cmd
}

func newApprovalApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending request",
		Args:  cobra.ExactArgs(1),
		RunE:  runApprovalApprove,
	}
	cmd.Flags().String("by", "", "Decision maker")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func newApprovalDenyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deny <id>",
		Short: "Deny a pending request",
		Args:  cobra.ExactArgs(1),
		RunE:  runApprovalDeny,
	}
	cmd.Flags().String("by", "", "Decision maker")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}

func newApprovalExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Persist expiry for aged-out pending requests",
		RunE:  runApprovalExpire,
	}
}

func newApprovalPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete decided and expired requests",
		RunE:  runApprovalPrune,
	}
}

func runApprovalList(cmd *cobra.Command, args []string) error {
	wf, _, err := loadApprovalWorkflow()
	if err != nil {
		return err
	}

	all := false
	if cmd != nil {
		all, _ = cmd.Flags().GetBool("all")
	}

	var requests []approval.Request
	if all {
		requests, err = wf.List(approval.Query{})
	} else {
		requests, err = wf.ListPending()
	}
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		if all {
			fmt.Println("No approval requests.")
		} else {
			fmt.Println("No pending approvals.")
		}
		return nil
	}

	renderApprovalTable(requests)
	return nil
}

func renderApprovalTable(requests []approval.Request) {
	var (
		headerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#8E4EC6")). // Purple
				Padding(0, 1).
				MarginBottom(1)

		wID      = 26
		wTarget  = 30
		wFixes   = 6
		wQuality = 12
		wState   = 9

		colHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8E4EC6")).
				Bold(true).
				MarginRight(1)

		idStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(wID).
			MarginRight(1)

		targetStyle = lipgloss.NewStyle().
				Width(wTarget).
				MarginRight(1)

		fixesStyle = lipgloss.NewStyle().
				Width(wFixes).
				MarginRight(1)

		qualityStyle = lipgloss.NewStyle().
				Width(wQuality).
				MarginRight(1)

		stateStyleBase = lipgloss.NewStyle().
				Width(wState).
				MarginRight(1)

		pendingColor  = lipgloss.Color("#E5C07B") // Amber
		approvedColor = lipgloss.Color("#2E8B57") // SeaGreen
		deniedColor   = lipgloss.Color("#E06C75") // Red
		expiredColor  = lipgloss.Color("241")     // Dark Gray
	)

	fmt.Println(headerStyle.Render("Approval Queue"))

	headers := lipgloss.JoinHorizontal(lipgloss.Top,
		colHeaderStyle.Width(wID).Render("ID"),
		colHeaderStyle.Width(wTarget).Render("TARGET"),
		colHeaderStyle.Width(wFixes).Render("FIXES"),
		colHeaderStyle.Width(wQuality).Render("QUALITY"),
		colHeaderStyle.Width(wState).Render("STATE"),
	)
	fmt.Printf("  %s\n", headers)

	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1)
	separator := lipgloss.JoinHorizontal(lipgloss.Top,
		sepStyle.Render(strings.Repeat("─", wID)),
		sepStyle.Render(strings.Repeat("─", wTarget)),
		sepStyle.Render(strings.Repeat("─", wFixes)),
		sepStyle.Render(strings.Repeat("─", wQuality)),
		sepStyle.Render(strings.Repeat("─", wState)),
	)
	fmt.Printf("  %s\n", separator)

	for _, req := range requests {
		sColor := pendingColor
		switch req.State {
		case approval.StateApproved:
			sColor = approvedColor
		case approval.StateDenied:
			sColor = deniedColor
		case approval.StateExpired:
			sColor = expiredColor
		}

		row := lipgloss.JoinHorizontal(lipgloss.Top,
			idStyle.Render(req.ID),
			targetStyle.Render(truncate(req.Target, wTarget)),
			fixesStyle.Render(fmt.Sprintf("%d", len(req.Fixes))),
			qualityStyle.Render(fmt.Sprintf("%.1f -> %.1f", req.QualityBefore, req.QualityAfter)),
			stateStyleBase.Foreground(sColor).Render(string(req.State)),
		)
		fmt.Printf("  %s\n", row)
	}

	fmt.Println()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func runApprovalShow(cmd *cobra.Command, args []string) error {
	wf, _, err := loadApprovalWorkflow()
	if err != nil {
		return err
	}

	req, err := wf.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Print(render.Markdown(render.RequestMarkdown(req)))
	return nil
}

func runApprovalReview(cmd *cobra.Command, args []string) error {
	wf, workspacePath, err := loadApprovalWorkflow()
	if err != nil {
		return err
	}

	req, err := wf.Get(args[0])
	if err != nil {
		return err
	}
	if req.State != approval.StatePending {
		return fmt.Errorf("request %s is %s, nothing to review", req.ID, req.State)
	}

	actor := decisionActor(cmd)

	fmt.Printf("Review %s\n", req.ID)
	fmt.Printf("Target: %s\n", req.Target)
	fmt.Printf("Quality: %.1f -> %.1f\n", req.QualityBefore, req.QualityAfter)
	fmt.Printf("Fixes: %d\n", len(req.Fixes))
	for i, fix := range req.Fixes {
		if i >= 5 {
			fmt.Printf("  ... and %d more\n", len(req.Fixes)-i)
			break
		}
		fmt.Printf("  %d. %s\n", i+1, fix.Description)
	}

	reader := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Print("\n[y]es / [n]o / [d]etails / [s]kip: ")
		if !reader.Scan() {
			fmt.Println("\nReview cancelled, request stays pending.")
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(reader.Text())) {
		case "y", "yes":
			return applyDecision(wf, workspacePath, req.ID, actor, true)
		case "n", "no":
			return applyDecision(wf, workspacePath, req.ID, actor, false)
		case "d", "details":
			fmt.Print(render.Markdown(render.RequestMarkdown(req)))
		case "s", "skip":
			fmt.Println("Request left pending for later review.")
			return nil
		default:
			fmt.Println("Please enter 'y' (yes), 'n' (no), 'd' (details), or 's' (skip)")
		}
	}
}

func runApprovalApprove(cmd *cobra.Command, args []string) error {
	return runApprovalDecision(cmd, args[0], true)
}

func runApprovalDeny(cmd *cobra.Command, args []string) error {
	return runApprovalDecision(cmd, args[0], false)
}

func runApprovalDecision(cmd *cobra.Command, id string, approve bool) error {
	wf, workspacePath, err := loadApprovalWorkflow()
	if err != nil {
		return err
	}

	by, _ := cmd.Flags().GetString("by")
	if strings.TrimSpace(by) == "" {
		return fmt.Errorf("--by is required")
	}

	return applyDecision(wf, workspacePath, id, strings.TrimSpace(by), approve)
}

func applyDecision(wf *approval.Workflow, workspacePath, id, actor string, approve bool) error {
	var (
		req    approval.Request
		err    error
		action string
		verb   string
	)
	if approve {
		req, err = wf.Approve(id, actor)
		action, verb = audit.ActionApproved, "approved"
	} else {
		req, err = wf.Deny(id, actor)
		action, verb = audit.ActionDenied, "denied"
	}
	if err != nil {
		if errors.Is(err, approval.ErrAlreadyExpired) {
			fmt.Printf("Request %s expired before a decision was made.\n", id)
		}
		return err
	}

	if err := audit.NewWriter(workspacePath).Append(audit.Event{
		Time:      time.Now().UTC(),
		Action:    action,
		RequestID: req.ID,
		Target:    req.Target,
		Actor:     actor,
	}); err != nil {
		slog.Warn("audit append failed", "request", req.ID, "error", err)
	}

	fmt.Printf("Request %s %s by %s.\n", req.ID, verb, actor)
	return nil
}

func runApprovalExpire(cmd *cobra.Command, args []string) error {
	wf, workspacePath, err := loadApprovalWorkflow()
	if err != nil {
		return err
	}

	expired, err := wf.ExpirePending()
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		fmt.Println("No pending requests past retention.")
		return nil
	}

	writer := audit.NewWriter(workspacePath)
	for _, req := range expired {
		if err := writer.Append(audit.Event{
			Time:      time.Now().UTC(),
			Action:    audit.ActionExpired,
			RequestID: req.ID,
			Target:    req.Target,
			Actor:     "system",
		}); err != nil {
			slog.Warn("audit append failed", "request", req.ID, "error", err)
		}
		fmt.Printf("Expired %s\n", req.ID)
	}
	fmt.Printf("%d request(s) expired.\n", len(expired))
	return nil
}

func runApprovalPrune(cmd *cobra.Command, args []string) error {
	wf, workspacePath, err := loadApprovalWorkflow()
	if err != nil {
		return err
	}

	pruned, err := wf.Prune()
	if err != nil {
		return err
	}
	if len(pruned) == 0 {
		fmt.Println("Nothing to prune.")
		return nil
	}

	writer := audit.NewWriter(workspacePath)
	for _, req := range pruned {
		if err := writer.Append(audit.Event{
			Time:      time.Now().UTC(),
			Action:    audit.ActionPruned,
			RequestID: req.ID,
			Target:    req.Target,
			Actor:     "system",
		}); err != nil {
			slog.Warn("audit append failed", "request", req.ID, "error", err)
		}
	}
	fmt.Printf("Pruned %d request(s).\n", len(pruned))
	return nil
}

func decisionActor(cmd *cobra.Command) string {
	if cmd != nil {
		if by, _ := cmd.Flags().GetString("by"); strings.TrimSpace(by) != "" {
			return strings.TrimSpace(by)
		}
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "operator"
}

func loadApprovalWorkflow() (*approval.Workflow, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	workspacePath, err := cfg.WorkspacePathChecked()
	if err != nil {
		return nil, "", fmt.Errorf("invalid workspace: %w", err)
	}
	wf := approval.New(approval.Config{
		Store:     approval.NewDirStore(workspacePath),
		Retention: time.Duration(cfg.Approvals.RetentionHours) * time.Hour,
	})
	return wf, workspacePath, nil
}
