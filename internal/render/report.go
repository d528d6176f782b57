package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/sidegrid/gatekeep/internal/approval"
)

// RequestMarkdown builds the markdown detail view for one approval request.
func RequestMarkdown(req approval.Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Review %s\n\n", req.ID)
	fmt.Fprintf(&sb, "**Target:** `%s`  \n", req.Target)
	fmt.Fprintf(&sb, "**State:** %s  \n", req.State)
	fmt.Fprintf(&sb, "**Quality:** %.1f → %.1f (%+.1f)  \n",
		req.QualityBefore, req.QualityAfter, req.QualityDelta())
	fmt.Fprintf(&sb, "**Created:** %s  \n", req.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if req.DecidedAt != nil {
		fmt.Fprintf(&sb, "**Decided:** %s by %s  \n",
			req.DecidedAt.Format("2006-01-02 15:04:05 MST"), req.DecidedBy)
	}

	fmt.Fprintf(&sb, "\n## Proposed fixes (%d)\n", len(req.Fixes))
	for i, fix := range req.Fixes {
		fmt.Fprintf(&sb, "\n### %d. %s\n\n", i+1, fix.Description)
		fmt.Fprintf(&sb, "*%s / %s*\n", fix.Category, fix.Severity)
		if fix.Before != "" {
			fmt.Fprintf(&sb, "\nBefore:\n\n```\n%s\n```\n", fix.Before)
		}
		if fix.After != "" {
			fmt.Fprintf(&sb, "\nAfter:\n\n```\n%s\n```\n", fix.After)
		}
	}

	return sb.String()
}

// Markdown renders markdown for the terminal, falling back to the raw text
// when the renderer is unavailable.
func Markdown(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
