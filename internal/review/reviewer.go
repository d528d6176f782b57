// Package review runs LLM code review over file chunks and turns the model
// output into structured fix proposals.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sidegrid/gatekeep/internal/approval"
	"github.com/sidegrid/gatekeep/internal/render"
)

const systemPrompt = `You are a senior code reviewer. You are given a set of files from one repository.

Review the files and respond with a single JSON object, no prose before or after:

{
  "quality_before": <integer 0-10, current quality of these files>,
  "quality_after": <integer 0-10, expected quality if all fixes are applied>,
  "fixes": [
    {
      "description": "<one sentence, what to change and where>",
      "category": "<bug|security|performance|style|maintainability>",
      "severity": "<low|medium|high>",
      "before": "<the problematic snippet, verbatim>",
      "after": "<the corrected snippet>"
    }
  ]
}

Only propose fixes you are confident about. An empty "fixes" array is a valid answer.`

// Result is the parsed outcome of reviewing one chunk.
type Result struct {
	QualityBefore float64        `json:"quality_before"`
	QualityAfter  float64        `json:"quality_after"`
	Fixes         []approval.Fix `json:"fixes"`
}

// Reviewer sends file chunks to a chat model and parses fix proposals.
type Reviewer struct {
	model model.ChatModel
}

func NewReviewer(chatModel model.ChatModel) *Reviewer {
	return &Reviewer{model: chatModel}
}

// Review submits one chunk of files and returns the parsed proposals.
func (r *Reviewer) Review(ctx context.Context, category string, files map[string]string) (*Result, error) {
	if r.model == nil {
		return nil, fmt.Errorf("no chat model configured")
	}
	if len(files) == 0 {
		return &Result{}, nil
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: buildChunkPrompt(category, files)},
	}

	resp, err := r.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("review generate: %w", err)
	}

	result, err := parseResult(resp.Content)
	if err != nil {
		slog.Warn("unparseable review response", "category", category, "error", err)
		return nil, err
	}
	return result, nil
}

func buildChunkPrompt(category string, files map[string]string) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Category: %s\nFiles: %d\n", category, len(paths))
	for _, p := range paths {
		fmt.Fprintf(&sb, "\n--- %s ---\n%s\n", p, files[p])
	}
	return sb.String()
}

// parseResult extracts the JSON review payload from the model output.
// Reasoning models may wrap the answer in a <think> block or a code fence.
func parseResult(content string) (*Result, error) {
	_, content, _ = render.SplitThink(content)
	content = stripCodeFence(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in review response")
	}

	var result Result
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("parse review response: %w", err)
	}

	result.QualityBefore = clampQuality(result.QualityBefore)
	result.QualityAfter = clampQuality(result.QualityAfter)
	fixes := result.Fixes[:0]
	for _, fix := range result.Fixes {
		if strings.TrimSpace(fix.Description) == "" {
			continue
		}
		fix.Category = strings.ToLower(strings.TrimSpace(fix.Category))
		fix.Severity = strings.ToLower(strings.TrimSpace(fix.Severity))
		fixes = append(fixes, fix)
	}
	result.Fixes = fixes
	return &result, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func clampQuality(q float64) float64 {
	if q < approval.MinQuality {
		return approval.MinQuality
	}
	if q > approval.MaxQuality {
		return approval.MaxQuality
	}
	return q
}
