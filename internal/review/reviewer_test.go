package review

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type scriptedModel struct {
	content  string
	err      error
	lastMsgs []*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.lastMsgs = input
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.content}, nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func (m *scriptedModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

const reviewJSON = `{
  "quality_before": 5,
  "quality_after": 8,
  "fixes": [
    {
      "description": "Close the response body",
      "category": "Bug",
      "severity": "HIGH",
      "before": "resp, _ := client.Do(req)",
      "after": "defer resp.Body.Close()"
    },
    {"description": "  ", "category": "style", "severity": "low"}
  ]
}`

func TestReviewer_ReviewParsesProposals(t *testing.T) {
	chatModel := &scriptedModel{content: reviewJSON}
	reviewer := NewReviewer(chatModel)

	result, err := reviewer.Review(context.Background(), "core", map[string]string{
		"handler.go": "package server",
	})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if result.QualityBefore != 5 || result.QualityAfter != 8 {
		t.Fatalf("unexpected quality scores: %+v", result)
	}
	if len(result.Fixes) != 1 {
		t.Fatalf("expected 1 fix after filtering, got %d", len(result.Fixes))
	}
	fix := result.Fixes[0]
	if fix.Category != "bug" || fix.Severity != "high" {
		t.Fatalf("expected normalized category/severity, got %+v", fix)
	}

	if len(chatModel.lastMsgs) != 2 {
		t.Fatalf("expected system + user message, got %d", len(chatModel.lastMsgs))
	}
	if chatModel.lastMsgs[0].Role != schema.System {
		t.Fatalf("expected first message to be system, got %s", chatModel.lastMsgs[0].Role)
	}
}

func TestReviewer_ReviewEmptyChunk(t *testing.T) {
	reviewer := NewReviewer(&scriptedModel{content: "unused"})
	result, err := reviewer.Review(context.Background(), "core", nil)
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if len(result.Fixes) != 0 {
		t.Fatalf("expected no fixes, got %d", len(result.Fixes))
	}
}

func TestReviewer_ReviewModelError(t *testing.T) {
	reviewer := NewReviewer(&scriptedModel{err: errors.New("rate limited")})
	if _, err := reviewer.Review(context.Background(), "core", map[string]string{"a.go": "x"}); err == nil {
		t.Fatal("expected error from model failure")
	}
}

func TestReviewer_ReviewNoModel(t *testing.T) {
	reviewer := NewReviewer(nil)
	if _, err := reviewer.Review(context.Background(), "core", map[string]string{"a.go": "x"}); err == nil {
		t.Fatal("expected error when no model is configured")
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		fixes   int
	}{
		{"plain json", reviewJSON, false, 1},
		{"fenced json", "```json\n" + reviewJSON + "\n```", false, 1},
		{"think block", "<think>hmm</think>" + reviewJSON, false, 1},
		{"prose around json", "Here is my review:\n" + reviewJSON + "\nDone.", false, 1},
		{"empty fixes", `{"quality_before": 7, "quality_after": 7, "fixes": []}`, false, 0},
		{"no json", "looks fine to me", true, 0},
		{"broken json", `{"fixes": [}`, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseResult(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResult error: %v", err)
			}
			if len(result.Fixes) != tt.fixes {
				t.Fatalf("expected %d fixes, got %d", tt.fixes, len(result.Fixes))
			}
		})
	}
}

func TestParseResult_ClampsQuality(t *testing.T) {
	result, err := parseResult(`{"quality_before": -3, "quality_after": 14, "fixes": []}`)
	if err != nil {
		t.Fatalf("parseResult error: %v", err)
	}
	if result.QualityBefore != 0 || result.QualityAfter != 10 {
		t.Fatalf("expected clamped scores 0/10, got %g/%g", result.QualityBefore, result.QualityAfter)
	}
}
