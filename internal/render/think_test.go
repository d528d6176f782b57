package render

import "testing"

func TestSplitThink(t *testing.T) {
	think, resp, found := SplitThink("<think>weighing options</think>final answer")
	if !found {
		t.Fatal("expected think block to be found")
	}
	if think != "weighing options" {
		t.Fatalf("unexpected think content: %q", think)
	}
	if resp != "final answer" {
		t.Fatalf("unexpected response: %q", resp)
	}
}

func TestSplitThink_NoBlock(t *testing.T) {
	think, resp, found := SplitThink("plain answer")
	if found || think != "" {
		t.Fatalf("expected no think block, got %q", think)
	}
	if resp != "plain answer" {
		t.Fatalf("unexpected response: %q", resp)
	}
}

func TestSplitThink_Multiline(t *testing.T) {
	input := "<think>line one\nline two</think>\n{\"fixes\": []}"
	think, resp, found := SplitThink(input)
	if !found {
		t.Fatal("expected think block to be found")
	}
	if think != "line one\nline two" {
		t.Fatalf("unexpected think content: %q", think)
	}
	if resp != `{"fixes": []}` {
		t.Fatalf("unexpected response: %q", resp)
	}
}
