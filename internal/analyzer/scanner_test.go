package analyzer

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll error: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
}

func TestScanner_ScanCategorizesAndSkips(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "main.go", []byte("package main"))
	writeTestFile(t, root, "server/handler.go", []byte("package server"))
	writeTestFile(t, root, "server/handler_test.go", []byte("package server"))
	writeTestFile(t, root, "README.md", []byte("# readme"))
	writeTestFile(t, root, "config.yaml", []byte("a: 1"))
	writeTestFile(t, root, "logo.png", []byte{0x89, 0x50})
	writeTestFile(t, root, ".git/HEAD", []byte("ref: refs/heads/main"))
	writeTestFile(t, root, "node_modules/pkg/index.js", []byte("x"))
	writeTestFile(t, root, "big.go", bytes.Repeat([]byte("a"), maxFileBytes+1))

	scanner := NewScanner(0, 0)
	inv, err := scanner.Scan(root)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	got := make(map[string]string, len(inv.Files))
	for _, f := range inv.Files {
		got[f.Path] = f.Category
	}

	want := map[string]string{
		"main.go":                         CategoryCore,
		filepath.Join("server", "handler.go"):      CategoryCore,
		filepath.Join("server", "handler_test.go"): CategoryTests,
		"README.md":   CategoryDocs,
		"config.yaml": CategoryConfig,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d files, got %d: %v", len(want), len(got), got)
	}
	for path, category := range want {
		if got[path] != category {
			t.Errorf("expected %s in category %s, got %s", path, category, got[path])
		}
	}
}

func TestScanner_ScanRejectsNonDir(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "file.go", []byte("package x"))

	scanner := NewScanner(0, 0)
	if _, err := scanner.Scan(filepath.Join(root, "file.go")); err == nil {
		t.Fatal("expected error for non-directory root")
	}
	if _, err := scanner.Scan(filepath.Join(root, "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"internal/approval/store.go", CategoryCore},
		{"internal/approval/store_test.go", CategoryTests},
		{"test_utils.py", CategoryTests},
		{"settings/app.toml", CategoryConfig},
		{"Dockerfile", CategoryConfig},
		{"docs/guide.rst", CategoryDocs},
		{"CHANGELOG.txt", CategoryDocs},
		{"Makefile", CategoryBuild},
		{"deploy/stack.yaml", CategoryBuild},
		{"go.mod", CategoryBuild},
		{"assets/data.csv", CategoryOther},
	}
	for _, tt := range tests {
		if got := Categorize(tt.path); got != tt.want {
			t.Errorf("Categorize(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestScanner_ChunksSplitBySizeAndCount(t *testing.T) {
	inv := &Inventory{
		Files: []File{
			{Path: "a.go", Size: 40, Category: CategoryCore},
			{Path: "b.go", Size: 40, Category: CategoryCore},
			{Path: "c.go", Size: 40, Category: CategoryCore},
			{Path: "d_test.go", Size: 10, Category: CategoryTests},
		},
	}

	scanner := NewScanner(100, 20)
	chunks := scanner.Chunks(inv)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Files) != 2 || chunks[0].Bytes != 80 {
		t.Fatalf("unexpected first chunk: %+v", chunks[0])
	}
	if len(chunks[1].Files) != 1 || chunks[1].Files[0].Path != "c.go" {
		t.Fatalf("unexpected second chunk: %+v", chunks[1])
	}
	if chunks[2].Category != CategoryTests || chunks[2].Priority != 2 {
		t.Fatalf("unexpected test chunk: %+v", chunks[2])
	}
	if chunks[0].Priority != 1 {
		t.Fatalf("expected core priority 1, got %d", chunks[0].Priority)
	}
}

func TestScanner_ChunksSplitByFileCount(t *testing.T) {
	files := make([]File, 5)
	for i := range files {
		files[i] = File{Path: string(rune('a'+i)) + ".go", Size: 1, Category: CategoryCore}
	}

	scanner := NewScanner(1000, 2)
	chunks := scanner.Chunks(&Inventory{Files: files})
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Files) != 2 || len(chunks[2].Files) != 1 {
		t.Fatalf("unexpected chunk sizes: %d %d %d",
			len(chunks[0].Files), len(chunks[1].Files), len(chunks[2].Files))
	}
}

func TestScanner_ChunksEmptyInventory(t *testing.T) {
	scanner := NewScanner(0, 0)
	if chunks := scanner.Chunks(&Inventory{}); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestReadChunk(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "a.go", []byte("package a"))

	chunk := Chunk{Files: []File{
		{Path: "a.go", Size: 9},
		{Path: "gone.go", Size: 1},
	}}
	contents := ReadChunk(root, chunk)
	if len(contents) != 1 || contents["a.go"] != "package a" {
		t.Fatalf("unexpected contents: %v", contents)
	}
}
