// Package analyzer discovers and groups repository files for review.
package analyzer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File categories in review priority order.
const (
	CategoryCore   = "core"
	CategoryTests  = "tests"
	CategoryConfig = "config"
	CategoryDocs   = "docs"
	CategoryBuild  = "build"
	CategoryOther  = "other"
)

const maxFileBytes = 1024 * 1024

// File is a single discovered file, with its path relative to the scan root.
type File struct {
	Path     string
	Size     int64
	Category string
}

// Chunk groups files of one category so a review fits inside a model context.
type Chunk struct {
	Files    []File
	Bytes    int64
	Category string
	Priority int
}

// Inventory is the result of scanning a repository.
type Inventory struct {
	Root  string
	Files []File
}

// Scanner walks a repository tree, skipping binaries, oversized files and
// well-known generated directories.
type Scanner struct {
	maxChunkBytes int64
	maxChunkFiles int
}

func NewScanner(maxChunkBytes int64, maxChunkFiles int) *Scanner {
	if maxChunkBytes <= 0 {
		maxChunkBytes = 50000
	}
	if maxChunkFiles <= 0 {
		maxChunkFiles = 20
	}
	return &Scanner{maxChunkBytes: maxChunkBytes, maxChunkFiles: maxChunkFiles}
}

var ignoredDirs = map[string]bool{
	".git":          true,
	"__pycache__":   true,
	"node_modules":  true,
	".pytest_cache": true,
	"venv":          true,
	"env":           true,
	".venv":         true,
	"dist":          true,
	"build":         true,
	".cache":        true,
	"vendor":        true,
	".idea":         true,
}

var binaryExtensions = map[string]bool{
	".pyc": true, ".so": true, ".dll": true, ".exe": true, ".bin": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".pdf": true,
	".zip": true, ".gz": true, ".tar": true, ".ico": true, ".woff": true,
	".woff2": true,
}

var codeExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".tsx": true, ".jsx": true,
	".java": true, ".go": true, ".rs": true, ".rb": true, ".php": true,
	".cpp": true, ".cc": true, ".c": true, ".h": true, ".hpp": true,
	".cs": true, ".kt": true, ".swift": true,
}

// Scan walks root and returns the categorized file inventory.
func (s *Scanner) Scan(root string) (*Inventory, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", absRoot)
	}

	inv := &Inventory{Root: absRoot}
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != absRoot && ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if skipFile(path, fi.Size()) {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		inv.Files = append(inv.Files, File{
			Path:     rel,
			Size:     fi.Size(),
			Category: Categorize(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	sort.Slice(inv.Files, func(i, j int) bool {
		return inv.Files[i].Path < inv.Files[j].Path
	})
	return inv, nil
}

func skipFile(path string, size int64) bool {
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	return size > maxFileBytes
}

// Categorize maps a relative file path onto one of the review categories.
func Categorize(relPath string) string {
	lower := strings.ToLower(filepath.ToSlash(relPath))
	base := filepath.Base(lower)

	if strings.Contains(lower, "test") || strings.HasPrefix(base, "test_") {
		return CategoryTests
	}
	for _, p := range []string{"config", "settings", ".env", "requirements", "package.json", "dockerfile"} {
		if strings.Contains(lower, p) {
			return CategoryConfig
		}
	}
	for _, p := range []string{"readme", "doc", ".md", ".rst", ".txt", "license"} {
		if strings.Contains(lower, p) {
			return CategoryDocs
		}
	}
	for _, p := range []string{"makefile", "setup.py", ".yml", ".yaml", "build", "deploy", ".mod", ".sum"} {
		if strings.Contains(lower, p) {
			return CategoryBuild
		}
	}
	if codeExtensions[filepath.Ext(lower)] {
		return CategoryCore
	}
	return CategoryOther
}

// categoryPriority orders chunks so core source is reviewed before the rest.
var categoryPriority = []string{
	CategoryCore, CategoryTests, CategoryConfig,
	CategoryDocs, CategoryBuild, CategoryOther,
}

// Chunks groups the inventory into size-bounded chunks, one category at a
// time in priority order.
func (s *Scanner) Chunks(inv *Inventory) []Chunk {
	byCategory := make(map[string][]File)
	for _, f := range inv.Files {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}

	var chunks []Chunk
	for i, category := range categoryPriority {
		files := byCategory[category]
		if len(files) == 0 {
			continue
		}
		chunks = append(chunks, s.split(files, category, i+1)...)
	}
	return chunks
}

func (s *Scanner) split(files []File, category string, priority int) []Chunk {
	var chunks []Chunk
	var current []File
	var currentBytes int64

	for _, f := range files {
		if len(current) > 0 && (currentBytes+f.Size > s.maxChunkBytes || len(current) >= s.maxChunkFiles) {
			chunks = append(chunks, Chunk{
				Files:    current,
				Bytes:    currentBytes,
				Category: category,
				Priority: priority,
			})
			current = nil
			currentBytes = 0
		}
		current = append(current, f)
		currentBytes += f.Size
	}
	if len(current) > 0 {
		chunks = append(chunks, Chunk{
			Files:    current,
			Bytes:    currentBytes,
			Category: category,
			Priority: priority,
		})
	}
	return chunks
}

// ReadChunk loads the chunk's file contents relative to the inventory root.
// Files that disappear between scan and read are silently dropped.
func ReadChunk(root string, chunk Chunk) map[string]string {
	contents := make(map[string]string, len(chunk.Files))
	for _, f := range chunk.Files {
		data, err := os.ReadFile(filepath.Join(root, f.Path))
		if err != nil {
			continue
		}
		contents[f.Path] = string(data)
	}
	return contents
}
