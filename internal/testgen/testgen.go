// Package testgen builds EPUB fixtures with configurable metadata and
// structure for package tests.
package testgen

import (
	"os"
	"path/filepath"
	"testing"
)

// ChapterOptions describes one generated spine entry.
type ChapterOptions struct {
	// Title is written into <title>. Leave empty to omit the element.
	Title string
	// Body is inserted verbatim into <body>.
	Body string
}

// EPUBOptions configures the generated EPUB file. The zero value produces a
// valid one-chapter book without metadata.
type EPUBOptions struct {
	Title        string
	Authors      []string
	Contributors []string
	Language     string
	Identifier   string
	Description  string
	Subjects     []string
	Chapters     []ChapterOptions

	// PackagePath is where the OPF is written, defaults to OEBPS/content.opf.
	PackagePath string
	// OmitContainer leaves out META-INF/container.xml.
	OmitContainer bool
	// NoDCNamespace writes metadata elements without the dc: prefix or
	// namespace declaration.
	NoDCNamespace bool
	// MissingSpineFile references a spine entry whose file isn't in the
	// archive.
	MissingSpineFile bool
	// UnknownSpineRef adds an itemref whose idref isn't in the manifest.
	UnknownSpineRef bool
}

// TempDir creates a temporary directory for testing and registers cleanup.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// WriteFile creates a file with the given content in the specified directory.
// Returns the full path to the created file.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// StringPtr is a helper to create a pointer to a string.
func StringPtr(s string) *string {
	return &s
}
