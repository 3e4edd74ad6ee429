package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// ToolDirBuilder provides a fluent helper for constructing tool directories
// in tests. Example:
//
//	dir := NewToolDir(t).
//	  Script("greeter", "#!/bin/sh\necho hello\n").
//	  Sidecar("greeter", map[string]any{"tags": []string{"dev_tools"}}).
//	  Dir()
//
// Chain only the parts you need.
type ToolDirBuilder struct {
	t   *testing.T
	dir string
}

// NewToolDir creates a builder rooted at a fresh temp directory.
func NewToolDir(t *testing.T) *ToolDirBuilder {
	t.Helper()

	return &ToolDirBuilder{t: t, dir: t.TempDir()}
}

// Script writes an executable shell script named id (chainable).
func (b *ToolDirBuilder) Script(id, body string) *ToolDirBuilder {
	b.t.Helper()

	if err := os.WriteFile(filepath.Join(b.dir, id), []byte(body), 0o755); err != nil {
		b.t.Fatalf("write script %s: %v", id, err)
	}

	return b
}

// EchoScript writes a script named id that echoes output (chainable).
func (b *ToolDirBuilder) EchoScript(id, output string) *ToolDirBuilder {
	return b.Script(id, "#!/bin/sh\necho \""+output+"\"\n")
}

// Sidecar writes a JSON metadata sidecar for id (chainable).
func (b *ToolDirBuilder) Sidecar(id string, meta map[string]any) *ToolDirBuilder {
	b.t.Helper()

	data, err := json.Marshal(meta)
	if err != nil {
		b.t.Fatalf("marshal sidecar %s: %v", id, err)
	}

	if err := os.WriteFile(filepath.Join(b.dir, id+".json"), data, 0o644); err != nil {
		b.t.Fatalf("write sidecar %s: %v", id, err)
	}

	return b
}

// Dir returns the built directory path.
func (b *ToolDirBuilder) Dir() string { return b.dir }
