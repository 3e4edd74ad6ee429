package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hupe1980/toolmesh/logging"
)

// packagedSuffix is stripped from packaged tool directory names to form the ID.
const packagedSuffix = "-mcp"

// buildManifests mark a sub-directory as a packaged tool.
var buildManifests = []string{"Cargo.toml", "go.mod"}

// Discover scans dir non-recursively and builds a registry from every entry
// that looks like a tool. Sub-directories carrying a build manifest become
// packaged tools; executable regular files become shell tools. A failure to
// read any single entry skips that entry; discovery never fails as a whole,
// so a directory with zero valid entries yields an empty registry.
func Discover(dir string, optFns ...func(o *Options)) *Registry {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tools := make(map[string]*Descriptor)

	entries, err := os.ReadDir(dir)
	if err != nil {
		opts.Logger.Warn("tools directory unreadable", "dir", dir, "error", err.Error())
		entries = nil
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if d := discoverPackagedTool(path); d != nil {
				tools[d.ID] = d
			}
			continue
		}

		if isExecutable(path) {
			if d := discoverShellTool(path); d != nil {
				tools[d.ID] = d
			}
		}
	}

	var limiter *Limiter
	if opts.MaxConcurrent > 0 {
		limiter = NewLimiter(opts.MaxConcurrent)
	}

	opts.Logger.Info("tool discovery complete", "dir", dir, "tools", len(tools))

	return &Registry{
		dir:     dir,
		tools:   tools,
		limiter: limiter,
		logger:  opts.Logger,
	}
}

// discoverPackagedTool inspects a directory for a build manifest and resolves
// its runnable target by probing build outputs: release first, then debug,
// then a bin/ directory, falling back to the package directory itself.
func discoverPackagedTool(dir string) *Descriptor {
	if !hasBuildManifest(dir) {
		return nil
	}

	id := strings.TrimSuffix(filepath.Base(dir), packagedSuffix)
	meta := readMetadata(filepath.Join(dir, "tool.json"))

	command := dir
	for _, candidate := range []string{
		filepath.Join(dir, "target", "release", id),
		filepath.Join(dir, "target", "debug", id),
		filepath.Join(dir, "bin", id),
	} {
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			command = candidate
			break
		}
	}

	return newDescriptor(id, command, SourcePackaged, meta, "Packaged tool: "+id)
}

// discoverShellTool builds a descriptor for an independently executable file,
// skipping known non-tool files (markdown, metadata, setup scripts).
func discoverShellTool(path string) *Descriptor {
	name := filepath.Base(path)

	if strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".json") {
		return nil
	}
	if strings.HasSuffix(name, ".sh") && strings.Contains(name, "setup") {
		return nil
	}

	id := strings.TrimSuffix(name, filepath.Ext(name))
	if id == "" {
		return nil
	}

	meta := readMetadata(strings.TrimSuffix(path, filepath.Ext(path)) + ".json")

	return newDescriptor(id, path, SourceShell, meta, "Shell tool: "+id)
}

// newDescriptor merges sidecar metadata with synthesized defaults.
func newDescriptor(id, command string, src Source, meta *Metadata, fallbackDesc string) *Descriptor {
	d := &Descriptor{
		ID:          id,
		Name:        strings.NewReplacer("-", " ", "_", " ").Replace(id),
		Description: fallbackDesc,
		Category:    CategoryGeneral,
		Command:     command,
		Source:      src,
	}

	if meta != nil {
		if meta.Name != "" {
			d.Name = meta.Name
		}
		if meta.Description != "" {
			d.Description = meta.Description
		}
		if meta.Category != "" {
			d.Category = meta.Category
		}
		d.Tags = meta.Tags
		d.Args = meta.Args
		d.RequiresSudo = meta.RequiresSudo
		if meta.TimeoutSecs != nil {
			d.Timeout = time.Duration(*meta.TimeoutSecs) * time.Second
		}
	}

	return d
}

// readMetadata loads a sidecar metadata file. Any read or decode error is
// treated as absent metadata so a broken sidecar never fails discovery.
func readMetadata(path string) *Metadata {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil
	}
	return &meta
}

func hasBuildManifest(dir string) bool {
	for _, m := range buildManifests {
		if fi, err := os.Stat(filepath.Join(dir, m)); err == nil && !fi.IsDir() {
			return true
		}
	}
	return false
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return fi.Mode().Perm()&0o111 != 0
}
