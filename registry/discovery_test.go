package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDiscoverEmptyDir(t *testing.T) {
	reg := Discover(t.TempDir())
	assert.True(t, reg.IsEmpty())
	assert.Equal(t, 0, reg.Len())
}

func TestDiscoverMissingDir(t *testing.T) {
	reg := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, reg.IsEmpty())
}

func TestDiscoverShellTool(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "portlist", "echo ports")

	reg := Discover(dir)
	require.Equal(t, 1, reg.Len())

	d, ok := reg.Get("portlist")
	require.True(t, ok)
	assert.Equal(t, "portlist", d.Name)
	assert.Equal(t, CategoryGeneral, d.Category)
	assert.Equal(t, SourceShell, d.Source)
	assert.False(t, d.RequiresSudo)
}

func TestDiscoverSkipsNonTools(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# docs")
	writeFile(t, dir, "portlist.json", `{"name":"orphan sidecar"}`)
	nonExec := writeFile(t, dir, "notes.txt", "plain file")
	require.NoError(t, os.Chmod(nonExec, 0o644))

	setup := filepath.Join(dir, "setup_env.sh")
	require.NoError(t, os.WriteFile(setup, []byte("#!/bin/sh\necho setup\n"), 0o755))

	reg := Discover(dir)
	assert.True(t, reg.IsEmpty())
}

func TestDiscoverSidecarMetadata(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "portlist", "echo ports")
	writeFile(t, dir, "portlist.json", `{
		"name": "Port Lister",
		"description": "List listening ports",
		"category": "network",
		"tags": ["security_tools", "network_tools"],
		"requires_sudo": true,
		"timeout_secs": 30,
		"args": [{"name": "-a", "description": "all sockets", "required": false}]
	}`)

	reg := Discover(dir)
	d, ok := reg.Get("portlist")
	require.True(t, ok)
	assert.Equal(t, "Port Lister", d.Name)
	assert.Equal(t, "List listening ports", d.Description)
	assert.Equal(t, CategoryNetwork, d.Category)
	assert.ElementsMatch(t, []string{"security_tools", "network_tools"}, d.Tags)
	assert.True(t, d.RequiresSudo)
	assert.Equal(t, 30*time.Second, d.Timeout)
	require.Len(t, d.Args, 1)
	assert.Equal(t, "-a", d.Args[0].Name)
}

func TestDiscoverBrokenSidecarFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "scanner", "echo ok")
	writeFile(t, dir, "scanner.json", `{not valid json`)

	reg := Discover(dir)
	d, ok := reg.Get("scanner")
	require.True(t, ok, "a broken sidecar must not drop the tool")
	assert.Equal(t, "scanner", d.Name)
	assert.Equal(t, CategoryGeneral, d.Category)
}

func TestDiscoverUnknownCategoryDefaultsToGeneral(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "probe", "echo ok")
	writeFile(t, dir, "probe.json", `{"name":"Probe","description":"x","category":"quantum"}`)

	reg := Discover(dir)
	d, ok := reg.Get("probe")
	require.True(t, ok)
	assert.Equal(t, CategoryGeneral, d.Category)
}

func TestDiscoverPackagedTool(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "netscan-mcp")
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "target", "release"), 0o755))
	writeFile(t, pkg, "Cargo.toml", "[package]\nname = \"netscan\"\n")
	writeFile(t, pkg, "tool.json", `{"name":"Net Scan","description":"scan","tags":["security_tools"]}`)

	bin := filepath.Join(pkg, "target", "release", "netscan")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho scan\n"), 0o755))

	reg := Discover(dir)
	d, ok := reg.Get("netscan")
	require.True(t, ok, "suffix must be stripped from the directory name")
	assert.Equal(t, "Net Scan", d.Name)
	assert.Equal(t, SourcePackaged, d.Source)
	assert.Equal(t, bin, d.Command)
}

func TestDiscoverPackagedToolFallsBackToDir(t *testing.T) {
	dir := t.TempDir()
	pkg := filepath.Join(dir, "checker")
	require.NoError(t, os.MkdirAll(pkg, 0o755))
	writeFile(t, pkg, "go.mod", "module checker\n")

	reg := Discover(dir)
	d, ok := reg.Get("checker")
	require.True(t, ok)
	assert.Equal(t, pkg, d.Command, "no build output resolves to the package directory")
}

func TestDiscoverPlainDirIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))

	reg := Discover(dir)
	assert.True(t, reg.IsEmpty())
}

func TestRegistryTagHelpers(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "alpha", "echo a")
	writeFile(t, dir, "alpha.json", `{"name":"Alpha","description":"a","tags":["dev_tools","shared"]}`)
	writeScript(t, dir, "beta", "echo b")
	writeFile(t, dir, "beta.json", `{"name":"Beta","description":"b","tags":["web_tools","shared"]}`)

	reg := Discover(dir)
	assert.Equal(t, []string{"dev_tools", "shared", "web_tools"}, reg.AllTags())
	assert.True(t, reg.HasTag("alpha", "DEV_TOOLS"))
	assert.False(t, reg.HasTag("alpha", "web_tools"))
	assert.False(t, reg.HasTag("missing", "shared"))
}
