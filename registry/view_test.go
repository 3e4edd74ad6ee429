package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taggedRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	writeScript(t, dir, "compile", "echo compiled")
	writeFile(t, dir, "compile.json", `{"name":"Compile","description":"c","tags":["dev_tools"],"category":"filesystem"}`)
	writeScript(t, dir, "fetch", "echo fetched")
	writeFile(t, dir, "fetch.json", `{"name":"Fetch","description":"f","tags":["web_tools"],"category":"network"}`)
	writeScript(t, dir, "untagged", "echo plain")
	return Discover(dir)
}

func ids(tools []*Descriptor) []string {
	out := make([]string, 0, len(tools))
	for _, d := range tools {
		out = append(out, d.ID)
	}
	return out
}

func TestViewFiltersByTag(t *testing.T) {
	reg := taggedRegistry(t)

	dev := reg.View("dev_tools")
	assert.Equal(t, []string{"compile"}, ids(dev.Tools()))

	web := reg.View("web_tools")
	assert.Equal(t, []string{"fetch"}, ids(web.Tools()))

	both := reg.View("dev_tools", "web_tools")
	assert.ElementsMatch(t, []string{"compile", "fetch"}, ids(both.Tools()))
}

func TestViewTagMatchingCaseInsensitive(t *testing.T) {
	reg := taggedRegistry(t)
	view := reg.View("Dev_Tools")
	assert.Equal(t, []string{"compile"}, ids(view.Tools()))
}

func TestViewSentinelAllBypassesFilter(t *testing.T) {
	reg := taggedRegistry(t)

	for _, tags := range [][]string{{"all"}, {"ALL"}, {"web_tools", "all"}} {
		view := reg.View(tags...)
		assert.Len(t, view.Tools(), reg.Len(), "tags %v must yield the full registry", tags)
	}
}

func TestViewExecuteWithinScope(t *testing.T) {
	reg := taggedRegistry(t)
	view := reg.View("dev_tools")

	res, err := view.Execute(context.Background(), "compile", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "compiled\n", res.Content)
}

func TestViewExecuteRejectsOutOfScopeID(t *testing.T) {
	reg := taggedRegistry(t)
	view := reg.View("web_tools")

	// "compile" exists in the registry but is outside this view's tag scope.
	res, err := view.Execute(context.Background(), "compile", nil)
	require.NoError(t, err, "a capability denial is a failed result, not an error")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not available with current tags")
	assert.Contains(t, res.Error, "web_tools")
}

func TestViewExecuteUnknownID(t *testing.T) {
	reg := taggedRegistry(t)
	view := reg.View("web_tools")

	_, err := view.Execute(context.Background(), "missing", nil)
	var nfe *NotFoundError
	require.True(t, errors.As(err, &nfe))
}

func TestViewListAndRunAgree(t *testing.T) {
	reg := taggedRegistry(t)
	view := reg.View("dev_tools")

	for _, d := range view.Tools() {
		res, err := view.Execute(context.Background(), d.ID, nil)
		require.NoError(t, err)
		assert.True(t, res.Success)
	}

	// Everything listed by a different view is rejected here.
	for _, d := range reg.View("web_tools").Tools() {
		res, err := view.Execute(context.Background(), d.ID, nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
	}
}

func TestViewDescribeCategoryFilter(t *testing.T) {
	reg := taggedRegistry(t)
	view := reg.View("all")

	all := view.Describe(nil)
	assert.Contains(t, all, "compile")
	assert.Contains(t, all, "fetch")

	cat := CategoryNetwork
	network := view.Describe(&cat)
	assert.Contains(t, network, "fetch")
	assert.NotContains(t, network, "compile")
}

func TestViewEmptyTagSet(t *testing.T) {
	reg := taggedRegistry(t)
	view := reg.View()
	assert.Empty(t, view.Tools())
}

func TestRegistryDescribe(t *testing.T) {
	reg := taggedRegistry(t)
	out := reg.Describe()
	assert.Contains(t, out, "=== filesystem tools ===")
	assert.Contains(t, out, "=== network tools ===")
	assert.Contains(t, out, "Compile")
	assert.Contains(t, out, "Requires sudo: false")
}
