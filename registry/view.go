package registry

import (
	"context"
	"fmt"
	"strings"
)

// View is a tag-scoped capability projection of a registry. It holds only the
// registry reference and the tag set; the visible tool set is recomputed from
// the immutable registry on every call, so listing and execution always agree
// at the instant each is evaluated.
//
// Execute independently re-validates membership even though callers typically
// list first. This is deliberate defense in depth: a model can name any tool
// ID, including ones it was never shown.
type View struct {
	registry *Registry
	tags     []string
}

// Tags returns the tag set this view filters by.
func (v *View) Tags() []string {
	return append([]string(nil), v.tags...)
}

// Registry returns the underlying registry.
func (v *View) Registry() *Registry { return v.registry }

// Tools returns the currently visible descriptors, recomputed from the tag filter.
func (v *View) Tools() []*Descriptor {
	return v.registry.ByTags(v.tags)
}

// Contains reports whether the tool ID is currently within the view's scope.
func (v *View) Contains(id string) bool {
	for _, d := range v.Tools() {
		if d.ID == id {
			return true
		}
	}
	return false
}

// Describe renders a model-facing listing of the visible tools, optionally
// narrowed to one category.
func (v *View) Describe(cat *Category) string {
	tools := v.Tools()
	if cat != nil {
		filtered := tools[:0]
		for _, d := range tools {
			if d.Category == *cat {
				filtered = append(filtered, d)
			}
		}
		tools = filtered
	}

	if len(tools) == 0 {
		return fmt.Sprintf("No tools found matching tags: %s", strings.Join(v.tags, ", "))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d tools:\n\n", len(tools))
	for _, d := range tools {
		fmt.Fprintf(&b, "• %s (id: %q)\n  Category: %s\n  Description: %s\n  Sudo: %t\n",
			d.Name, d.ID, d.Category, d.Description, d.RequiresSudo)
		if len(d.Tags) > 0 {
			fmt.Fprintf(&b, "  Tags: %s\n", strings.Join(d.Tags, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Execute runs a tool by ID after re-validating that the ID is currently a
// member of the tag-filtered set. A tool outside the view's scope resolves to
// a plain failed Result rather than an error: the rejection is data the model
// can observe and react to. Unknown IDs surface the registry's *NotFoundError.
func (v *View) Execute(ctx context.Context, id string, args []string) (Result, error) {
	if !v.Contains(id) {
		if _, known := v.registry.Get(id); known {
			return FailureResult(
				"tool %q is not available with current tags: %s. Use the list tool to see available tools.",
				id, strings.Join(v.tags, ", "),
			), nil
		}
		return Result{}, &NotFoundError{ID: id, Available: v.registry.IDs()}
	}

	return v.registry.Execute(ctx, id, args)
}
