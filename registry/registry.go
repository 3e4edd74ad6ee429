package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/toolmesh/logging"
)

// TagAll is the reserved sentinel tag. A tag set containing it bypasses
// filtering entirely and yields every tool in the registry. This is an
// explicit escape hatch for trusted or administrative callers; grant it
// deliberately, never by default.
const TagAll = "all"

// NotFoundError is returned when an execution targets an unknown tool ID.
// It carries the currently known IDs so callers (and models) can recover.
type NotFoundError struct {
	ID        string
	Available []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found, available tools: %s", e.ID, strings.Join(e.Available, ", "))
}

// Options configures registry construction.
type Options struct {
	// MaxConcurrent bounds how many tool processes the registry may have in
	// flight at once. Zero means unbounded.
	MaxConcurrent int
	// Logger receives discovery and execution logs.
	Logger logging.Logger
}

// Registry owns the immutable tool map produced by one discovery pass over a
// tools directory. All read accessors are safe for concurrent use without
// locking; the optional limiter is the only mutable shared state.
type Registry struct {
	dir     string
	tools   map[string]*Descriptor
	limiter *Limiter
	logger  logging.Logger
}

// Get returns the descriptor for an ID, if known.
func (r *Registry) Get(id string) (*Descriptor, bool) {
	d, ok := r.tools[id]
	return d, ok
}

// Len returns the number of discovered tools.
func (r *Registry) Len() int { return len(r.tools) }

// IsEmpty reports whether the discovery pass found no tools.
func (r *Registry) IsEmpty() bool { return len(r.tools) == 0 }

// Dir returns the source directory the registry was discovered from.
func (r *Registry) Dir() string { return r.dir }

// IDs returns all tool IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tools returns all descriptors sorted by ID.
func (r *Registry) Tools() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByCategory returns all descriptors in a category, sorted by ID.
func (r *Registry) ByCategory(cat Category) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.Tools() {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

// ByTags returns every tool sharing at least one tag with the requested set.
// Matching is case-insensitive. If the set contains TagAll the full registry
// is returned regardless of the other tags supplied.
func (r *Registry) ByTags(tags []string) []*Descriptor {
	for _, t := range tags {
		if strings.EqualFold(t, TagAll) {
			return r.Tools()
		}
	}

	var out []*Descriptor
	for _, d := range r.Tools() {
		for _, t := range tags {
			if d.HasTag(t) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// AllTags returns the sorted, deduplicated union of tags across all tools.
func (r *Registry) AllTags() []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, d := range r.tools {
		for _, t := range d.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// HasTag reports whether the tool with the given ID carries the tag.
func (r *Registry) HasTag(id, tag string) bool {
	d, ok := r.tools[id]
	return ok && d.HasTag(tag)
}

// View derives a tag-scoped capability view over this registry. The view is a
// live filter, not a copy: membership is recomputed from the registry on every
// list and every run.
func (r *Registry) View(tags ...string) *View {
	return &View{registry: r, tags: append([]string(nil), tags...)}
}

// Limiter returns the concurrency limiter, or nil when executions are unbounded.
func (r *Registry) Limiter() *Limiter { return r.limiter }

// Execute runs the tool with the given ID, passing args as a literal argument
// vector. It acquires a limiter permit (when configured) before spawning the
// child process and releases it on every exit path. A missing ID yields a
// *NotFoundError; all process-level failures are reported inside the Result.
func (r *Registry) Execute(ctx context.Context, id string, args []string) (Result, error) {
	d, ok := r.tools[id]
	if !ok {
		return Result{}, &NotFoundError{ID: id, Available: r.IDs()}
	}

	if r.limiter != nil {
		if err := r.limiter.Acquire(ctx); err != nil {
			return Result{}, fmt.Errorf("acquire execution slot for %q: %w", id, err)
		}
		defer r.limiter.Release()
	}

	start := time.Now()
	res := d.Execute(ctx, args)

	var execErr error
	if !res.Success && res.Error != "" {
		execErr = errors.New(res.Error)
	}
	logging.LogToolRun(r.logger, id, time.Since(start), res.Success, execErr)

	return res, nil
}

// Describe renders a model-facing catalogue of all tools grouped by category.
func (r *Registry) Describe() string {
	byCat := make(map[Category][]*Descriptor)
	for _, d := range r.Tools() {
		byCat[d.Category] = append(byCat[d.Category], d)
	}

	cats := make([]Category, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	var b strings.Builder
	for _, c := range cats {
		fmt.Fprintf(&b, "\n=== %s tools ===\n", c)
		for _, d := range byCat[c] {
			fmt.Fprintf(&b, "• %s (id: %s)\n  %s\n", d.Name, d.ID, d.Description)
			if len(d.Args) > 0 {
				b.WriteString("  Arguments:\n")
				for _, a := range d.Args {
					opt := "optional"
					if a.Required {
						opt = "required"
					}
					fmt.Fprintf(&b, "  - %s (%s): %s\n", a.Name, opt, a.Description)
				}
			}
			fmt.Fprintf(&b, "  Requires sudo: %t\n", d.RequiresSudo)
		}
	}
	return b.String()
}
