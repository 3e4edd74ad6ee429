// Package handoff provides a shared append-only observation log for
// multi-agent pipelines. Every stage appends a labeled summary of its own
// output; later stages read the accumulated log as additional task context.
// Entries are never rewritten or removed.
package handoff

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Entry is one labeled observation in the log.
type Entry struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.Label, e.Content)
}

// Context is the shared cross-agent observation log. It is created with the
// overall objective and passed by reference through a pipeline. All methods
// are safe for concurrent use.
type Context struct {
	mu        sync.RWMutex
	objective string
	entries   []Entry
}

// NewContext creates a log for one multi-agent session.
func NewContext(objective string) *Context {
	return &Context{objective: objective}
}

// Objective returns the overall task the pipeline is working on.
func (c *Context) Objective() string { return c.objective }

// Append adds a labeled observation. Appends from concurrent stages are
// serialized; prior entries are never modified.
func (c *Context) Append(label, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, Entry{Label: label, Content: content})
}

// Entries returns a snapshot copy of the log.
func (c *Context) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, len(c.entries))
	copy(out, c.entries)

	return out
}

// Len returns the number of entries.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Render formats the objective and accumulated observations for embedding in
// a later stage's task prompt. If maxBytes is positive and the rendered log
// exceeds it, the oldest observations are dropped first and an elision marker
// notes how many were omitted. The objective header is always kept.
func (c *Context) Render(maxBytes int) string {
	c.mu.RLock()
	entries := c.entries
	c.mu.RUnlock()

	header := fmt.Sprintf("Objective: %s", c.objective)
	if len(entries) == 0 {
		return header
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}

	render := func(omitted int) string {
		var sb strings.Builder
		sb.WriteString(header)
		sb.WriteString("\n\nObservations:\n")
		if omitted > 0 {
			fmt.Fprintf(&sb, "... %d earlier observation(s) omitted ...\n", omitted)
		}
		sb.WriteString(strings.Join(lines[omitted:], "\n"))
		return sb.String()
	}

	out := render(0)
	if maxBytes <= 0 || len(out) <= maxBytes {
		return out
	}

	for omitted := 1; omitted < len(lines); omitted++ {
		if out = render(omitted); len(out) <= maxBytes {
			return out
		}
	}

	// Even a single observation overflows the budget: keep the newest,
	// truncated to a rune boundary.
	if len(out) > maxBytes {
		out = truncateToRuneBoundary(out, maxBytes)
	}

	return out
}

func truncateToRuneBoundary(s string, maxBytes int) string {
	s = s[:maxBytes]
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		if r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}

	return s
}
