package registry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category classifies a tool into one of a fixed set of functional areas.
// Categories are a separate axis from tags: categories drive coarse grouping
// in listings while tags drive capability scoping.
type Category string

// Known tool categories.
const (
	CategoryNetwork    Category = "network"
	CategoryProcess    Category = "process"
	CategoryRootkit    Category = "rootkit"
	CategoryHardening  Category = "hardening"
	CategoryFilesystem Category = "filesystem"
	CategoryGeneral    Category = "general"
)

// ParseCategory maps a string onto a known Category. Unknown or empty values
// resolve to CategoryGeneral.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryNetwork:
		return CategoryNetwork
	case CategoryProcess:
		return CategoryProcess
	case CategoryRootkit:
		return CategoryRootkit
	case CategoryHardening:
		return CategoryHardening
	case CategoryFilesystem:
		return CategoryFilesystem
	default:
		return CategoryGeneral
	}
}

// UnmarshalJSON implements lenient category decoding for sidecar metadata.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseCategory(s)
	return nil
}

// ArgSpec documents a single command-line argument a tool accepts. Specs are
// advisory: they are surfaced to the model for guidance, not enforced.
type ArgSpec struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Required    bool    `json:"required"`
	Default     *string `json:"default,omitempty"`
}

// Metadata is the sidecar file format (tool.json or <tool>.json) that supplies
// optional descriptive fields for a discovered tool. Every field except name
// and description has a zero-value default.
type Metadata struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     Category  `json:"category"`
	Tags         []string  `json:"tags"`
	Args         []ArgSpec `json:"args"`
	RequiresSudo bool      `json:"requires_sudo"`
	TimeoutSecs  *uint64   `json:"timeout_secs"`
}

// Source indicates how a tool was discovered. Resolved once at discovery time;
// the executor treats both variants uniformly through the command path.
type Source int

const (
	// SourceShell is an independently executable file (script or binary).
	SourceShell Source = iota
	// SourcePackaged is a build directory whose runnable target was probed
	// from its build output.
	SourcePackaged
)

// String returns the source kind name.
func (s Source) String() string {
	if s == SourcePackaged {
		return "packaged"
	}
	return "shell"
}

// Descriptor is an immutable description of one discovered tool. Identity is
// the ID, unique within a registry snapshot; duplicate IDs across directory
// entries resolve to the last one scanned.
type Descriptor struct {
	// ID uniquely identifies the tool within its registry.
	ID string
	// Name is the human-readable display name.
	Name string
	// Description is surfaced to models to guide tool selection.
	Description string
	// Category groups the tool in listings.
	Category Category
	// Tags scope the tool to capability views (free-form, matched case-insensitively).
	Tags []string
	// Command is the resolved path invoked by the executor.
	Command string
	// RequiresSudo routes execution through the privilege-elevation wrapper.
	RequiresSudo bool
	// Timeout bounds the child process runtime when non-zero.
	Timeout time.Duration
	// Args documents the tool's accepted command-line arguments.
	Args []ArgSpec
	// Source records the discovery variant.
	Source Source
}

// HasTag reports whether the descriptor carries the given tag, ignoring case.
func (d *Descriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Result is the outcome of one tool execution. Content merges captured stdout
// and stderr; a non-zero exit keeps the captured content and sets Error.
type Result struct {
	Success bool   `json:"success"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// SuccessResult builds a successful Result carrying content.
func SuccessResult(content string) Result {
	return Result{Success: true, Content: content}
}

// FailureResult builds a failed Result with an error message and no content.
func FailureResult(format string, args ...any) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// FailureResultWithContent builds a failed Result that preserves partial output.
func FailureResultWithContent(content, errMsg string) Result {
	return Result{Success: false, Content: content, Error: errMsg}
}
