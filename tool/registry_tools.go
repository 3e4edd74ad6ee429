package tool

import (
	"context"
	"errors"

	"github.com/hupe1980/toolmesh/registry"
)

// Canonical names of the two capability tools exposed to agents.
const (
	ListToolName = "list_tools"
	RunToolName  = "run_tool"
)

// ViewTools builds the list/run tool pair for a capability view, ready to hand
// to an agent. These two operations are the entire invocation surface an agent
// gets: everything else about the registry stays behind the view's tag scope.
func ViewTools(view *registry.View) []Tool {
	return []Tool{
		NewListTool(view),
		NewRunTool(view),
	}
}

// ListTool lets an agent enumerate the tools currently visible through its
// capability view, optionally narrowed by category. It is read-only.
type ListTool struct {
	view *registry.View
}

// NewListTool binds a ListTool to a capability view.
func NewListTool(view *registry.View) *ListTool {
	return &ListTool{view: view}
}

// Name implements Tool.
func (t *ListTool) Name() string { return ListToolName }

// Description implements Tool.
func (t *ListTool) Description() string {
	return "List the external tools available for execution. " +
		"Returns tool names, IDs, descriptions, categories and tags."
}

// Parameters implements Tool.
func (t *ListTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category": map[string]any{
				"type":        "string",
				"enum":        []string{"network", "process", "rootkit", "hardening", "filesystem", "general"},
				"description": "Optional: filter by category",
			},
		},
	}
}

// Call implements Tool. The visible set is recomputed from the view on every
// invocation so the listing can never go stale.
func (t *ListTool) Call(_ context.Context, args map[string]any) (any, error) {
	var cat *registry.Category
	if s, ok := args["category"].(string); ok && s != "" {
		c := registry.ParseCategory(s)
		cat = &c
	}
	return t.view.Describe(cat), nil
}

// RunTool lets an agent execute a tool from its capability view by ID. The
// view re-validates tag membership on every call, so an agent cannot run a
// tool it was never shown even if it guesses a valid ID.
type RunTool struct {
	view *registry.View
}

// NewRunTool binds a RunTool to a capability view.
func NewRunTool(view *registry.View) *RunTool {
	return &RunTool{view: view}
}

// Name implements Tool.
func (t *RunTool) Name() string { return RunToolName }

// Description implements Tool.
func (t *RunTool) Description() string {
	return "Execute an external tool by its ID. " +
		"Use list_tools first to see available tools and their IDs."
}

// Parameters implements Tool.
func (t *RunTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tool_id": map[string]any{
				"type":        "string",
				"description": "The ID of the tool to execute (e.g. 'portlist', 'chkrootkit')",
			},
			"args": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Optional command-line arguments to pass to the tool",
			},
		},
		"required": []string{"tool_id"},
	}
}

// Call implements Tool. A missing tool_id is a caller-input error; an unknown
// ID surfaces as a NOT_FOUND ToolError naming the available IDs; a
// capability-denied or failed execution comes back as a registry.Result so the
// model can observe and react to it.
func (t *RunTool) Call(ctx context.Context, args map[string]any) (any, error) {
	toolID, ok := args["tool_id"].(string)
	if !ok || toolID == "" {
		return nil, NewToolError(RunToolName, "missing 'tool_id' parameter", CodeValidation)
	}

	var toolArgs []string
	if raw, ok := args["args"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				toolArgs = append(toolArgs, s)
			}
		}
	}

	res, err := t.view.Execute(ctx, toolID, toolArgs)
	if err != nil {
		var nfe *registry.NotFoundError
		if errors.As(err, &nfe) {
			return nil, &ToolError{
				Tool:    RunToolName,
				Message: nfe.Error(),
				Code:    CodeNotFound,
			}
		}
		return nil, &ToolError{
			Tool:    RunToolName,
			Message: err.Error(),
			Code:    CodeExecution,
		}
	}

	return res, nil
}
