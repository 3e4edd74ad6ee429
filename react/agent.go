package react

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/toolmesh/logging"
	"github.com/hupe1980/toolmesh/model"
	"github.com/hupe1980/toolmesh/registry"
	"github.com/hupe1980/toolmesh/tool"
)

// ErrMaxCyclesExceeded is returned when the cycle budget runs out before the
// model produces a final answer. The accumulated trace is still returned.
var ErrMaxCyclesExceeded = errors.New("maximum reasoning cycles exhausted")

// ErrStopRequested is returned when a run's ShouldStop hook asked the loop to
// stop at a cycle boundary. The accumulated trace is still returned.
var ErrStopRequested = errors.New("stop requested")

// Options configures an Agent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// SystemPrompt frames the agent's role for the model.
	SystemPrompt string
	// MaxCycles bounds the number of reasoning steps (model calls) per run.
	MaxCycles int
	// Temperature is the sampling temperature passed to the model.
	Temperature float64
	// Tools are the capabilities exposed to the model.
	Tools []tool.Tool
	// Logger receives loop progress logs.
	Logger logging.Logger
}

// Hooks receive loop progress notifications during one run. Both fields are
// optional. Hooks are per-run so an agent can be shared by concurrent runs.
type Hooks struct {
	// OnReasoning fires after each model reply, before any dispatch. The
	// step carries the thought and, when the model chose to act, the action.
	OnReasoning func(step Step)
	// OnObservation fires after a dispatched action's observation is recorded.
	OnObservation func(step Step)
	// ShouldStop is consulted at the top of each cycle, alongside the context
	// check. Returning true stops the loop before its next reasoning step
	// without interrupting anything already in flight: a dispatch that was
	// running when the signal flipped completes and is recorded first.
	ShouldStop func() bool
}

// Output is the result of one loop execution: the final (or best-effort)
// content plus the full trace. Output is returned for failed terminations too,
// so callers can always inspect what happened.
type Output struct {
	Content string `json:"content"`
	Trace   *Trace `json:"-"`
}

// Agent drives the ReAct loop against a fixed tool set and model binding.
// An Agent holds no per-run state and is safe for concurrent Run calls.
type Agent struct {
	name         string
	llm          model.Model
	systemPrompt string
	maxCycles    int
	temperature  float64
	tools        map[string]tool.Tool
	logger       logging.Logger
}

// New creates an agent bound to a model.
//
// Defaults: 10 reasoning cycles, temperature 0.1, a generic assistant system
// prompt and no tools.
func New(name string, llm model.Model, optFns ...func(o *Options)) *Agent {
	opts := Options{
		SystemPrompt: fmt.Sprintf("You are %s, a helpful AI assistant.", name),
		MaxCycles:    10,
		Temperature:  0.1,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	tools := make(map[string]tool.Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		tools[t.Name()] = t
	}

	return &Agent{
		name:         name,
		llm:          llm,
		systemPrompt: opts.SystemPrompt,
		maxCycles:    opts.MaxCycles,
		temperature:  opts.Temperature,
		tools:        tools,
		logger:       opts.Logger,
	}
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// ToolNames returns the sorted names of the agent's registered tools.
func (a *Agent) ToolNames() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the loop for a task until the model answers, the cycle budget
// is exhausted, the model transport fails or the context is cancelled.
func (a *Agent) Run(ctx context.Context, task string) (*Output, error) {
	return a.RunWithHooks(ctx, task, Hooks{})
}

// RunWithHooks is Run with per-run progress callbacks.
//
// Termination semantics:
//   - final answer from the model          -> Output, nil
//   - cycle budget exhausted               -> Output (best effort), ErrMaxCyclesExceeded
//   - model transport failure              -> Output (partial trace), wrapped error
//   - context cancelled between cycles     -> Output (partial trace), ctx.Err()
//   - ShouldStop hook returns true         -> Output (partial trace), ErrStopRequested
//
// Cancellation is cooperative: both the context and the ShouldStop hook are
// checked only at cycle boundaries, so a dispatch already in flight completes
// and its observation is still recorded.
func (a *Agent) RunWithHooks(ctx context.Context, task string, hooks Hooks) (*Output, error) {
	trace := NewTrace()

	for cycle := 1; ; cycle++ {
		if err := ctx.Err(); err != nil {
			return &Output{Content: bestEffortContent(trace), Trace: trace}, err
		}

		if hooks.ShouldStop != nil && hooks.ShouldStop() {
			a.logger.Info("react.stop.requested", "agent", a.name, "cycle", cycle)
			return &Output{Content: bestEffortContent(trace), Trace: trace}, ErrStopRequested
		}

		a.logger.Debug("react.cycle.start", "agent", a.name, "cycle", cycle)

		// The single suspension point: ask the model to answer or act.
		resp, err := a.llm.Generate(ctx, a.buildRequest(task, trace))
		if err != nil {
			a.logger.Error("react.model.error", "agent", a.name, "cycle", cycle, "error", err.Error())
			return &Output{Content: bestEffortContent(trace), Trace: trace}, fmt.Errorf("model call failed: %w", err)
		}

		if !resp.HasToolCalls() {
			step := Step{Thought: resp.Content}
			trace.append(step)
			notify(hooks.OnReasoning, step)

			a.logger.Info("react.final", "agent", a.name, "cycles", cycle)
			return &Output{Content: resp.Content, Trace: trace}, nil
		}

		call := resp.ToolCalls[0]
		step := Step{
			Thought: resp.Content,
			Action:  &Action{CallID: call.ID, Tool: call.Name, Arguments: call.Arguments},
		}
		notify(hooks.OnReasoning, step)

		if cycle >= a.maxCycles {
			// Budget exhausted before the selected action could run.
			trace.append(step)
			a.logger.Warn("react.budget.exhausted", "agent", a.name, "max_cycles", a.maxCycles)
			return &Output{Content: bestEffortContent(trace), Trace: trace}, ErrMaxCyclesExceeded
		}

		obs := a.dispatch(ctx, call)
		step.Observation = &obs
		trace.append(step)
		notify(hooks.OnObservation, step)
	}
}

// dispatch runs one tool call and converts its outcome into an observation.
// Every failure mode ends up as observation data the model can react to.
func (a *Agent) dispatch(ctx context.Context, call model.ToolCall) Observation {
	t, ok := a.tools[call.Name]
	if !ok {
		return Observation{
			Content: fmt.Sprintf("unknown tool %q, available tools: %s", call.Name, strings.Join(a.ToolNames(), ", ")),
		}
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return Observation{Content: fmt.Sprintf("invalid tool arguments: %v", err)}
		}
	}

	result, err := t.Call(ctx, args)
	if err != nil {
		a.logger.Warn("react.dispatch.error", "agent", a.name, "tool", call.Name, "error", err.Error())
		return Observation{Content: err.Error()}
	}

	switch v := result.(type) {
	case registry.Result:
		content := v.Content
		if !v.Success && v.Error != "" {
			if content == "" {
				content = v.Error
			} else {
				content = content + "\n\nERROR: " + v.Error
			}
		}
		return Observation{Content: content, Success: v.Success}
	case string:
		return Observation{Content: v, Success: true}
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Observation{Content: fmt.Sprintf("%v", v), Success: true}
		}
		return Observation{Content: string(data), Success: true}
	}
}

// buildRequest renders the task and trace-so-far as a normalized model request.
func (a *Agent) buildRequest(task string, trace *Trace) model.Request {
	messages := []model.Message{{Role: "user", Content: task}}

	for _, s := range trace.Steps() {
		if s.Action == nil {
			messages = append(messages, model.Message{Role: "assistant", Content: s.Thought})
			continue
		}
		messages = append(messages, model.Message{
			Role:    "assistant",
			Content: s.Thought,
			ToolCalls: []model.ToolCall{
				{ID: s.Action.CallID, Name: s.Action.Tool, Arguments: s.Action.Arguments},
			},
		})
		if s.Observation != nil {
			messages = append(messages, model.Message{
				Role:       "tool",
				Content:    s.Observation.Content,
				ToolCallID: s.Action.CallID,
			})
		}
	}

	return model.Request{
		System:      a.systemPrompt,
		Messages:    messages,
		Tools:       a.toolDefinitions(),
		Temperature: a.temperature,
	}
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	var defs []model.ToolDefinition
	for _, name := range a.ToolNames() {
		t := a.tools[name]
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// bestEffortContent picks the latest thought so exhausted runs still surface
// whatever the model got to.
func bestEffortContent(trace *Trace) string {
	steps := trace.Steps()
	if len(steps) == 0 {
		return ""
	}
	return steps[len(steps)-1].Thought
}

func notify(fn func(Step), step Step) {
	if fn != nil {
		fn(step)
	}
}
