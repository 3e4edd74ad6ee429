// Package toolmesh provides a high-level façade over the tool registry, the
// ReAct loop and the coordination layer (handoff context, background runs &
// swarm pipelines) enabling rapid construction of tool-using agent systems.
// Most applications interact with this package by:
//  1. Creating a ToolMesh via New() pointed at a tools directory
//  2. Deriving tag-scoped agents bound to a model (NewAgent)
//  3. Running them directly, in a pipeline, or as supervised background runs
//
// The façade delegates discovery and execution to registry.Registry and loop
// orchestration to react.Agent while keeping setup ergonomics concise. All
// defaults are safe for local development and testing.
package toolmesh

import (
	"context"

	"github.com/hupe1980/toolmesh/background"
	"github.com/hupe1980/toolmesh/handoff"
	"github.com/hupe1980/toolmesh/logging"
	"github.com/hupe1980/toolmesh/model"
	"github.com/hupe1980/toolmesh/react"
	"github.com/hupe1980/toolmesh/registry"
	"github.com/hupe1980/toolmesh/swarm"
	"github.com/hupe1980/toolmesh/tool"
)

// Options configures the ToolMesh instance.
type Options struct {
	// MaxConcurrentTools bounds concurrent tool executions across all agents
	// sharing this registry. Zero means no bound.
	MaxConcurrentTools int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentOptions configures an agent created through the façade.
type AgentOptions struct {
	// Tags scope the agent's capability view. Empty means no tools.
	Tags []string
	// SystemPrompt frames the agent's role.
	SystemPrompt string
	// MaxCycles bounds reasoning steps per run (default 10).
	MaxCycles int
	// Temperature is the model sampling temperature (default 0.1).
	Temperature float64
	// ExtraTools are appended after the view-derived list/run pair.
	ExtraTools []tool.Tool
}

// ToolMesh is the high-level façade aggregating the registry and run executor.
type ToolMesh struct {
	registry *registry.Registry
	executor *background.Executor
	logger   logging.Logger
}

// New discovers tools from toolsDir and creates a ToolMesh around them.
// Discovery never fails; a missing or empty directory yields an empty
// registry.
func New(toolsDir string, optFns ...func(o *Options)) *ToolMesh {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg := registry.Discover(toolsDir, func(o *registry.Options) {
		o.MaxConcurrent = opts.MaxConcurrentTools
		o.Logger = opts.Logger
	})

	exec := background.NewExecutor(func(o *background.Options) {
		o.Logger = opts.Logger
	})

	return &ToolMesh{registry: reg, executor: exec, logger: opts.Logger}
}

// Registry exposes the underlying tool registry.
func (m *ToolMesh) Registry() *registry.Registry { return m.registry }

// Executor exposes the background run executor.
func (m *ToolMesh) Executor() *background.Executor { return m.executor }

// NewAgent builds an agent whose tool set is the list/run pair of a capability
// view scoped to the given tags.
func (m *ToolMesh) NewAgent(name string, llm model.Model, optFns ...func(o *AgentOptions)) *react.Agent {
	opts := AgentOptions{MaxCycles: 10, Temperature: 0.1}
	for _, fn := range optFns {
		fn(&opts)
	}

	var tools []tool.Tool
	if len(opts.Tags) > 0 {
		tools = tool.ViewTools(m.registry.View(opts.Tags...))
	}
	tools = append(tools, opts.ExtraTools...)

	return react.New(name, llm, func(o *react.Options) {
		if opts.SystemPrompt != "" {
			o.SystemPrompt = opts.SystemPrompt
		}
		o.MaxCycles = opts.MaxCycles
		o.Temperature = opts.Temperature
		o.Tools = tools
		o.Logger = m.logger
	})
}

// Run executes an agent synchronously.
func (m *ToolMesh) Run(ctx context.Context, agent *react.Agent, task string) (*react.Output, error) {
	return agent.Run(ctx, task)
}

// Submit hands an agent task to the background executor and returns the run
// identifier for polling.
func (m *ToolMesh) Submit(ctx context.Context, agent *react.Agent, task string) (string, error) {
	return m.executor.Submit(ctx, agent, task)
}

// RunPipeline executes a swarm pipeline sequentially over a fresh handoff
// context created from objective, returning the populated context.
func (m *ToolMesh) RunPipeline(ctx context.Context, objective string, stages []swarm.Stage) (*handoff.Context, error) {
	p, err := swarm.NewPipeline(stages, func(o *swarm.Options) {
		o.Logger = m.logger
	})
	if err != nil {
		return nil, err
	}

	hc := handoff.NewContext(objective)
	if err := p.RunSequential(ctx, hc); err != nil {
		return nil, err
	}

	return hc, nil
}
