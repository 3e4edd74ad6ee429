// Package swarm orchestrates multi-stage agent pipelines over a shared
// handoff context. Stages run either sequentially or with bounded
// parallelism; each stage appends its result to the handoff log so later
// stages see the accumulated observations.
package swarm

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/hupe1980/toolmesh/handoff"
	"github.com/hupe1980/toolmesh/logging"
	"github.com/hupe1980/toolmesh/react"
)

// Stage is one step of a pipeline. Task builds the stage's prompt from the
// accumulated handoff context, typically via Render.
type Stage struct {
	Name  string
	Agent *react.Agent
	Task  func(hc *handoff.Context) string
}

// Options configures a Pipeline.
type Options struct {
	Logger logging.Logger
}

// Pipeline runs an ordered set of stages against one handoff context.
//
// Stage failures do not abort the pipeline: the failure is appended to the
// handoff log as a degraded observation and later stages decide what to make
// of it.
type Pipeline struct {
	stages []Stage
	logger logging.Logger
}

// NewPipeline creates a pipeline from stages, run in the given order.
func NewPipeline(stages []Stage, optFns ...func(o *Options)) (*Pipeline, error) {
	if len(stages) == 0 {
		return nil, errors.New("pipeline requires at least one stage")
	}

	for i, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage %d has no name", i)
		}
		if s.Agent == nil {
			return nil, fmt.Errorf("stage %q has no agent", s.Name)
		}
		if s.Task == nil {
			return nil, fmt.Errorf("stage %q has no task builder", s.Name)
		}
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Pipeline{stages: stages, logger: opts.Logger}, nil
}

// Stages returns the pipeline's stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}

	return names
}

// RunSequential executes the stages one after another. Each stage sees every
// earlier stage's observation in hc. The error return is reserved for context
// cancellation; stage-level failures are folded into the handoff log.
func (p *Pipeline) RunSequential(ctx context.Context, hc *handoff.Context) error {
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.runStage(ctx, stage, hc)
	}

	return nil
}

// RunParallel executes all stages concurrently, at most maxConcurrent at a
// time (<= 0 means unbounded). Stages see whatever observations happen to be
// in hc when their task builder runs; use it for stages that are independent
// of each other, with a sequential fan-in stage afterwards.
func (p *Pipeline) RunParallel(ctx context.Context, hc *handoff.Context, maxConcurrent int) error {
	wp := pool.New().WithContext(ctx)
	if maxConcurrent > 0 {
		wp = wp.WithMaxGoroutines(maxConcurrent)
	}

	for _, stage := range p.stages {
		wp.Go(func(ctx context.Context) error {
			p.runStage(ctx, stage, hc)
			return nil
		})
	}

	return wp.Wait()
}

// runStage executes one stage and appends its outcome to the handoff log.
func (p *Pipeline) runStage(ctx context.Context, stage Stage, hc *handoff.Context) {
	p.logger.Info("swarm.stage.start", "stage", stage.Name, "agent", stage.Agent.Name())

	output, err := stage.Agent.Run(ctx, stage.Task(hc))
	if err != nil {
		p.logger.Warn("swarm.stage.failed", "stage", stage.Name, "error", err.Error())
		hc.Append(stage.Name, fmt.Sprintf("stage %s failed: %v", stage.Name, err))

		return
	}

	p.logger.Info("swarm.stage.done", "stage", stage.Name, "cycles", output.Trace.Len())
	hc.Append(stage.Name, output.Content)
}
