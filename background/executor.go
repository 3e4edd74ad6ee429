package background

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/hupe1980/toolmesh/logging"
	"github.com/hupe1980/toolmesh/react"
)

// ErrRunNotFound is returned when a run identifier is unknown.
var ErrRunNotFound = errors.New("run not found")

// Options configures an Executor.
type Options struct {
	Logger logging.Logger
}

// Executor drives submitted loop executions to completion out of band and
// keeps their event logs for polling. All methods are safe for concurrent use.
type Executor struct {
	mu     sync.RWMutex
	runs   map[string]*run
	wg     conc.WaitGroup
	logger logging.Logger
}

// NewExecutor creates an executor with no runs.
func NewExecutor(optFns ...func(o *Options)) *Executor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		runs:   make(map[string]*run),
		logger: opts.Logger,
	}
}

// Submit registers a new run for the agent and task and starts driving it.
// The run identifier is returned immediately; progress is observed via Poll.
// The run's context derives from ctx, so cancelling ctx cancels the run too.
func (e *Executor) Submit(ctx context.Context, agent *react.Agent, task string) (string, error) {
	if agent == nil {
		return "", errors.New("agent must not be nil")
	}

	runCtx, cancel := context.WithCancel(ctx)

	r := &run{
		id:     uuid.NewString(),
		agent:  agent,
		task:   task,
		cancel: cancel,
		done:   make(chan struct{}),
		status: StatusPending,
	}

	e.mu.Lock()
	e.runs[r.id] = r
	e.mu.Unlock()

	e.logger.Info("background.submit", "run_id", r.id, "agent", agent.Name())

	e.wg.Go(func() {
		e.drive(runCtx, r)
	})

	return r.id, nil
}

// drive executes the loop and records its progress as run events.
func (e *Executor) drive(ctx context.Context, r *run) {
	defer close(r.done)
	defer r.cancel()

	r.setStatus(StatusRunning)

	hooks := react.Hooks{
		ShouldStop: r.isCancelled,
		OnReasoning: func(step react.Step) {
			content := step.Thought
			tool := ""
			if step.Action != nil {
				tool = step.Action.Tool
			}
			r.appendEvent(EventReasoning, content, tool, true)
		},
		OnObservation: func(step react.Step) {
			if step.Observation == nil || step.Action == nil {
				return
			}
			r.appendEvent(EventToolDispatch, step.Observation.Content, step.Action.Tool, step.Observation.Success)
		},
	}

	output, err := r.agent.RunWithHooks(ctx, r.task, hooks)

	r.mu.Lock()
	r.output = output
	r.err = err
	cancelled := r.cancelled
	r.mu.Unlock()

	switch {
	case err == nil:
		r.setStatus(StatusSucceeded)
		r.appendEvent(EventCompleted, output.Content, "", true)
	case cancelled || errors.Is(err, react.ErrStopRequested) || errors.Is(err, context.Canceled):
		r.setStatus(StatusCancelled)
		r.appendEvent(EventCompleted, "run cancelled", "", false)
	default:
		r.setStatus(StatusFailed)
		r.appendEvent(EventCompleted, fmt.Sprintf("run failed: %v", err), "", false)
	}

	e.logger.Info("background.done", "run_id", r.id, "status", string(r.currentStatus()))
}

// Poll returns the run's events after the given cursor, at most limit of them
// (limit <= 0 means no page bound), plus the cursor for the next poll and the
// run's current status.
func (e *Executor) Poll(id string, after Seq, limit int) (PaginatedEvents, error) {
	r, ok := e.get(id)
	if !ok {
		return PaginatedEvents{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return r.page(after, limit), nil
}

// Status returns the run's current status.
func (e *Executor) Status(id string) (RunStatus, error) {
	r, ok := e.get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	return r.currentStatus(), nil
}

// Cancel requests cooperative cancellation of a run: it only flips the run's
// stop flag, which the loop observes at its next cycle boundary, so an
// in-flight tool dispatch finishes and is recorded. The run's context is not
// cancelled here; it is torn down when the loop returns. Cancelling an
// already terminal run is a no-op.
func (e *Executor) Cancel(id string) error {
	r, ok := e.get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	r.mu.Lock()
	if !r.status.IsTerminal() {
		r.cancelled = true
	}
	r.mu.Unlock()

	e.logger.Info("background.cancel", "run_id", id)

	return nil
}

// Wait blocks until the run terminates or ctx expires, then returns the run's
// output and terminal error.
func (e *Executor) Wait(ctx context.Context, id string) (*react.Output, error) {
	r, ok := e.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.output, r.err
}

// Shutdown waits for all in-flight runs to terminate.
func (e *Executor) Shutdown() {
	e.wg.Wait()
}

// RunIDs returns the identifiers of all known runs.
func (e *Executor) RunIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.runs))
	for id := range e.runs {
		ids = append(ids, id)
	}

	return ids
}

func (e *Executor) get(id string) (*run, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, ok := e.runs[id]

	return r, ok
}
