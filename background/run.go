package background

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/toolmesh/react"
)

// RunStatus is the lifecycle state of a supervised run. Transitions are
// monotonic: once a run reaches a terminal status it never changes again.
type RunStatus string

const (
	// StatusPending means the run has been submitted but not started.
	StatusPending RunStatus = "pending"
	// StatusRunning means the loop is executing.
	StatusRunning RunStatus = "running"
	// StatusSucceeded means the loop produced a final answer.
	StatusSucceeded RunStatus = "succeeded"
	// StatusFailed means the loop terminated with an error.
	StatusFailed RunStatus = "failed"
	// StatusCancelled means the run was cancelled before completing.
	StatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Seq is a per-run event sequence number. Within one run sequence numbers are
// strictly increasing and never repeat; across runs they carry no meaning.
type Seq uint64

// EventType discriminates run events.
type EventType string

const (
	// EventReasoning records one reasoning step (a model reply).
	EventReasoning EventType = "reasoning"
	// EventToolDispatch records a completed tool dispatch and its observation.
	EventToolDispatch EventType = "tool_dispatch"
	// EventCompleted records the run's termination.
	EventCompleted EventType = "completed"
)

// Event is one entry in a run's event log.
type Event struct {
	Seq     Seq       `json:"seq"`
	Type    EventType `json:"type"`
	Content string    `json:"content"`
	Tool    string    `json:"tool,omitempty"`
	Success bool      `json:"success"`
	Time    time.Time `json:"time"`
}

// PaginatedEvents is one page of a run's event log.
type PaginatedEvents struct {
	// Events are the events after the requested cursor, in sequence order.
	Events []Event `json:"events"`
	// NextCursor is the sequence number to pass to the next poll.
	NextCursor Seq `json:"next_cursor"`
	// Status is the run's status at the time of the poll.
	Status RunStatus `json:"status"`
}

// run is the executor-internal state of one supervised execution.
type run struct {
	id    string
	agent *react.Agent
	task  string

	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	status    RunStatus
	cancelled bool
	nextSeq   Seq
	events    []Event
	output    *react.Output
	err       error
}

// appendEvent allocates the next sequence number and appends under the run
// mutex, so emission from concurrent hook invocations stays strictly ordered.
func (r *run) appendEvent(typ EventType, content, tool string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	r.events = append(r.events, Event{
		Seq:     r.nextSeq,
		Type:    typ,
		Content: content,
		Tool:    tool,
		Success: success,
		Time:    time.Now(),
	})
}

// setStatus applies a transition unless the run is already terminal.
func (r *run) setStatus(s RunStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status.IsTerminal() {
		return false
	}

	r.status = s

	return true
}

// isCancelled reports whether cancellation has been requested. Wired into the
// loop's ShouldStop hook.
func (r *run) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cancelled
}

func (r *run) currentStatus() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.status
}

func (r *run) page(after Seq, limit int) PaginatedEvents {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []Event
	for _, e := range r.events {
		if e.Seq <= after {
			continue
		}
		events = append(events, e)
		if limit > 0 && len(events) == limit {
			break
		}
	}

	cursor := after
	if n := len(events); n > 0 {
		cursor = events[n-1].Seq
	}

	return PaginatedEvents{Events: events, NextCursor: cursor, Status: r.status}
}
