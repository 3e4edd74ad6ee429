package react

import (
	"fmt"
	"strings"
	"sync"
)

// Action records the tool call a reasoning step selected.
type Action struct {
	// CallID correlates the model's request with its observation.
	CallID string `json:"call_id"`
	// Tool is the tool name the model chose.
	Tool string `json:"tool"`
	// Arguments is the raw JSON argument payload.
	Arguments string `json:"arguments"`
}

// Observation is the recorded outcome of one dispatched action.
type Observation struct {
	Content string `json:"content"`
	Success bool   `json:"success"`
}

// Step is one think-act-observe cycle. Action and Observation are nil for a
// final-answer step; Observation alone is nil when the budget ran out before
// the selected action could be dispatched.
type Step struct {
	Thought     string       `json:"thought"`
	Action      *Action      `json:"action,omitempty"`
	Observation *Observation `json:"observation,omitempty"`
}

// Trace is the ordered, append-only record of one loop execution. Steps are
// appended by the loop and never mutated afterwards; Steps returns a snapshot
// safe to retain. Once the loop terminates the trace is effectively immutable.
type Trace struct {
	mu    sync.RWMutex
	steps []Step
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

func (t *Trace) append(s Step) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, s)
}

// Steps returns a copy of all recorded steps.
func (t *Trace) Steps() []Step {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Step(nil), t.steps...)
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.steps)
}

// Observations returns every recorded observation in order.
func (t *Trace) Observations() []Observation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Observation
	for _, s := range t.steps {
		if s.Observation != nil {
			out = append(out, *s.Observation)
		}
	}
	return out
}

// String renders the trace in a compact human-readable form.
func (t *Trace) String() string {
	var b strings.Builder
	for i, s := range t.Steps() {
		fmt.Fprintf(&b, "[%d] thought: %s\n", i+1, s.Thought)
		if s.Action != nil {
			fmt.Fprintf(&b, "    action: %s(%s)\n", s.Action.Tool, s.Action.Arguments)
		}
		if s.Observation != nil {
			fmt.Fprintf(&b, "    observation (success=%t): %s\n", s.Observation.Success, s.Observation.Content)
		}
	}
	return b.String()
}
