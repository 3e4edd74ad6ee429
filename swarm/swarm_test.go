package swarm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/toolmesh/handoff"
	"github.com/hupe1980/toolmesh/model"
	"github.com/hupe1980/toolmesh/react"
)

func textAgent(name, answer string) *react.Agent {
	llm := model.NewMockModel("mock").EnqueueText(answer)
	return react.New(name, llm)
}

func failingAgent(name string) *react.Agent {
	llm := model.NewMockModel("mock").EnqueueError(errors.New("model unavailable"))
	return react.New(name, llm)
}

func objectiveTask(hc *handoff.Context) string {
	return hc.Render(0)
}

func TestNewPipelineValidation(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.Error(t, err)

	_, err = NewPipeline([]Stage{{Name: "", Agent: textAgent("a", "x"), Task: objectiveTask}})
	assert.Error(t, err)

	_, err = NewPipeline([]Stage{{Name: "a", Agent: nil, Task: objectiveTask}})
	assert.Error(t, err)

	_, err = NewPipeline([]Stage{{Name: "a", Agent: textAgent("a", "x"), Task: nil}})
	assert.Error(t, err)
}

func TestRunSequential(t *testing.T) {
	var analystSawCollector bool

	p, err := NewPipeline([]Stage{
		{
			Name:  "collector",
			Agent: textAgent("collector", "collected: 3 findings"),
			Task:  objectiveTask,
		},
		{
			Name:  "analyst",
			Agent: textAgent("analyst", "analysis complete"),
			Task: func(hc *handoff.Context) string {
				rendered := hc.Render(0)
				analystSawCollector = hc.Len() == 1
				return rendered
			},
		},
	})
	require.NoError(t, err)

	hc := handoff.NewContext("audit the host")
	require.NoError(t, p.RunSequential(context.Background(), hc))

	assert.True(t, analystSawCollector)

	entries := hc.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "collector", entries[0].Label)
	assert.Equal(t, "collected: 3 findings", entries[0].Content)
	assert.Equal(t, "analyst", entries[1].Label)
}

func TestRunSequentialDegradedStage(t *testing.T) {
	p, err := NewPipeline([]Stage{
		{Name: "broken", Agent: failingAgent("broken"), Task: objectiveTask},
		{Name: "closer", Agent: textAgent("closer", "wrapped up"), Task: objectiveTask},
	})
	require.NoError(t, err)

	hc := handoff.NewContext("task")
	require.NoError(t, p.RunSequential(context.Background(), hc))

	entries := hc.Entries()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Content, "stage broken failed")
	assert.Contains(t, entries[0].Content, "model unavailable")
	assert.Equal(t, "wrapped up", entries[1].Content)
}

func TestRunSequentialCancelled(t *testing.T) {
	p, err := NewPipeline([]Stage{
		{Name: "a", Agent: textAgent("a", "x"), Task: objectiveTask},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.RunSequential(ctx, handoff.NewContext("task"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunParallel(t *testing.T) {
	stages := make([]Stage, 5)
	for i := range stages {
		stages[i] = Stage{
			Name:  fmt.Sprintf("analyst-%d", i),
			Agent: textAgent(fmt.Sprintf("analyst-%d", i), fmt.Sprintf("report %d", i)),
			Task:  objectiveTask,
		}
	}

	p, err := NewPipeline(stages)
	require.NoError(t, err)

	hc := handoff.NewContext("parallel audit")
	require.NoError(t, p.RunParallel(context.Background(), hc, 2))

	assert.Equal(t, 5, hc.Len())

	labels := map[string]bool{}
	for _, e := range hc.Entries() {
		labels[e.Label] = true
	}
	assert.Len(t, labels, 5)
}

func TestRunParallelBoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int32

	stages := make([]Stage, 6)
	for i := range stages {
		stages[i] = Stage{
			Name:  fmt.Sprintf("s%d", i),
			Agent: textAgent("a", "ok"),
			Task: func(hc *handoff.Context) string {
				defer current.Add(-1)

				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}

				time.Sleep(10 * time.Millisecond)

				return hc.Objective()
			},
		}
	}

	p, err := NewPipeline(stages)
	require.NoError(t, err)

	require.NoError(t, p.RunParallel(context.Background(), handoff.NewContext("t"), 2))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunParallelDegradedStageContinues(t *testing.T) {
	p, err := NewPipeline([]Stage{
		{Name: "good", Agent: textAgent("good", "fine"), Task: objectiveTask},
		{Name: "bad", Agent: failingAgent("bad"), Task: objectiveTask},
	})
	require.NoError(t, err)

	hc := handoff.NewContext("task")
	require.NoError(t, p.RunParallel(context.Background(), hc, 0))

	require.Equal(t, 2, hc.Len())

	var sawGood, sawBad bool
	for _, e := range hc.Entries() {
		switch e.Label {
		case "good":
			sawGood = true
		case "bad":
			sawBad = true
			assert.Contains(t, e.Content, "stage bad failed")
		}
	}
	assert.True(t, sawGood)
	assert.True(t, sawBad)
}
