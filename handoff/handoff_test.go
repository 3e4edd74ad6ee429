package handoff

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAppendOrder(t *testing.T) {
	hc := NewContext("audit the host")

	hc.Append("collector", "found three open ports")
	hc.Append("analyst", "port 8080 runs an outdated service")

	entries := hc.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "collector", entries[0].Label)
	assert.Equal(t, "analyst", entries[1].Label)
	assert.Equal(t, "audit the host", hc.Objective())
}

func TestContextSnapshotIsCopy(t *testing.T) {
	hc := NewContext("task")
	hc.Append("a", "first")

	snap := hc.Entries()
	snap[0].Content = "mutated"

	assert.Equal(t, "first", hc.Entries()[0].Content)
}

func TestContextConcurrentAppends(t *testing.T) {
	hc := NewContext("task")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			hc.Append("writer", fmt.Sprintf("entry %d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, hc.Len())
}

func TestRenderUnbounded(t *testing.T) {
	hc := NewContext("scan the network")
	hc.Append("scanner", "22/tcp open")
	hc.Append("scanner", "80/tcp open")

	out := hc.Render(0)
	assert.Contains(t, out, "Objective: scan the network")
	assert.Contains(t, out, "[scanner] 22/tcp open")
	assert.Contains(t, out, "[scanner] 80/tcp open")
}

func TestRenderEmpty(t *testing.T) {
	hc := NewContext("nothing yet")

	assert.Equal(t, "Objective: nothing yet", hc.Render(0))
}

func TestRenderDropsOldestFirst(t *testing.T) {
	hc := NewContext("t")
	hc.Append("a", strings.Repeat("x", 100))
	hc.Append("b", strings.Repeat("y", 100))
	hc.Append("c", "short")

	out := hc.Render(200)
	assert.LessOrEqual(t, len(out), 200)
	assert.Contains(t, out, "[c] short")
	assert.NotContains(t, out, "[a]")
	assert.Contains(t, out, "omitted")
}

func TestRenderSingleOversizedEntry(t *testing.T) {
	hc := NewContext("t")
	hc.Append("a", strings.Repeat("z", 500))

	out := hc.Render(80)
	assert.Len(t, out, 80)
	assert.True(t, strings.HasPrefix(out, "Objective: t"))
}

func TestRenderTruncatesAtRuneBoundary(t *testing.T) {
	hc := NewContext("t")
	hc.Append("a", strings.Repeat("é", 200)+strings.Repeat("🔒", 100))

	for _, maxBytes := range []int{41, 42, 43, 100, 501} {
		out := hc.Render(maxBytes)
		assert.LessOrEqual(t, len(out), maxBytes)
		assert.True(t, utf8.ValidString(out), "maxBytes=%d", maxBytes)
	}
}
