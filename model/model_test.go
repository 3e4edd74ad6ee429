package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModelScriptOrder(t *testing.T) {
	m := NewMockModel("scripted").
		EnqueueToolCall("thinking", "lookup", `{"q":"x"}`).
		EnqueueText("final answer")

	resp, err := m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "thinking", resp.Content)
	assert.Equal(t, "lookup", resp.ToolCalls[0].Name)
	assert.NotEmpty(t, resp.ToolCalls[0].ID)

	resp, err = m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.False(t, resp.HasToolCalls())
	assert.Equal(t, "final answer", resp.Content)

	assert.Equal(t, 2, m.Calls())
}

func TestMockModelError(t *testing.T) {
	scriptErr := errors.New("boom")
	m := NewMockModel("scripted").EnqueueError(scriptErr)

	_, err := m.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, scriptErr)
}

func TestMockModelExhaustedScriptEchoes(t *testing.T) {
	m := NewMockModel("scripted")

	resp, err := m.Generate(context.Background(), Request{
		Messages: []Message{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "reply"},
			{Role: "user", Content: "second"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: second", resp.Content)
}

func TestMockModelRecordsRequests(t *testing.T) {
	m := NewMockModel("scripted").EnqueueText("ok")

	_, err := m.Generate(context.Background(), Request{System: "be brief"})
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "be brief", reqs[0].System)
}

func TestMockModelRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMockModel("scripted").EnqueueText("never")

	_, err := m.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.Calls())
}
