// Package model defines the interface to the language model collaborator and
// the normalized request/response structures the ReAct loop exchanges with it.
// Provider adapters (anthropic, openai) live in sub-packages; a scripted mock
// for tests and examples lives here.
package model

import (
	"context"
	"fmt"
	"sync"
)

// Message is one turn of the normalized conversation sent to a provider.
type Message struct {
	// Role is "user", "assistant" or "tool".
	Role string `json:"role"`
	// Content is the text payload. For tool messages it is the observation
	// produced by the referenced tool call.
	Content string `json:"content"`
	// ToolCalls carries execution requests on assistant messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID references the answered call on tool messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable tool to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by the ReAct loop:
// the system prompt, the task and trace rendered as messages, and the tool
// declarations of the agent's capability view.
type Request struct {
	System      string           `json:"system"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider's answer to one Request: either final content,
// one or more tool calls, or both (content acting as the thought preceding
// the calls).
type Response struct {
	Content      string      `json:"content"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// HasToolCalls reports whether the model chose to act instead of answering.
func (r *Response) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive the reasoning loop. A
// failed Generate call is terminal for the calling loop; everything the model
// should be able to react to (tool failures, rejections) travels inside
// messages instead.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a scripted in-memory Model useful for tests & examples. Replies
// are consumed in FIFO order; once the script is exhausted every call echoes
// the last user message. All methods are safe for concurrent use.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	script   []mockReply
	requests []Request
}

type mockReply struct {
	resp *Response
	err  error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// EnqueueText scripts a final-answer reply.
func (m *MockModel) EnqueueText(content string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockReply{resp: &Response{Content: content, FinishReason: "stop"}})
	return m
}

// EnqueueToolCall scripts a reply selecting a tool with JSON arguments,
// preceded by the given thought text.
func (m *MockModel) EnqueueToolCall(thought, name, arguments string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockReply{resp: &Response{
		Content: thought,
		ToolCalls: []ToolCall{
			{ID: fmt.Sprintf("call_%d", len(m.script)+1), Name: name, Arguments: arguments},
		},
		FinishReason: "tool_calls",
	}})
	return m
}

// EnqueueError scripts a transport failure.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockReply{err: err})
	return m
}

// Generate implements Model, consuming the next scripted reply.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.script) == 0 {
		var last string
		for _, msg := range req.Messages {
			if msg.Role == "user" {
				last = msg.Content
			}
		}
		return &Response{Content: "Mock response to: " + last, FinishReason: "stop"}, nil
	}

	next := m.script[0]
	m.script = m.script[1:]
	return next.resp, next.err
}

// Requests returns a copy of every request seen so far, for assertions.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns how many Generate invocations were made.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
