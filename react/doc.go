// Package react implements the think-act-observe loop that drives one agent
// from a task string to a final answer or a terminal failure.
//
// Each cycle asks the bound model to either answer or select a tool call; tool
// calls are dispatched through the agent's tools and their results fed back as
// observations. Tool failures are folded into observations rather than ending
// the loop, so the model can retry with different arguments, pick another tool
// or give up on its own. Only two things terminate the loop early: a model
// transport failure and context cancellation. The full trace is retained and
// returned whatever the outcome.
//
// The model call is the loop's single suspension point; everything else,
// including tool dispatch, is a plain blocking call from the loop's
// perspective. Hosts run multiple loops concurrently by running multiple
// goroutines, typically through the background package.
package react
