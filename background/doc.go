// Package background supervises loop executions as durable, independently
// pollable runs.
//
// A host submits an agent task to an Executor and gets back a run identifier
// immediately. The executor drives the loop to completion out of band and
// records each reasoning step, tool dispatch and termination as an event with
// a per-run, strictly increasing sequence number. Consumers poll with their
// last seen sequence number and receive only newer events plus a cursor,
// so multiple observers can watch the same run, and a disconnected observer
// can resume, without interfering with the run or each other.
//
// Cancellation is cooperative. Cancel signals intent by cancelling the run's
// context; the loop stops at its next cycle boundary, so a tool dispatch
// already in flight finishes and its observation event is still recorded.
package background
