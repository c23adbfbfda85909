// Package engine executes pipelines: it schedules stages level by level on a
// bounded worker pool, runs each stage's steps as external commands, wires
// artifacts between stages through the run-scoped store, and records the run
// outcome per stage and step.
package engine
