// Package observability provides OpenTelemetry tracing for pipeline runs.
// A span is created per run, stage and step. Export is OTLP over HTTP and is
// disabled unless an endpoint is configured; without an installed provider
// all spans are no-ops.
package observability
