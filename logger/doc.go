// Package logger provides structured logging for the pipeline engine,
// built on zerolog. It supports console and JSON output and carries
// run/stage/step context as structured fields.
package logger
