// Package proc executes external commands for pipeline steps. It captures
// stdout, stderr and the exit code, kills the whole process tree on context
// cancellation (SIGTERM, then SIGKILL after a grace period), and supports
// step-declared retry with exponential backoff. The engine never interprets
// command semantics beyond the exit status.
package proc
