package engine

// Status is the lifecycle state of a run, stage or step.
type Status string

const (
	// StatusPending means not yet scheduled.
	StatusPending Status = "pending"
	// StatusRunning means currently executing.
	StatusRunning Status = "running"
	// StatusSucceeded means finished with the expected outcome.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means a step exited unexpectedly or errored.
	StatusFailed Status = "failed"
	// StatusSkipped means the stage never ran because its condition did not
	// hold or the run was canceled first.
	StatusSkipped Status = "skipped"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	}
	return false
}
