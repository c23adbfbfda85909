// Package artifact implements the write-once artifact store that passes
// files between pipeline stages. Names are registered exactly once;
// republishing under an existing name is an error. An artifact becomes
// fetchable only after its producing stage has succeeded: the executor
// stages outputs during step execution and commits them when the stage
// completes. Content is copied into a run-scoped directory that is removed
// when the run ends unless the store is configured to keep it.
package artifact
