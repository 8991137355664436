package constants

// JobStatus is the status of one order file in a batch run.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusOK      JobStatus = "OK"     // interpreted
	JobStatusFailed  JobStatus = "FAILED" // terminal failure
)

// Source tells where the draft that reached the merger came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)
