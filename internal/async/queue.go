package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/order-interpreter/constants"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/pipeline"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one order text waiting for interpretation.
type Job struct {
	ID          uuid.UUID
	SourcePath  string
	Text        string
	Channel     string
	SubmittedAt time.Time
}

// NewJob stamps a job with a fresh ID and the submission time.
func NewJob(sourcePath, text, channel string) Job {
	return Job{ID: uuid.New(), SourcePath: sourcePath, Text: text, Channel: channel, SubmittedAt: time.Now()}
}

// Result is the outcome of one job. Order is set only when Status is OK.
type Result struct {
	Job        Job
	Status     constants.JobStatus
	Order      *entity.Order
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Interpreter is what the workers run for every job.
type Interpreter interface {
	Interpret(ctx context.Context, req pipeline.Request) (*entity.Order, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
