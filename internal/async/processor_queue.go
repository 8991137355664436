// Package async runs order interpretations on a bounded worker pool.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/order-interpreter/constants"
	"github.com/joseph-ayodele/order-interpreter/internal/common"
	"github.com/joseph-ayodele/order-interpreter/internal/entity"
	"github.com/joseph-ayodele/order-interpreter/internal/metrics"
	"github.com/joseph-ayodele/order-interpreter/internal/pipeline"
)

type ProcessorQueue struct {
	proc     Interpreter
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	metrics  *metrics.Metrics
	onResult func(Result)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex // guards closed and sends on ch
	closed bool

	resMu   sync.Mutex
	order   []uuid.UUID
	results map[uuid.UUID]*Result
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *ProcessorQueue) { q.metrics = m }
}

// WithResultHandler is called from the worker goroutine after each job.
func WithResultHandler(fn func(Result)) Option {
	return func(q *ProcessorQueue) { q.onResult = fn }
}

func NewProcessorQueue(proc Interpreter, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		results: map[uuid.UUID]*Result{},
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("batch.worker.started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("batch.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	started := time.Now()
	q.update(job.ID, func(r *Result) {
		r.Status = constants.JobStatusRunning
		r.StartedAt = started
	})

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	ctx = common.WithRequestID(ctx, job.ID.String())
	ctx = common.WithChannel(ctx, job.Channel)
	out, err := q.proc.Interpret(ctx, pipeline.Request{Text: job.Text, Channel: job.Channel})
	cancel()

	if err != nil {
		q.logger.Error("batch.job.failed", "worker_id", workerID, "job_id", job.ID, "path", job.SourcePath, "error", err)
	} else {
		q.logger.Info("batch.job.ok", "worker_id", workerID, "job_id", job.ID, "path", job.SourcePath, "pedido_id", out.OrderID)
	}
	q.finish(job.ID, out, err)
}

// Enqueue registers job as QUEUED and hands it to the workers, blocking
// while the buffer is full.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("batch.enqueue.closed", "job_id", job.ID)
		return ErrQueueClosed
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.resMu.Lock()
	q.track(job, constants.JobStatusQueued)
	q.resMu.Unlock()

	select {
	case q.ch <- job:
		return nil
	default:
		q.logger.Warn("batch.queue.full", "job_id", job.ID)
	}
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		q.update(job.ID, func(r *Result) {
			r.Status = constants.JobStatusFailed
			r.Err = ctx.Err()
		})
		return ctx.Err()
	}
}

// Reject records a job that never reached the workers, such as an
// unreadable file.
func (q *ProcessorQueue) Reject(job Job, err error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	q.resMu.Lock()
	q.track(job, constants.JobStatusQueued)
	q.resMu.Unlock()
	q.finish(job.ID, nil, err)
}

// Status reports the current status of a job.
func (q *ProcessorQueue) Status(id uuid.UUID) (constants.JobStatus, bool) {
	q.resMu.Lock()
	defer q.resMu.Unlock()
	r, ok := q.results[id]
	if !ok {
		return "", false
	}
	return r.Status, true
}

// Results returns a snapshot of every job in submission order.
func (q *ProcessorQueue) Results() []Result {
	q.resMu.Lock()
	defer q.resMu.Unlock()
	out := make([]Result, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, *q.results[id])
	}
	return out
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("batch.shutdown.interrupted")
	case <-done:
		q.logger.Info("batch.shutdown.drained")
	}
}

// track must be called with q.resMu held.
func (q *ProcessorQueue) track(job Job, status constants.JobStatus) {
	if _, ok := q.results[job.ID]; !ok {
		q.order = append(q.order, job.ID)
	}
	q.results[job.ID] = &Result{Job: job, Status: status}
}

func (q *ProcessorQueue) update(id uuid.UUID, fn func(*Result)) {
	q.resMu.Lock()
	defer q.resMu.Unlock()
	if r, ok := q.results[id]; ok {
		fn(r)
	}
}

func (q *ProcessorQueue) finish(id uuid.UUID, out *entity.Order, err error) {
	var snapshot Result
	q.update(id, func(r *Result) {
		r.FinishedAt = time.Now()
		if err != nil {
			r.Status = constants.JobStatusFailed
			r.Err = err
		} else {
			r.Status = constants.JobStatusOK
			r.Order = out
		}
		snapshot = *r
	})
	if q.metrics != nil {
		q.metrics.BatchJobs.WithLabelValues(string(snapshot.Status)).Inc()
	}
	if q.onResult != nil {
		q.onResult(snapshot)
	}
}
