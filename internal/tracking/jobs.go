package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher hands work off for execution outside the request path. The
// ingestion handler uses it to run predictability analysis after a trip is
// finalized without holding up the client.
type Dispatcher interface {
	Dispatch(name string, fn func(ctx context.Context) error)
}

// DispatcherFunc adapts a function to the Dispatcher interface. Tests use it
// to run jobs synchronously.
type DispatcherFunc func(name string, fn func(ctx context.Context) error)

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(name string, fn func(ctx context.Context) error) {
	f(name, fn)
}

type job struct {
	id   string
	name string
	fn   func(ctx context.Context) error
}

// Runner executes dispatched jobs on a single background goroutine. Jobs run
// in dispatch order; a full queue drops the job with a log entry rather than
// blocking the caller.
type Runner struct {
	jobs    chan job
	log     *zap.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewRunner starts a runner with the given queue capacity.
func NewRunner(capacity int, log *zap.Logger) *Runner {
	r := &Runner{
		jobs:    make(chan job, capacity),
		log:     log,
		timeout: 2 * time.Minute,
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

// Dispatch queues a job. Safe for concurrent use; a no-op after Close.
func (r *Runner) Dispatch(name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.log.Warn("job dispatched after shutdown", zap.String("job", name))
		return
	}
	j := job{id: uuid.NewString(), name: name, fn: fn}
	select {
	case r.jobs <- j:
	default:
		r.log.Error("job queue full, dropping job",
			zap.String("job", name),
			zap.String("job_id", j.id),
		)
	}
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()
	<-r.done
}

func (r *Runner) loop() {
	defer close(r.done)
	for j := range r.jobs {
		r.run(j)
	}
}

func (r *Runner) run(j job) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("job panicked",
				zap.String("job", j.name),
				zap.String("job_id", j.id),
				zap.Any("panic", rec),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		r.log.Error("job failed",
			zap.String("job", j.name),
			zap.String("job_id", j.id),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	r.log.Debug("job finished",
		zap.String("job", j.name),
		zap.String("job_id", j.id),
		zap.Duration("elapsed", time.Since(start)),
	)
}
