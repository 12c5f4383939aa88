// Package workqueue provides the bounded worker pool that executes document
// pipeline runs off the API request path. Submission is non-blocking: a full
// queue surfaces backpressure to the caller instead of stalling the HTTP
// handler.
package workqueue

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"echonexus/internal/config"
	"echonexus/internal/logging"
)

var (
	// ErrQueueFull signals backpressure; the caller should retry later.
	ErrQueueFull = errors.New("work queue is full")
	// ErrStopped signals submission after shutdown began.
	ErrStopped = errors.New("work queue is stopped")
)

// Job is one queued unit of work. The ctx passed in is the pool's run
// context, not the submitting request's, so jobs outlive their requests.
type Job func(ctx context.Context)

// Submitter is the narrow interface handed to producers.
type Submitter interface {
	Submit(job Job) error
}

// Pool runs submitted jobs on a fixed set of workers over a bounded queue.
type Pool struct {
	logger  *slog.Logger
	workers int

	mu      sync.Mutex
	jobs    chan Job
	stopped bool
	wg      sync.WaitGroup
}

// NewPool sizes the pool from workflow config.
func NewPool(cfg *config.Config, logger *slog.Logger) *Pool {
	workers := cfg.Workflow.Workers
	if workers < 1 {
		workers = 1
	}
	capacity := cfg.Workflow.QueueCapacity
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		logger:  logging.NewComponentLogger(logger, "workqueue"),
		workers: workers,
		jobs:    make(chan Job, capacity),
	}
}

// Start launches the workers. Jobs run under ctx; canceling it interrupts
// in-flight work but queued jobs still drain on Stop.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.logger.Info("worker pool started", logging.Args(logging.Int("workers", p.workers))...)
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(ctx, id, job)
	}
}

func (p *Pool) run(ctx context.Context, id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", logging.Args(
				logging.Int("worker", id),
				logging.Any("panic", r),
			)...)
		}
	}()
	job(ctx)
}

// Submit enqueues a job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop rejects further submissions, drains queued jobs, and waits for the
// workers to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Synchronous runs jobs inline on Submit. Used by tests and one-shot CLI
// paths where queueing adds nothing.
type Synchronous struct {
	Ctx context.Context
}

func (s Synchronous) Submit(job Job) error {
	ctx := s.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	job(ctx)
	return nil
}
