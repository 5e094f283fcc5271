package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrPoolClosed = errors.New("worker pool closed")
	ErrQueueFull  = errors.New("worker pool queue is full")
)

// Job is one unit of background work. Its error is logged by the pool; jobs
// that need to surface failures record them somewhere durable themselves.
type Job func(ctx context.Context) error

// Pool runs jobs on a fixed number of goroutines fed by a bounded queue.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	closeMu sync.Mutex
	closed  bool
	logger  *zap.Logger
}

func New(workers, queue int, logger ...*zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	l := zap.L().Named("workerpool")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("workerpool")
	}
	return &Pool{
		jobs:    make(chan Job, queue),
		workers: workers,
		logger:  l,
	}
}

// Start launches the workers. They exit when ctx is done or after Close has
// drained the queue.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(worker int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					if err := p.run(ctx, job); err != nil {
						p.logger.Warn("background job failed", zap.Int("worker", worker), zap.Error(err))
					}
				}
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(ctx)
}

// TrySubmit queues the job or returns ErrQueueFull without waiting. It never
// blocks while holding the close lock, so Close cannot stall behind it.
func (p *Pool) TrySubmit(job Job) error {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Pool) Close() {
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.closeMu.Unlock()
	p.wg.Wait()
}
