// ABOUTME: Background worker pool that runs blocking store and network work
// ABOUTME: Callers submit one unit of work and wait for its result or their own context

package dispatch

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when work is submitted after Shutdown.
var ErrClosed = errors.New("dispatch pool is shut down")

// Job represents a task to be executed by a worker.
type Job struct {
	Task func()
}

// Pool manages a fixed set of workers draining a job queue.
type Pool struct {
	workers   int
	jobQueue  chan Job
	waitGroup sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a Pool with the specified number of workers (at least one).
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	pool := &Pool{
		workers:  workers,
		jobQueue: make(chan Job, workers),
	}

	pool.waitGroup.Add(workers)
	for i := 0; i < workers; i++ {
		go pool.worker()
	}

	return pool
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) worker() {
	defer p.waitGroup.Done()
	for job := range p.jobQueue {
		job.Task()
	}
}

// Submit queues a task, blocking while the queue is full or until ctx is done.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	select {
	case p.jobQueue <- Job{Task: task}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting work and waits for queued jobs to finish.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.waitGroup.Wait()
}

type result[T any] struct {
	val T
	err error
}

// Do runs fn on the pool and waits for its result.
// If ctx is done first, Do returns ctx.Err() and fn still runs to completion;
// its result is discarded.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	done := make(chan result[T], 1)

	err := p.Submit(ctx, func() {
		val, err := fn()
		done <- result[T]{val: val, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Run is Do for work that produces no value.
func Run(ctx context.Context, p *Pool, fn func() error) error {
	_, err := Do(ctx, p, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
