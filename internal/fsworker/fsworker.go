// Package fsworker is a bounded pool of background goroutines used to run
// blocking file I/O (open/read/write/close) off the event loop's single
// goroutine, handing results back to it through a caller-supplied post
// function. It plays the role libuv's fixed-size threadpool plays for
// uv_fs_t requests, sized down to a plain semaphore-gated goroutine pool
// since Go goroutines are cheap enough not to need a persistent worker
// pool of OS threads.
package fsworker

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Hooks lets the caller observe job lifecycle, e.g. to update Prometheus
// gauges. Either field may be nil.
type Hooks struct {
	Before func()
	After  func()
}

// Job is one unit of blocking work. Run executes on a background
// goroutine; Done is invoked with Run's result via the Pool's post
// function, which the caller arranges to run on the event loop's
// goroutine.
type Job struct {
	Run  func() (any, error)
	Done func(any, error)
}

// Pool bounds the number of concurrently in-flight blocking file jobs.
type Pool struct {
	sem   *semaphore.Weighted
	post  func(func())
	hooks Hooks
}

// New creates a Pool allowing at most n concurrent jobs. post is called
// (from the job's background goroutine) with a closure that must be run on
// the event loop's goroutine - ordinarily Loop.postCompletion.
func New(n int, post func(func()), hooks Hooks) *Pool {
	if n <= 0 {
		n = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n)), post: post, hooks: hooks}
}

// Submit runs job.Run on a background goroutine, gated by the pool's
// concurrency limit, then posts job.Done back through the pool's post
// function once it completes.
func (p *Pool) Submit(job Job) {
	go func() {
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			p.post(func() { job.Done(nil, err) })
			return
		}
		if p.hooks.Before != nil {
			p.hooks.Before()
		}
		defer p.sem.Release(1)
		value, err := job.Run()
		if p.hooks.After != nil {
			p.hooks.After()
		}
		p.post(func() { job.Done(value, err) })
	}()
}
