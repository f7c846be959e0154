// Package workerpool implements a wrapper around an OS thread pool
// that performs blocking work off the main event loop and posts
// exactly one completion or cancellation callback per submitted job
// back for the caller's event loop to drain.
//
// A fixed set of worker goroutines pulls jobs from a buffered channel;
// there is no Get/Put lifecycle and no idle-timeout eviction. The same
// worker-pool-around-a-blocking-resource shape fits serialized disk
// writes just as well as connection setup.
package workerpool

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Job is one unit of blocking work. Fn runs on a pool goroutine; Data
// is opaque caller context threaded through to the completion.
type Job struct {
	Data string // an opaque label; real payloads travel via closures in Fn
	Fn   func(ctx context.Context) (any, error)

	cancelled int32
	quit      int32
}

// NewJob wraps fn as a pool job labeled by data (used only for logging
// and for matching completions back to callers).
func NewJob(data string, fn func(ctx context.Context) (any, error)) *Job {
	return &Job{Data: data, Fn: fn}
}

// Cancel requests cancellation: a job cancelled before a worker picks it
// up is not run, and a job cancelled while running delivers a
// cancellation instead of its result. The ctx passed to Fn is not
// cancelled by it.
func (j *Job) Cancel() { atomic.StoreInt32(&j.cancelled, 1) }

// GracelesslyQuit marks the job so that, once it completes, neither
// completion callback fires -- a process-exit facility to avoid
// calling back into a dying event loop.
func (j *Job) GracelesslyQuit() {
	atomic.StoreInt32(&j.cancelled, 1)
	atomic.StoreInt32(&j.quit, 1)
}

func (j *Job) isCancelled() bool { return atomic.LoadInt32(&j.cancelled) != 0 }
func (j *Job) isGraceless() bool { return atomic.LoadInt32(&j.quit) != 0 }

// outcome is either a completion or a cancellation, matching exactly
// one delivery per submitted job.
type outcome int

const (
	outcomeComplete outcome = iota
	outcomeCancelled
)

// Completion is posted to the pool's Completions channel for the
// caller's event loop to drain on its own thread.
type Completion struct {
	Job     *Job
	Outcome outcome
	Result  any
	Err     error
}

func (c Completion) Cancelled() bool { return c.Outcome == outcomeCancelled }

// Pool runs jobs on a fixed number of goroutines and reports results
// through a single Completions channel, simulating "posted back to the
// main thread" in a event-loop-driven core.
type Pool struct {
	jobs        chan *Job
	completions chan Completion
	wg          sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New starts workers goroutines, each pulling from a shared job queue.
func New(workers int, queueDepth int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		jobs:        make(chan *Job, queueDepth),
		completions: make(chan Completion, queueDepth),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.runWorker()
	}
	return p
}

func (p *Pool) runWorker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.runJob(job)
	}
}

func (p *Pool) runJob(job *Job) {
	if job.isCancelled() && !job.isGraceless() {
		p.completions <- Completion{Job: job, Outcome: outcomeCancelled}
		return
	}
	if job.isGraceless() {
		// Suppressed entirely: run it so side effects complete (e.g. a
		// half-open socket gets closed) but never post a callback.
		_, _ = job.Fn(context.Background())
		return
	}

	result, err := job.Fn(context.Background())
	if job.isCancelled() {
		if job.isGraceless() {
			return
		}
		p.completions <- Completion{Job: job, Outcome: outcomeCancelled}
		return
	}
	p.completions <- Completion{Job: job, Outcome: outcomeComplete, Result: result, Err: err}
}

// Submit enqueues job for execution. Submitting to a closed pool drops
// the job and logs rather than panicking, since Submit has no
// synchronous result to carry an error in.
func (p *Pool) Submit(job *Job) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		log.Printf("[WORKERPOOL] dropping job %q submitted to a closed pool", job.Data)
		return
	}
	p.jobs <- job
}

// Completions is the channel the owning event loop drains. Jobs may
// complete in any order relative to submission.
func (p *Pool) Completions() <-chan Completion { return p.completions }

// Close blocks until every worker observes the close and exits.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
	close(p.completions)
}

// Drain blocks until ctx is done or a completion arrives, returning
// (Completion{}, false) on cancellation. Convenience for callers that
// want to wait on a context rather than range over Completions().
func Drain(p *Pool, ctx context.Context) (Completion, bool) {
	select {
	case c, ok := <-p.completions:
		return c, ok
	case <-ctx.Done():
		return Completion{}, false
	}
}
