package worker

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Job is one unit of work. Jobs run on a pool goroutine, never on the caller's.
type Job func()

// Pool is a fixed-size worker pool with a bounded queue. Submit never blocks:
// when the queue is full the job is dropped.
type Pool struct {
	mu     sync.RWMutex
	jobs   chan job
	wg     sync.WaitGroup
	closed bool
	guard  func(func())
}

type job struct {
	name string
	run  Job
}

// New creates a pool of size workers and a queue of queue slots. size<=0
// means 1 (jobs then run in submission order); queue<=0 means 1.
// guard, if non-nil, wraps every job (the engine uses it to contain panics).
func New(size, queue int, guard func(func())) *Pool {
	if size <= 0 {
		size = 1
	}
	if queue <= 0 {
		queue = 1
	}
	if guard == nil {
		guard = func(fn func()) { fn() }
	}
	p := &Pool{jobs: make(chan job, queue), guard: guard}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				log.Debugf("Worker: running %s", j.name)
				p.guard(j.run)
			}
		}()
	}
}

// Submit enqueues fn if a queue slot is free. Returns false if dropped.
func (p *Pool) Submit(name string, fn Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job{name: name, run: fn}:
		return true
	default:
		log.Warnf("Worker: queue full, dropping %s", name)
		return false
	}
}

// Close stops the pool after draining queued work. Safe to call twice.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
