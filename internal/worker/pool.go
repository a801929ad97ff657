// Package worker provides a bounded task pool for durable writes. Pool size
// is meant to match the database connection capacity; when the queue is full
// the submitting goroutine runs the task itself, so work is never dropped.
package worker

import (
	"sync"

	"go.uber.org/zap"
)

// Pool runs tasks on a fixed set of workers fed by a bounded queue.
type Pool struct {
	tasks  chan func()
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	logger *zap.Logger
}

// NewPool starts workers goroutines reading from a queue of queueSize.
func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	p := &Pool{
		tasks:  make(chan func(), queueSize),
		logger: logger,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)

		go p.run(i)
	}

	return p
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		task()
	}

	p.logger.Debug("worker stopped", zap.Int("workerID", id))
}

// Submit enqueues a task. When the queue is full, or the pool has already
// shut down, the caller executes the task inline (backpressure instead of
// loss).
func (p *Pool) Submit(task func()) {
	p.mu.RLock()

	if p.closed {
		p.mu.RUnlock()
		p.logger.Warn("pool shut down, running on caller")
		task()

		return
	}

	select {
	case p.tasks <- task:
		p.mu.RUnlock()
	default:
		p.mu.RUnlock()
		p.logger.Warn("task queue full, running on caller")
		task()
	}
}

// Shutdown stops accepting work and waits for queued tasks to finish.
func (p *Pool) Shutdown() error {
	p.mu.Lock()

	if !p.closed {
		p.closed = true
		close(p.tasks)
	}

	p.mu.Unlock()
	p.wg.Wait()

	return nil
}
