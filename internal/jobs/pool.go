// Package jobs runs work off the main tick on a fixed set of workers.
package jobs

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/rustsim/internal/logger"
)

var (
	ErrNoWorkers         = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeQueueSize = errors.New("attempting to create worker pool with a negative queue size")
	ErrClosed            = errors.New("worker pool is shut down")
	ErrQueueFull         = errors.New("worker pool queue is full")
)

// Task is one unit of work. A returned error or a panic is reported to
// OnFailure; OnComplete runs only on success. Both callbacks run on the
// worker goroutine.
type Task struct {
	Name       string
	Run        func() error
	OnComplete func()
	OnFailure  func(error)
}

// Pool is a fixed-size worker pool fed through a buffered channel.
type Pool struct {
	numWorkers int
	queue      chan Task
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewPool starts numWorkers workers reading from a queue of queueSize.
func NewPool(numWorkers, queueSize int) (*Pool, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if queueSize < 0 {
		return nil, ErrNegativeQueueSize
	}

	p := &Pool{
		numWorkers: numWorkers,
		queue:      make(chan Task, queueSize),
	}
	p.start()
	return p, nil
}

func (p *Pool) start() {
	log := logger.Named("jobs")
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.queue {
				if err := Execute(task); err != nil {
					p.failed.Add(1)
					log.Warn("job failed", zap.String("job", task.Name), zap.Error(err))
					continue
				}
				p.completed.Add(1)
			}
		}()
	}
}

// Execute runs the task on the calling goroutine, turning a panic into an
// error, and invokes the matching callback.
func Execute(task Task) error {
	err := run(task)
	if err != nil {
		if task.OnFailure != nil {
			task.OnFailure(err)
		}
		return err
	}
	if task.OnComplete != nil {
		task.OnComplete()
	}
	return nil
}

func run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job %q: %v", task.Name, r)
		}
	}()
	return task.Run()
}

// Submit queues a task, blocking while the queue is full.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.queue <- task
	return nil
}

// TrySubmit queues a task without blocking. It returns ErrQueueFull when
// no worker or queue slot is free.
func (p *Pool) TrySubmit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for queued and in-flight tasks.
// There is no timeout.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Workers returns the number of workers.
func (p *Pool) Workers() int {
	return p.numWorkers
}

// Completed returns how many tasks succeeded.
func (p *Pool) Completed() uint64 {
	return p.completed.Load()
}

// Failed returns how many tasks returned an error or panicked.
func (p *Pool) Failed() uint64 {
	return p.failed.Load()
}
