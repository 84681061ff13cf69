package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrPoolShutDown is returned when submitting to a pool that was shut down
var ErrPoolShutDown = errors.New("worker pool shut down")

var (
	loggerMu sync.RWMutex
	logger   = logrus.StandardLogger()
)

// SetLogger replaces the logger used for task errors and panics
func SetLogger(l *logrus.Logger) {
	if l == nil {
		return
	}
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

func currentLogger() *logrus.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SafeGo executes fn in a goroutine bounded by timeout, recovering panics and
// logging the returned error.
//
// Example:
//
//	SafeGo(ctx, 5*time.Second, "registry reload", func(ctx context.Context) error {
//	    return scheduler.RefreshAll(ctx)
//	})
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		if err := run(ctx, taskName, fn); err != nil {
			currentLogger().WithError(err).WithField("task", taskName).Error("Background task failed")
		}
	}()
}

// run executes fn and turns a panic into an error
func run(ctx context.Context, taskName string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			currentLogger().WithFields(logrus.Fields{
				"task":  taskName,
				"stack": string(debug.Stack()),
			}).Errorf("Panic in background task: %v", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// WorkerPool manages a pool of workers that process tasks from a queue.
type WorkerPool struct {
	taskName     string
	timeout      time.Duration
	workCh       chan func(context.Context) error
	doneCh       chan struct{}
	ctx          context.Context
	cancel       context.CancelFunc
	mu           sync.RWMutex
	closed       bool
	shutdownOnce sync.Once
}

// NewWorkerPool starts workers goroutines with a queue of queueSize pending tasks.
// Each task runs with its own timeout.
//
// Example:
//
//	pool := NewWorkerPool(ctx, 2, 100, "administration mail", 30*time.Second)
//	defer pool.Shutdown(5 * time.Second)
//
//	pool.Submit(func(ctx context.Context) error {
//	    return deliver(ctx, msg)
//	})
func NewWorkerPool(ctx context.Context, workers, queueSize int, taskName string, timeout time.Duration) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		taskName: taskName,
		timeout:  timeout,
		workCh:   make(chan func(context.Context) error, queueSize),
		doneCh:   make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	go func() {
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				pool.worker(id)
			}(i)
		}
		wg.Wait()
		close(pool.doneCh)
	}()

	return pool
}

// Submit queues a task. It blocks while the queue is full and fails once the
// pool is shut down.
func (p *WorkerPool) Submit(fn func(context.Context) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolShutDown
	}

	select {
	case p.workCh <- fn:
		return nil
	case <-p.ctx.Done():
		return ErrPoolShutDown
	}
}

// Shutdown stops accepting tasks and waits up to timeout for queued tasks to finish.
func (p *WorkerPool) Shutdown(timeout time.Duration) error {
	var shutdownErr error

	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.workCh)
		p.mu.Unlock()

		select {
		case <-p.doneCh:
			p.cancel()
		case <-time.After(timeout):
			p.cancel()
			shutdownErr = fmt.Errorf("worker pool shutdown timed out after %v", timeout)
		}
	})

	return shutdownErr
}

func (p *WorkerPool) worker(id int) {
	for {
		select {
		case <-p.ctx.Done():
			return

		case fn, ok := <-p.workCh:
			if !ok {
				return
			}

			ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
			err := run(ctx, p.taskName, fn)
			cancel()
			if err != nil {
				currentLogger().WithError(err).WithFields(logrus.Fields{
					"task":   p.taskName,
					"worker": id,
				}).Error("Worker task failed")
			}
		}
	}
}
