package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler runs deferred maintenance work for caches.
//
// Schedule must not block. It returns false when the task will never run,
// for example because the scheduler was stopped.
type Scheduler interface {
	Schedule(delay time.Duration, task func()) bool
}

type workerConfig struct {
	queueSize int
	logger    *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*workerConfig)

// WithQueueSize sets how many due tasks may wait for the worker (default: 64).
func WithQueueSize(size int) WorkerOption {
	return func(c *workerConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithWorkerLogger sets the logger used when a task panics.
func WithWorkerLogger(l *slog.Logger) WorkerOption {
	return func(c *workerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Worker is a single background goroutine that runs scheduled tasks one at
// a time. Delays are armed with timers; a task that comes due is handed to
// the worker goroutine, never run on the timer goroutine.
//
// A Worker may be shared by several caches through WithScheduler.
// Call Stop to release it.
type Worker struct {
	tasks chan func()
	log   *slog.Logger

	// Goroutine ownership.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once
}

// NewWorker starts a worker goroutine.
//
// NewWorker never returns a nil Worker.
func NewWorker(opts ...WorkerOption) *Worker {
	cfg := workerConfig{queueSize: 64, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		tasks:  make(chan func(), cfg.queueSize),
		log:    cfg.logger,
		ctx:    ctx,
		cancel: cancel,
	}

	w.wg.Add(1)
	go w.loop()

	return w
}

// Schedule runs task on the worker goroutine once delay has elapsed.
// A task that comes due after Stop is dropped.
func (w *Worker) Schedule(delay time.Duration, task func()) bool {
	if w.ctx.Err() != nil {
		return false
	}
	// Even a zero delay goes through a timer so the caller never waits on a
	// full queue.
	time.AfterFunc(delay, func() {
		select {
		case <-w.ctx.Done():
		case w.tasks <- task:
		}
	})
	return true
}

// Stop terminates the worker and waits for a running task to finish.
// Queued and pending tasks are discarded. Stop is safe to call multiple
// times but must not be called from inside a task.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		w.wg.Wait()
	})
}

// Stopped reports whether Stop has been called.
func (w *Worker) Stopped() bool {
	return w.ctx.Err() != nil
}

func (w *Worker) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.tasks:
			// select picks randomly when both are ready.
			if w.ctx.Err() != nil {
				return
			}
			w.run(task)
		}
	}
}

func (w *Worker) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			// log the panic but keep serving tasks
			w.log.Error("scheduled task panicked", slog.Any("recovered", r))
		}
	}()
	task()
}

var _ Scheduler = (*Worker)(nil)
