package utils

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/direction/logging"
)

// ErrWorkerStopped is returned when work is handed to a SerialWorker that has been stopped.
var ErrWorkerStopped = errors.New("serial worker stopped")

// SerialWorker runs submitted tasks one at a time, in submission order, on a single dedicated
// goroutine. State touched only from tasks needs no further locking. Dispatch never blocks the
// caller.
type SerialWorker struct {
	name   string
	logger logging.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}

	workers *StoppableWorkers
}

// NewSerialWorker starts a worker goroutine. The name shows up in the worker's logs.
func NewSerialWorker(name string, logger logging.Logger) *SerialWorker {
	w := &SerialWorker{
		name:   name,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
	w.workers = NewStoppableWorkers(w.run)
	return w
}

// Name returns the worker's name.
func (w *SerialWorker) Name() string {
	return w.name
}

// Context returns a context that is cancelled when the worker stops. Tasks pass it to blocking
// calls they make.
func (w *SerialWorker) Context() context.Context {
	return w.workers.Context()
}

// Dispatch queues a task and returns immediately. It reports false if the worker is stopped, in
// which case the task will never run.
func (w *SerialWorker) Dispatch(task func()) bool {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, task)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// Do queues a task and waits for it to finish, for ctx to be done or for the worker to stop.
func (w *SerialWorker) Do(ctx context.Context, task func()) error {
	done := make(chan struct{})
	if !w.Dispatch(func() {
		defer close(done)
		task()
	}) {
		return ErrWorkerStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.workers.Context().Done():
		// The task may have been the last thing the worker ran before stopping.
		select {
		case <-done:
			return nil
		default:
			return ErrWorkerStopped
		}
	}
}

// Stop stops accepting tasks, waits for the running task (if any) to return and discards
// anything still queued.
func (w *SerialWorker) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	w.workers.Stop()

	w.mu.Lock()
	dropped := len(w.queue)
	w.queue = nil
	w.mu.Unlock()
	if dropped > 0 {
		w.logger.Debugw("discarded queued tasks on stop", "worker", w.name, "count", dropped)
	}
}

func (w *SerialWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}

		for {
			if ctx.Err() != nil {
				return
			}
			task, ok := w.next()
			if !ok {
				break
			}
			w.runTask(task)
		}
	}
}

func (w *SerialWorker) next() (func(), bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil, false
	}
	task := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return task, true
}

func (w *SerialWorker) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorw("task panicked", "worker", w.name, "panic", r)
		}
	}()
	task()
}
