package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// StoppableWorkers is a set of goroutines sharing one context, which Stop cancels.
type StoppableWorkers struct {
	cancelCtx  context.Context
	cancelFunc func()
	running    sync.WaitGroup
}

// NewStoppableWorkers runs each function on its own goroutine with a context that is cancelled
// by Stop. A panicking function is logged and counted as returned.
func NewStoppableWorkers(funcs ...func(context.Context)) *StoppableWorkers {
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	sw := &StoppableWorkers{cancelCtx: cancelCtx, cancelFunc: cancelFunc}
	sw.running.Add(len(funcs))
	for _, f := range funcs {
		goutils.PanicCapturingGo(func() {
			defer sw.running.Done()
			f(sw.cancelCtx)
		})
	}
	return sw
}

// Stop cancels the workers' context and waits for every worker to return. It may be called
// more than once.
func (sw *StoppableWorkers) Stop() {
	sw.cancelFunc()
	sw.running.Wait()
}

// Context returns the context handed to the workers.
func (sw *StoppableWorkers) Context() context.Context {
	return sw.cancelCtx
}
