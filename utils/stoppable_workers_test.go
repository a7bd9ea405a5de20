package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	var finished atomic.Int32
	started := make(chan struct{}, 3)
	worker := func(ctx context.Context) {
		started <- struct{}{}
		<-ctx.Done()
		finished.Inc()
	}
	sw := NewStoppableWorkers(worker, worker, worker)
	for i := 0; i < 3; i++ {
		<-started
	}
	test.That(t, sw.Context().Err(), test.ShouldBeNil)

	sw.Stop()
	test.That(t, finished.Load(), test.ShouldEqual, 3)
	test.That(t, sw.Context().Err(), test.ShouldEqual, context.Canceled)
	sw.Stop()
}

func TestStoppableWorkersPanic(t *testing.T) {
	sw := NewStoppableWorkers(func(context.Context) { panic("boom") })
	sw.Stop()
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)
}
