package heading

import (
	"context"
	"sync"

	"go.viam.com/direction/utils"
)

// A Stream delivers headings on C, starting with the latest one. Headings are queued rather
// than dropped when the reader falls behind. C is closed once the stream is closed, the
// context it was opened with is done or the service is closed.
type Stream struct {
	c      chan float64
	wake   chan struct{}
	parent context.Context

	mu    sync.Mutex
	queue []float64

	detachOnce  sync.Once
	unsubscribe func()
	onDetach    func()

	workers *utils.StoppableWorkers
}

func newStream(ctx context.Context, broadcaster *Broadcaster, onDetach func()) *Stream {
	s := &Stream{
		c:        make(chan float64),
		wake:     make(chan struct{}, 1),
		parent:   ctx,
		onDetach: onDetach,
	}
	s.unsubscribe = broadcaster.Subscribe(s.push)
	s.workers = utils.NewStoppableWorkers(s.pump)
	return s
}

// newClosedStream returns a stream that delivers nothing.
func newClosedStream() *Stream {
	s := &Stream{c: make(chan float64)}
	close(s.c)
	s.detachOnce.Do(func() {})
	s.workers = utils.NewStoppableWorkers()
	s.workers.Stop()
	return s
}

// C returns the channel headings are delivered on.
func (s *Stream) C() <-chan float64 {
	return s.c
}

// Close detaches the stream and waits for C to be closed. Close is safe to call more than once.
func (s *Stream) Close() {
	s.workers.Stop()
}

func (s *Stream) push(value float64) {
	s.mu.Lock()
	s.queue = append(s.queue, value)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Stream) next() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return 0, false
	}
	value := s.queue[0]
	s.queue = s.queue[1:]
	return value, true
}

func (s *Stream) pump(ctx context.Context) {
	defer close(s.c)
	defer s.detach()

	for {
		value, ok := s.next()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.parent.Done():
				return
			case <-s.wake:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-s.parent.Done():
			return
		case s.c <- value:
		}
	}
}

func (s *Stream) detach() {
	s.detachOnce.Do(func() {
		s.unsubscribe()
		s.onDetach()
	})
}
