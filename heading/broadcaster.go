package heading

import (
	"sync"

	"github.com/samber/lo"
)

type subscriber struct {
	id int
	fn func(float64)
}

// A Broadcaster holds the latest heading and pushes every new one to its subscribers. New
// subscribers are first given the latest heading, which starts at 0.
type Broadcaster struct {
	mu          sync.Mutex
	latest      float64
	nextID      int
	subscribers []subscriber
}

// NewBroadcaster returns a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe calls fn with the latest heading and then with every published heading until the
// returned function is called. fn runs with the broadcaster locked: it must not block and must
// not call back into the broadcaster.
func (b *Broadcaster) Subscribe(fn func(float64)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers = append(b.subscribers, subscriber{id: id, fn: fn})
	fn(b.latest)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.subscribers = lo.Filter(b.subscribers, func(s subscriber, _ int) bool {
				return s.id != id
			})
		})
	}
}

// Publish sets the latest heading and hands it to every subscriber in subscription order.
func (b *Broadcaster) Publish(value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = value
	for _, s := range b.subscribers {
		s.fn(value)
	}
}

// Latest returns the last published heading.
func (b *Broadcaster) Latest() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Subscribers returns how many subscribers are attached.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
