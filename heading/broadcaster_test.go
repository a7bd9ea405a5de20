package heading

import (
	"testing"

	"go.viam.com/test"
)

type recorder struct {
	values []float64
}

func (r *recorder) record(v float64) {
	r.values = append(r.values, v)
}

func TestBroadcasterReplaysLatest(t *testing.T) {
	b := NewBroadcaster()
	test.That(t, b.Latest(), test.ShouldEqual, 0)

	var first recorder
	unsubscribe := b.Subscribe(first.record)
	defer unsubscribe()
	test.That(t, first.values, test.ShouldResemble, []float64{0})

	b.Publish(10)
	b.Publish(20)
	test.That(t, b.Latest(), test.ShouldEqual, 20)

	var second recorder
	defer b.Subscribe(second.record)()
	b.Publish(30)

	test.That(t, first.values, test.ShouldResemble, []float64{0, 10, 20, 30})
	test.That(t, second.values, test.ShouldResemble, []float64{20, 30})
	test.That(t, b.Subscribers(), test.ShouldEqual, 2)
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	var a, c recorder
	unsubscribeA := b.Subscribe(a.record)
	unsubscribeC := b.Subscribe(c.record)
	b.Publish(1)

	unsubscribeA()
	unsubscribeA()
	test.That(t, b.Subscribers(), test.ShouldEqual, 1)
	b.Publish(2)

	test.That(t, a.values, test.ShouldResemble, []float64{0, 1})
	test.That(t, c.values, test.ShouldResemble, []float64{0, 1, 2})

	unsubscribeC()
	test.That(t, b.Subscribers(), test.ShouldEqual, 0)
	b.Publish(3)
	test.That(t, c.values, test.ShouldResemble, []float64{0, 1, 2})
	test.That(t, b.Latest(), test.ShouldEqual, 3)
}
