package sim

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"go.viam.com/direction/logging"
	"go.viam.com/direction/sensor"
)

func TestSimulatedSource(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	s := NewSource(Config{StartHeading: 350, DegreesPerSecond: 10}, clk, logging.NewTestLogger(t))

	present, err := s.Present(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeTrue)

	readings := make(chan sensor.Reading, 10)
	test.That(t, s.Start(ctx, func(r sensor.Reading) { readings <- r }, time.Second), test.ShouldBeNil)
	test.That(t, s.Start(ctx, func(r sensor.Reading) {}, time.Second), test.ShouldNotBeNil)

	clk.Add(time.Second)
	r := <-readings
	test.That(t, r.Value, test.ShouldAlmostEqual, 0)
	test.That(t, r.Accuracy, test.ShouldEqual, sensor.AccuracyHigh)

	clk.Add(time.Second)
	r = <-readings
	test.That(t, r.Value, test.ShouldAlmostEqual, 10)

	test.That(t, s.Stop(ctx), test.ShouldBeNil)
	clk.Add(5 * time.Second)
	select {
	case r := <-readings:
		t.Fatalf("unexpected reading after stop: %v", r)
	default:
	}
	test.That(t, s.Stop(ctx), test.ShouldNotBeNil)
}

func TestSimulatedSourceCounterClockwise(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMock()
	s := NewSource(Config{StartHeading: 5, DegreesPerSecond: -10}, clk, logging.NewTestLogger(t))

	values := make(chan float64, 10)
	test.That(t, s.Start(ctx, func(r sensor.Reading) { values <- r.Value }, 500*time.Millisecond), test.ShouldBeNil)
	defer func() { test.That(t, s.Stop(ctx), test.ShouldBeNil) }()

	clk.Add(500 * time.Millisecond)
	test.That(t, <-values, test.ShouldAlmostEqual, 0)

	clk.Add(500 * time.Millisecond)
	// 5 - 10*1 = -5 -> 355
	test.That(t, <-values, test.ShouldAlmostEqual, 355)
}

func TestSimulatedSourceBadPeriod(t *testing.T) {
	s := NewSource(Config{}, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, s.Start(context.Background(), func(sensor.Reading) {}, 0), test.ShouldNotBeNil)
}

func TestRegistered(t *testing.T) {
	src, err := sensor.New(context.Background(), Model,
		map[string]interface{}{"degrees_per_second": "2.5"}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src.(*Source).conf.DegreesPerSecond, test.ShouldEqual, 2.5)
}
