package stream

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"go.viam.com/direction/logging"
	"go.viam.com/direction/sensor"
)

// lineServer accepts connections and writes each of lines to them.
func lineServer(t *testing.T, lines ...string) (string, <-chan net.Conn) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)

	var mu sync.Mutex
	var accepted []net.Conn
	t.Cleanup(func() {
		listener.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range accepted {
			conn.Close()
		}
	})

	conns := make(chan net.Conn, 10)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			accepted = append(accepted, conn)
			mu.Unlock()
			for _, line := range lines {
				fmt.Fprintln(conn, line)
			}
			select {
			case conns <- conn:
			default:
			}
		}
	}()
	return listener.Addr().String(), conns
}

type collector struct {
	mu       sync.Mutex
	readings []sensor.Reading
}

func (c *collector) handle(r sensor.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readings = append(c.readings, r)
}

func (c *collector) values() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	values := make([]float64, 0, len(c.readings))
	for _, r := range c.readings {
		values = append(values, r.Value)
	}
	return values
}

func TestStreamSource(t *testing.T) {
	ctx := context.Background()
	addr, _ := lineServer(t, "10", "", "garbage", "20.5,2", "30 1")

	s, err := NewSource(Config{Address: addr}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Describe(), test.ShouldResemble, sensor.Description{Model: Model, Path: addr})

	present, err := s.Present(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, present, test.ShouldBeTrue)

	var c collector
	test.That(t, s.Start(ctx, c.handle, 0), test.ShouldBeNil)
	test.That(t, s.Start(ctx, c.handle, 0), test.ShouldNotBeNil)

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, c.values(), test.ShouldResemble, []float64{10, 20.5, 30})
	})
	c.mu.Lock()
	test.That(t, c.readings[1].Accuracy, test.ShouldEqual, sensor.AccuracyMedium)
	test.That(t, c.readings[2].Accuracy, test.ShouldEqual, sensor.AccuracyLow)
	c.mu.Unlock()

	test.That(t, s.Stop(ctx), test.ShouldBeNil)
	test.That(t, s.Stop(ctx), test.ShouldNotBeNil)
}

func TestStreamSourceThrottles(t *testing.T) {
	ctx := context.Background()
	addr, _ := lineServer(t, "1", "2", "3")

	s, err := NewSource(Config{Address: addr}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	var c collector
	test.That(t, s.Start(ctx, c.handle, time.Hour), test.ShouldBeNil)
	defer func() { test.That(t, s.Stop(ctx), test.ShouldBeNil) }()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, c.values(), test.ShouldResemble, []float64{1})
	})
}

func TestStreamSourceRestart(t *testing.T) {
	ctx := context.Background()
	addr, conns := lineServer(t, "5")

	s, err := NewSource(Config{Address: addr}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	for i := 0; i < 2; i++ {
		var c collector
		test.That(t, s.Start(ctx, c.handle, 0), test.ShouldBeNil)
		<-conns
		testutils.WaitForAssertion(t, func(tb testing.TB) {
			tb.Helper()
			test.That(tb, c.values(), test.ShouldResemble, []float64{5})
		})
		test.That(t, s.Stop(ctx), test.ShouldBeNil)
	}
}

func TestStreamSourceAbsent(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	test.That(t, err, test.ShouldBeNil)
	addr := listener.Addr().String()
	test.That(t, listener.Close(), test.ShouldBeNil)

	s, err := NewSource(Config{Address: addr, DialTimeout: time.Second}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	present, err := s.Present(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, present, test.ShouldBeFalse)
	test.That(t, s.Start(context.Background(), func(sensor.Reading) {}, 0), test.ShouldNotBeNil)
}

func TestConfigValidate(t *testing.T) {
	_, err := NewSource(Config{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "address")

	conf := Config{Address: "localhost:1", DialTimeout: -time.Second}
	test.That(t, conf.Validate("path"), test.ShouldNotBeNil)

	src, err := sensor.New(context.Background(), Model,
		map[string]interface{}{"address": "localhost:1", "dial_timeout": "250ms"}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src.(*Source).conf.DialTimeout, test.ShouldEqual, 250*time.Millisecond)
}

func TestParseLine(t *testing.T) {
	now := time.Now()
	for _, tc := range []struct {
		line     string
		ok       bool
		isErr    bool
		value    float64
		accuracy sensor.Accuracy
	}{
		{line: "", ok: false},
		{line: "   ", ok: false},
		{line: "12.5", ok: true, value: 12.5, accuracy: sensor.AccuracyHigh},
		{line: " 359.9 ", ok: true, value: 359.9, accuracy: sensor.AccuracyHigh},
		{line: "-4,0", ok: true, value: -4, accuracy: sensor.AccuracyUnreliable},
		{line: "90\t3", ok: true, value: 90, accuracy: sensor.AccuracyHigh},
		{line: "north", isErr: true},
		{line: "NaN", isErr: true},
		{line: "10,9", isErr: true},
		{line: "10,x", isErr: true},
		{line: "1,2,3", isErr: true},
	} {
		t.Run(tc.line, func(t *testing.T) {
			reading, ok, err := parseLine(tc.line, now)
			if tc.isErr {
				test.That(t, err, test.ShouldNotBeNil)
				return
			}
			test.That(t, err, test.ShouldBeNil)
			test.That(t, ok, test.ShouldEqual, tc.ok)
			if !ok {
				return
			}
			test.That(t, reading.Value, test.ShouldEqual, tc.value)
			test.That(t, reading.Accuracy, test.ShouldEqual, tc.accuracy)
			test.That(t, reading.Time, test.ShouldEqual, now)
		})
	}
}
