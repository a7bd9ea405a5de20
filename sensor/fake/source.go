// Package fake implements a fake orientation source whose readings are pushed by the caller.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.viam.com/direction/logging"
	"go.viam.com/direction/sensor"
)

// Model is the registered model name of the fake source.
const Model = sensor.Model("fake")

// Config is the attributes of a fake source.
type Config struct {
	// Absent makes the source report that no sensor exists.
	Absent bool `json:"absent,omitempty"`
}

func init() {
	sensor.Register(Model, func(
		ctx context.Context,
		attributes map[string]interface{},
		logger logging.Logger,
	) (sensor.Source, error) {
		var conf Config
		if err := sensor.DecodeAttributes(attributes, &conf); err != nil {
			return nil, err
		}
		return NewSource(!conf.Absent, logger), nil
	})
}

// Source is a fake sensor.Source. It counts every call so tests can check how it was driven.
type Source struct {
	logger logging.Logger

	present    atomic.Bool
	presentErr atomic.Error
	startErr   atomic.Error

	probes atomic.Int32
	starts atomic.Int32
	stops  atomic.Int32

	mu      sync.Mutex
	handler sensor.Handler
	period  time.Duration
}

// NewSource returns a fake source that is stopped and reports the given presence.
func NewSource(present bool, logger logging.Logger) *Source {
	s := &Source{logger: logger}
	s.present.Store(present)
	return s
}

// SetPresent changes what Present reports.
func (s *Source) SetPresent(present bool) {
	s.present.Store(present)
}

// SetPresentError makes Present fail with err. A nil err clears it.
func (s *Source) SetPresentError(err error) {
	s.presentErr.Store(err)
}

// SetStartError makes Start fail with err. A nil err clears it.
func (s *Source) SetStartError(err error) {
	s.startErr.Store(err)
}

// Present reports the configured presence.
func (s *Source) Present(ctx context.Context) (bool, error) {
	s.probes.Inc()
	if err := s.presentErr.Load(); err != nil {
		return false, err
	}
	return s.present.Load(), nil
}

// Start records the handler readings will be emitted to.
func (s *Source) Start(ctx context.Context, handler sensor.Handler, period time.Duration) error {
	s.starts.Inc()
	if err := s.startErr.Load(); err != nil {
		return err
	}
	if !s.present.Load() {
		return sensor.ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler != nil {
		return errors.New("fake source already started")
	}
	s.handler = handler
	s.period = period
	s.logger.Debugw("fake source started", "period", period)
	return nil
}

// Stop forgets the handler.
func (s *Source) Stop(ctx context.Context) error {
	s.stops.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handler == nil {
		return errors.New("fake source not started")
	}
	s.handler = nil
	s.logger.Debug("fake source stopped")
	return nil
}

// Describe returns a description of the fake source.
func (s *Source) Describe() sensor.Description {
	return sensor.Description{Model: Model}
}

// Emit delivers a high accuracy reading with the given value. It reports false if the source is
// not started.
func (s *Source) Emit(value float64) bool {
	return s.EmitReading(sensor.Reading{Value: value, Accuracy: sensor.AccuracyHigh, Time: time.Now()})
}

// EmitReading delivers a reading. It reports false if the source is not started.
func (s *Source) EmitReading(reading sensor.Reading) bool {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(reading)
	return true
}

// Running reports whether the source is started.
func (s *Source) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler != nil
}

// Period returns the period given to the last successful Start.
func (s *Source) Period() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period
}

// Probes returns how many times Present was called.
func (s *Source) Probes() int {
	return int(s.probes.Load())
}

// Starts returns how many times Start was called.
func (s *Source) Starts() int {
	return int(s.starts.Load())
}

// Stops returns how many times Stop was called.
func (s *Source) Stops() int {
	return int(s.stops.Load())
}
