// Package sim implements an orientation source that simulates a device turning at a constant
// rate.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/direction/logging"
	"go.viam.com/direction/sensor"
	"go.viam.com/direction/utils"
)

// Model is the registered model name of the simulated source.
const Model = sensor.Model("sim")

// Config is the attributes of a simulated source.
type Config struct {
	// StartHeading is the heading reported at the moment the source starts.
	StartHeading float64 `json:"start_heading,omitempty"`
	// DegreesPerSecond is the turn rate. Negative values turn counter-clockwise.
	DegreesPerSecond float64 `json:"degrees_per_second,omitempty"`
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
		return NewSource(conf, clock.New(), logger), nil
	})
}

// Source is a simulated sensor.Source.
type Source struct {
	conf   Config
	clock  clock.Clock
	logger logging.Logger

	mu      sync.Mutex
	workers *utils.StoppableWorkers
}

// NewSource returns a stopped simulated source driven by the given clock.
func NewSource(conf Config, clk clock.Clock, logger logging.Logger) *Source {
	return &Source{conf: conf, clock: clk, logger: logger}
}

// Present always reports true.
func (s *Source) Present(ctx context.Context) (bool, error) {
	return true, nil
}

// Start emits one reading per period, starting one period from now.
func (s *Source) Start(ctx context.Context, handler sensor.Handler, period time.Duration) error {
	if period <= 0 {
		return errors.Errorf("sampling period must be positive, got %v", period)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workers != nil {
		return errors.New("simulated source already started")
	}

	started := s.clock.Now()
	ticker := s.clock.Ticker(period)
	s.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		defer ticker.Stop()
		for {
			if !goutils.SelectContextOrWaitChan(ctx, ticker.C) {
				return
			}
			now := s.clock.Now()
			elapsed := now.Sub(started).Seconds()
			handler(sensor.Reading{
				Value:    utils.ModAngDeg(s.conf.StartHeading + s.conf.DegreesPerSecond*elapsed),
				Accuracy: sensor.AccuracyHigh,
				Time:     now,
			})
		}
	})
	s.logger.Debugw("simulated source started", "period", period, "rate", s.conf.DegreesPerSecond)
	return nil
}

// Stop stops the ticking goroutine and waits for it to exit.
func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workers == nil {
		return errors.New("simulated source not started")
	}
	s.workers.Stop()
	s.workers = nil
	s.logger.Debug("simulated source stopped")
	return nil
}

// Describe returns a description of the simulated source.
func (s *Source) Describe() sensor.Description {
	return sensor.Description{Model: Model}
}
