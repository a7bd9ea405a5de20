package heading

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/direction/logging"
	"go.viam.com/direction/sensor"
	"go.viam.com/direction/utils"
)

// Stats is a snapshot of a listener's subscription state.
type Stats struct {
	// Count is the number of outstanding acquisitions.
	Count int
	// Probed is whether the source has been checked for a sensor.
	Probed bool
	// Present is whether the sensor exists and could be started.
	Present bool
	// Registered is whether the source is currently started.
	Registered bool
}

// listener starts its source while at least one consumer holds it and forwards the source's
// readings to a broadcaster. Every field below worker is owned by the worker goroutine.
type listener struct {
	source      sensor.Source
	period      time.Duration
	broadcaster *Broadcaster
	logger      logging.Logger
	worker      *utils.SerialWorker

	count      int
	probed     bool
	present    bool
	registered bool
	generation int
}

func newListener(
	source sensor.Source,
	period time.Duration,
	broadcaster *Broadcaster,
	logger logging.Logger,
) *listener {
	return &listener{
		source:      source,
		period:      period,
		broadcaster: broadcaster,
		logger:      logger,
		worker:      utils.NewSerialWorker("direction provider", logger),
	}
}

func (l *listener) acquire() {
	if !l.worker.Dispatch(l.onAcquire) {
		l.logger.Debug("acquire after close ignored")
	}
}

func (l *listener) release() {
	if !l.worker.Dispatch(l.onRelease) {
		l.logger.Debug("release after close ignored")
	}
}

func (l *listener) stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := l.worker.Do(ctx, func() {
		stats = Stats{Count: l.count, Probed: l.probed, Present: l.present, Registered: l.registered}
	})
	return stats, err
}

// close lets queued work run until ctx is done, then stops the worker, discarding whatever is
// still queued. The source is stopped either way.
func (l *listener) close(ctx context.Context) error {
	err := l.worker.Do(ctx, func() {})
	l.worker.Stop()

	// The worker has exited, so its state is ours now.
	if l.registered {
		err = multierr.Append(err, l.unregister(ctx))
	}
	return err
}

func (l *listener) onAcquire() {
	l.count++
	if l.count != 1 {
		return
	}
	if !l.hasSensor() {
		return
	}
	l.register()
}

func (l *listener) onRelease() {
	if l.count == 0 {
		l.logger.Debug("release without matching acquire ignored")
		return
	}
	l.count--
	if l.count == 0 && l.registered {
		if err := l.unregister(l.worker.Context()); err != nil {
			l.logger.Warnw("failed to stop orientation source", "error", err)
		}
	}
}

// hasSensor probes the source the first time it is called. A failed probe counts as no sensor.
func (l *listener) hasSensor() bool {
	if l.probed {
		return l.present
	}
	l.probed = true

	present, err := l.source.Present(l.worker.Context())
	if err != nil {
		l.logger.Warnw("could not probe orientation source, treating it as absent",
			"source", l.source.Describe().Model, "error", err)
		return false
	}
	if !present {
		l.logger.Infow("no orientation sensor, headings will not update", "source", l.source.Describe().Model)
	}
	l.present = present
	return present
}

func (l *listener) register() {
	generation := l.generation + 1
	handler := func(reading sensor.Reading) {
		l.worker.Dispatch(func() { l.onReading(generation, reading) })
	}
	if err := l.source.Start(l.worker.Context(), handler, l.period); err != nil {
		// Not retried: the sensor stays absent for the lifetime of the listener.
		l.logger.Warnw("could not start orientation source, treating it as absent",
			"source", l.source.Describe().Model, "error", err)
		l.present = false
		return
	}
	l.generation = generation
	l.registered = true
	l.logger.Debugw("orientation source started", "period", l.period)
}

func (l *listener) unregister(ctx context.Context) error {
	l.registered = false
	if err := l.source.Stop(ctx); err != nil {
		return errors.Wrap(err, "stopping orientation source")
	}
	l.logger.Debug("orientation source stopped")
	return nil
}

// onReading publishes the normalized raw heading. Accuracy is not consulted.
func (l *listener) onReading(generation int, reading sensor.Reading) {
	if !l.registered || generation != l.generation {
		return
	}
	if math.IsNaN(reading.Value) || math.IsInf(reading.Value, 0) {
		l.logger.Debugw("dropping non-finite heading", "value", reading.Value)
		return
	}
	l.broadcaster.Publish(utils.ModAngDeg(reading.Value))
}
