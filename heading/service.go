// Package heading turns an orientation sensor into a stream of headings and corrects headings
// for the rotation of the display.
//
// A Service starts its sensor when the first heading stream is opened and stops it when the
// last one is closed:
//
//	svc := heading.NewService(source, display.NewStatic(display.Rotation90), 0, logger)
//	defer svc.Close(ctx)
//	stream := svc.ObserveHeading(ctx)
//	for raw := range stream.C() {
//		fmt.Println(svc.DirectionNow(ctx, raw))
//	}
package heading

import (
	"context"
	"sync"
	"time"

	"go.viam.com/direction/display"
	"go.viam.com/direction/logging"
	"go.viam.com/direction/sensor"
)

// Service provides headings from a single orientation source to any number of consumers.
type Service struct {
	logger      logging.Logger
	subloggers  []logging.Logger
	corrector   *Corrector
	broadcaster *Broadcaster
	listener    *listener

	mu      sync.Mutex
	closed  bool
	streams map[*Stream]struct{}
}

// NewService returns a service reading source and correcting for d. The source is not touched
// until the first stream is opened. A zero period means sensor.DefaultSamplingPeriod.
func NewService(source sensor.Source, d display.Display, period time.Duration, logger logging.Logger) *Service {
	if period <= 0 {
		period = sensor.DefaultSamplingPeriod
	}
	broadcaster := NewBroadcaster()
	displayLogger := logger.Sublogger("display")
	listenerLogger := logger.Sublogger("listener")
	return &Service{
		logger:      logger,
		subloggers:  []logging.Logger{displayLogger, listenerLogger},
		corrector:   NewCorrector(d, displayLogger),
		broadcaster: broadcaster,
		listener:    newListener(source, period, broadcaster, listenerLogger),
		streams:     map[*Stream]struct{}{},
	}
}

// NewServiceFromConfig builds the configured source and display and returns a service over them.
func NewServiceFromConfig(ctx context.Context, conf *Config, logger logging.Logger) (*Service, error) {
	if err := conf.Validate("direction"); err != nil {
		return nil, err
	}
	rotation, err := display.RotationFromDegrees(conf.Rotation)
	if err != nil {
		return nil, err
	}
	d, err := display.New(conf.Display, rotation, conf.SysfsPath)
	if err != nil {
		return nil, err
	}
	sourceLogger := logger.Sublogger(conf.Source)
	source, err := sensor.New(ctx, sensor.Model(conf.Source), conf.SourceAttributes, sourceLogger)
	if err != nil {
		logging.DeregisterLogger(sourceLogger)
		return nil, err
	}
	svc := NewService(source, d, conf.SamplingPeriod(), logger)
	svc.subloggers = append(svc.subloggers, sourceLogger)
	return svc, nil
}

// ObserveHeading opens a stream of raw headings, starting the source if this is the only open
// stream. The stream is closed when ctx is done, when Close is called on it or when the service
// is closed, and the source is stopped once no streams remain. After the service is closed the
// returned stream is already closed.
func (svc *Service) ObserveHeading(ctx context.Context) *Stream {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.closed {
		svc.logger.CDebug(ctx, "heading stream requested after close")
		return newClosedStream()
	}

	svc.listener.acquire()
	var stream *Stream
	stream = newStream(ctx, svc.broadcaster, func() {
		svc.listener.release()
		svc.mu.Lock()
		delete(svc.streams, stream)
		svc.mu.Unlock()
	})
	svc.streams[stream] = struct{}{}
	return stream
}

// DirectionNow corrects a raw heading for the current display rotation.
func (svc *Service) DirectionNow(ctx context.Context, direction float64) float64 {
	return svc.corrector.Apply(ctx, direction)
}

// ReverseDirectionNow turns a display-relative heading back into a raw one.
func (svc *Service) ReverseDirectionNow(ctx context.Context, direction float64) float64 {
	return svc.corrector.Reverse(ctx, direction)
}

// Latest returns the last raw heading published.
func (svc *Service) Latest() float64 {
	return svc.broadcaster.Latest()
}

// Stats returns the subscription state of the sensor.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	return svc.listener.stats(ctx)
}

// Close closes every open stream, stops the source and removes the service's loggers from the
// registry.
func (svc *Service) Close(ctx context.Context) error {
	svc.mu.Lock()
	if svc.closed {
		svc.mu.Unlock()
		return nil
	}
	svc.closed = true
	streams := make([]*Stream, 0, len(svc.streams))
	for stream := range svc.streams {
		streams = append(streams, stream)
	}
	svc.mu.Unlock()

	for _, stream := range streams {
		stream.Close()
	}
	err := svc.listener.close(ctx)
	for _, logger := range svc.subloggers {
		logging.DeregisterLogger(logger)
	}
	return err
}

