// Package sensor defines an orientation sensing device that pushes raw heading readings to a
// handler while it is started.
package sensor

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// DefaultSamplingPeriod is the delay between readings requested from a source when none is
// configured. It matches the "normal" rate of mobile orientation sensors.
const DefaultSamplingPeriod = 200 * time.Millisecond

// ErrUnavailable is returned by sources that have no orientation sensor to read from.
var ErrUnavailable = errors.New("orientation sensor unavailable")

// Accuracy is the reported trust level of a reading.
type Accuracy int

// The known accuracy levels, from least to most trustworthy.
const (
	AccuracyUnreliable Accuracy = iota
	AccuracyLow
	AccuracyMedium
	AccuracyHigh
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyUnreliable:
		return "unreliable"
	case AccuracyLow:
		return "low"
	case AccuracyMedium:
		return "medium"
	case AccuracyHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Reading is a single raw heading event.
type Reading struct {
	// Value is the raw heading in degrees, not corrected for display rotation.
	Value    float64
	Accuracy Accuracy
	Time     time.Time
}

// A Handler receives readings from a started source. It may be called from any goroutine and
// must not block.
type Handler func(Reading)

// A Source represents an orientation sensor that can be started and stopped on demand.
type Source interface {
	// Present reports whether the sensor exists. A non-nil error means the answer could not be
	// determined, which callers should treat as absent.
	Present(ctx context.Context) (bool, error)

	// Start begins delivering readings to handler roughly every period. Starting a source that
	// is already started is an error.
	Start(ctx context.Context, handler Handler, period time.Duration) error

	// Stop ends delivery. No readings are delivered after Stop returns.
	Stop(ctx context.Context) error

	// Describe returns a description of this source.
	Describe() Description
}

// Model identifies a kind of source, e.g. "fake".
type Model string

// Description describes information about the device.
type Description struct {
	Model Model

	// Path is some universal descriptor of how to find the device.
	Path string
}
