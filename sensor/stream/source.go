// Package stream implements an orientation source that reads newline delimited headings from a
// TCP peer, such as a phone app or a microcontroller bridge.
//
// Each line holds a heading in degrees, optionally followed by an accuracy level from 0
// (unreliable) to 3 (high), separated by a comma or whitespace:
//
//	271.5
//	271.9,3
package stream

import (
	"bufio"
	"context"
	"math"
	"net"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"go.viam.com/direction/logging"
	"go.viam.com/direction/sensor"
	"go.viam.com/direction/utils"
)

// Model is the registered model name of the stream source.
const Model = sensor.Model("stream")

const defaultDialTimeout = 3 * time.Second

// Config is the attributes of a stream source.
type Config struct {
	Address     string        `json:"address"`
	DialTimeout time.Duration `json:"dial_timeout,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Address == "" {
		return errors.Errorf("%s: \"address\" is required", path)
	}
	if conf.DialTimeout < 0 {
		return errors.Errorf("%s: \"dial_timeout\" must not be negative", path)
	}
	return nil
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
		return NewSource(conf, logger)
	})
}

// Source is a sensor.Source backed by a TCP connection that is open only while started.
type Source struct {
	conf   Config
	logger logging.Logger
	dialer net.Dialer

	mu      sync.Mutex
	conn    net.Conn
	workers *utils.StoppableWorkers
}

// NewSource returns a stopped stream source. No connection is made until Present or Start.
func NewSource(conf Config, logger logging.Logger) (*Source, error) {
	if err := conf.Validate("stream"); err != nil {
		return nil, err
	}
	if conf.DialTimeout == 0 {
		conf.DialTimeout = defaultDialTimeout
	}
	return &Source{conf: conf, logger: logger, dialer: net.Dialer{Timeout: conf.DialTimeout}}, nil
}

// Present reports whether the peer accepts connections.
func (s *Source) Present(ctx context.Context) (bool, error) {
	conn, err := s.dialer.DialContext(ctx, "tcp", s.conf.Address)
	if err != nil {
		return false, errors.Wrapf(err, "probing %s", s.conf.Address)
	}
	return true, conn.Close()
}

// Start connects to the peer and delivers at most one reading per period. Lines arriving sooner
// are skipped.
func (s *Source) Start(ctx context.Context, handler sensor.Handler, period time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return errors.New("stream source already started")
	}

	conn, err := s.dialer.DialContext(ctx, "tcp", s.conf.Address)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", s.conf.Address)
	}
	s.conn = conn
	s.workers = utils.NewStoppableWorkers(func(context.Context) {
		s.readLoop(conn, handler, period)
	})
	s.logger.Debugw("stream source started", "address", s.conf.Address, "period", period)
	return nil
}

func (s *Source) readLoop(conn net.Conn, handler sensor.Handler, period time.Duration) {
	scanner := bufio.NewScanner(conn)
	var lastDelivered time.Time
	for scanner.Scan() {
		now := time.Now()
		reading, ok, err := parseLine(scanner.Text(), now)
		if err != nil {
			s.logger.Debugw("skipping malformed reading", "line", scanner.Text(), "error", err)
			continue
		}
		if !ok {
			continue
		}
		if !lastDelivered.IsZero() && now.Sub(lastDelivered) < period {
			continue
		}
		lastDelivered = now
		handler(reading)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return
		}
		s.logger.Warnw("stream read failed, no more readings will be delivered", "address", s.conf.Address, "error", err)
		return
	}
	s.logger.Warnw("stream closed by peer, no more readings will be delivered", "address", s.conf.Address)
}

// Stop closes the connection and waits for the reader to exit.
func (s *Source) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return errors.New("stream source not started")
	}

	// Closing the connection unblocks the reader.
	err := s.conn.Close()
	s.workers.Stop()
	s.conn = nil
	s.workers = nil
	s.logger.Debug("stream source stopped")
	return errors.Wrap(err, "closing stream")
}

// Describe returns a description of the stream source.
func (s *Source) Describe() sensor.Description {
	return sensor.Description{Model: Model, Path: s.conf.Address}
}

func parseLine(line string, now time.Time) (sensor.Reading, bool, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return sensor.Reading{}, false, nil
	}
	if len(fields) > 2 {
		return sensor.Reading{}, false, errors.Errorf("expected at most 2 fields, got %d", len(fields))
	}

	value, err := cast.ToFloat64E(fields[0])
	if err != nil {
		return sensor.Reading{}, false, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return sensor.Reading{}, false, errors.Errorf("heading %v is not finite", value)
	}

	accuracy := sensor.AccuracyHigh
	if len(fields) == 2 {
		level, err := cast.ToIntE(fields[1])
		if err != nil {
			return sensor.Reading{}, false, err
		}
		if level < int(sensor.AccuracyUnreliable) || level > int(sensor.AccuracyHigh) {
			return sensor.Reading{}, false, errors.Errorf("accuracy %d out of range", level)
		}
		accuracy = sensor.Accuracy(level)
	}
	return sensor.Reading{Value: value, Accuracy: accuracy, Time: now}, true, nil
}
