// Package main is headingd, which prints headings from an orientation source corrected for the
// display rotation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/direction/heading"
	"go.viam.com/direction/logging"
	_ "go.viam.com/direction/sensor/fake"
	_ "go.viam.com/direction/sensor/sim"
	_ "go.viam.com/direction/sensor/stream"
)

const (
	// Flags.
	flagConfig         = "config"
	flagSource         = "source"
	flagAddress        = "address"
	flagSweepRate      = "sweep-rate"
	flagDisplay        = "display"
	flagRotation       = "rotation"
	flagSysfsPath      = "sysfs-path"
	flagSamplingPeriod = "sampling-period"
	flagLogLevel       = "log-level"
	flagLogPattern     = "log-pattern"
	flagDebug          = "debug"
	flagCount          = "count"
	flagDirection      = "direction"
	flagReverse        = "reverse"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "headingd",
		Usage: "print display-corrected headings from an orientation sensor",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from JSON `FILE`, ignoring the source and display flags",
			},
			&cli.StringFlag{
				Name:  flagSource,
				Value: "sim",
				Usage: "orientation source: fake, sim or stream",
			},
			&cli.StringFlag{
				Name:  flagAddress,
				Usage: "host:port of the heading stream when the source is stream",
			},
			&cli.Float64Flag{
				Name:  flagSweepRate,
				Value: 10,
				Usage: "degrees per second turned by the sim source",
			},
			&cli.StringFlag{
				Name:  flagDisplay,
				Value: "static",
				Usage: "display rotation provider: static or sysfs",
			},
			&cli.IntFlag{
				Name:  flagRotation,
				Usage: "rotation of a static display in degrees",
			},
			&cli.StringFlag{
				Name:  flagSysfsPath,
				Usage: "rotation file of a sysfs display",
			},
			&cli.DurationFlag{
				Name:  flagSamplingPeriod,
				Usage: "delay between sensor readings (default 200ms)",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "info",
				Usage: "log level: debug, info, warn or error",
			},
			&cli.StringSliceFlag{
				Name:  flagLogPattern,
				Usage: "set the level of matching loggers, e.g. headingd.listener=debug (repeatable)",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "watch",
				Usage: "print raw and corrected headings as they arrive",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  flagCount,
						Usage: "exit after this many headings, 0 to run until interrupted",
					},
				},
				Action: watchAction,
			},
			{
				Name:  "correct",
				Usage: "correct a single heading for the current display rotation",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     flagDirection,
						Required: true,
						Usage:    "heading in degrees",
					},
					&cli.BoolFlag{
						Name:  flagReverse,
						Usage: "remove the display rotation instead of adding it",
					},
				},
				Action: correctAction,
			},
		},
	}
}

func newLogger(c *cli.Context) (logging.Logger, error) {
	logger := logging.NewBlankLogger("headingd")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))

	level, err := logging.LevelFromString(c.String(flagLogLevel))
	if err != nil {
		return nil, err
	}
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	logger.SetLevel(level)

	patterns := make([]logging.LoggerPatternConfig, 0, len(c.StringSlice(flagLogPattern)))
	for _, spec := range c.StringSlice(flagLogPattern) {
		lpc, err := logging.ParseLoggerPattern(spec)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, lpc)
	}
	if err := logging.UpdateLoggerPatterns(patterns); err != nil {
		return nil, err
	}
	logging.RegisterLogger("headingd", logger)
	return logger, nil
}

func configFromFlags(c *cli.Context) (*heading.Config, error) {
	if path := c.String(flagConfig); path != "" {
		//nolint:gosec
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		var attributes map[string]interface{}
		if err := json.Unmarshal(raw, &attributes); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
		return heading.ConfigFromAttributes(attributes)
	}

	attributes := map[string]interface{}{
		"source":   c.String(flagSource),
		"display":  c.String(flagDisplay),
		"rotation": c.Int(flagRotation),
	}
	switch c.String(flagSource) {
	case "stream":
		attributes["source_attributes"] = map[string]interface{}{"address": c.String(flagAddress)}
	case "sim":
		attributes["source_attributes"] = map[string]interface{}{"degrees_per_second": c.Float64(flagSweepRate)}
	}
	if path := c.String(flagSysfsPath); path != "" {
		attributes["sysfs_path"] = path
	}
	if period := c.Duration(flagSamplingPeriod); period != 0 {
		if period < time.Millisecond {
			return nil, errors.Errorf("--%s must be at least 1ms, got %v", flagSamplingPeriod, period)
		}
		attributes["sampling_period_ms"] = period.Milliseconds()
	}
	return heading.ConfigFromAttributes(attributes)
}

func newService(c *cli.Context) (*heading.Service, logging.Logger, error) {
	logger, err := newLogger(c)
	if err != nil {
		return nil, nil, err
	}
	conf, err := configFromFlags(c)
	if err != nil {
		return nil, nil, err
	}
	svc, err := heading.NewServiceFromConfig(c.Context, conf, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, logger, nil
}

func watchAction(c *cli.Context) error {
	svc, logger, err := newService(c)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svc.Close(context.Background()); closeErr != nil {
			logger.Warnw("error closing heading service", "error", closeErr)
		}
	}()

	ctx := c.Context
	stream := svc.ObserveHeading(ctx)
	defer stream.Close()

	count := c.Int(flagCount)
	for seen := 0; count == 0 || seen < count; seen++ {
		raw, ok := <-stream.C()
		if !ok {
			break
		}
		if _, err := fmt.Fprintf(c.App.Writer, "%.2f\t%.2f\n", raw, svc.DirectionNow(ctx, raw)); err != nil {
			return err
		}
	}
	stats, err := svc.Stats(ctx)
	if err == nil {
		logger.Debugw("watch done", "subscribers", stats.Count, "sensor_present", stats.Present)
	}
	return nil
}

func correctAction(c *cli.Context) error {
	svc, logger, err := newService(c)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := svc.Close(context.Background()); closeErr != nil {
			logger.Warnw("error closing heading service", "error", closeErr)
		}
	}()
	direction := c.Float64(flagDirection)
	if c.Bool(flagReverse) {
		direction = svc.ReverseDirectionNow(c.Context, direction)
	} else {
		direction = svc.DirectionNow(c.Context, direction)
	}
	_, err = fmt.Fprintf(c.App.Writer, "%.2f\n", direction)
	return err
}
