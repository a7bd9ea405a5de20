package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// testAppender writes through tb.Log so lines are attributed to the running test.
type testAppender struct {
	tb testing.TB
}

func (app testAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	app.tb.Helper()
	line, err := formatEntry(entry, fields)
	app.tb.Log(line)
	return err
}

func (app testAppender) Sync() error {
	return nil
}

// NewTestLogger returns a Debug level logger writing to tb in local time.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also records every entry for assertions.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	return &impl{
		level:     NewAtomicLevelAt(DEBUG),
		appenders: []Appender{testAppender{tb}, core},
	}, logs
}
