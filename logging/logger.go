package logging

import (
	"context"
)

// Logger is a leveled, structured logger. The `w` variants take alternating keys and values.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})

	// The C variants also log when ctx was returned by EnableDebugMode, whatever the level.
	CDebug(ctx context.Context, args ...interface{})
	CDebugf(ctx context.Context, template string, args ...interface{})
	CDebugw(ctx context.Context, msg string, keysAndValues ...interface{})

	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})

	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})

	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	SetLevel(level Level)
	GetLevel() Level
	Sublogger(subname string) Logger
	AddAppender(appender Appender)
	Sync() error
}

type debugModeKey struct{}

// EnableDebugMode returns a copy of ctx that makes the C logging methods log at any level.
func EnableDebugMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, debugModeKey{}, true)
}

// IsDebugMode reports whether ctx came from EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	enabled, _ := ctx.Value(debugModeKey{}).(bool)
	return enabled
}
