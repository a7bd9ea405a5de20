// Package logging contains the structured, leveled logger used by every direction component.
// Loggers are registered by name so their levels can be changed while running, see
// UpdateLoggerLevel and UpdateLoggerPatterns.
package logging

// NewLogger returns a registered logger that writes Info and above to stdout in UTC.
func NewLogger(name string) Logger {
	return newRegisteredLogger(name, INFO)
}

// NewDebugLogger is like NewLogger but also writes Debug.
func NewDebugLogger(name string) Logger {
	return newRegisteredLogger(name, DEBUG)
}

func newRegisteredLogger(name string, level Level) Logger {
	logger := &impl{
		name:      name,
		level:     NewAtomicLevelAt(level),
		inUTC:     true,
		appenders: []Appender{NewStdoutAppender()},
	}
	RegisterLogger(name, logger)
	return logger
}

// NewBlankLogger returns an unregistered Debug level logger without appenders.
func NewBlankLogger(name string) Logger {
	return &impl{name: name, level: NewAtomicLevelAt(DEBUG), inUTC: true}
}
