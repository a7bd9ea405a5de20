package logging

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type loggerRegistry struct {
	mu       sync.RWMutex
	loggers  map[string]Logger
	patterns []compiledPattern
}

var loggerManager = newLoggerManager()

func newLoggerManager() *loggerRegistry {
	return &loggerRegistry{
		loggers: make(map[string]Logger),
	}
}

// registerLogger stores logger under name and applies the last pattern matching name, if any.
func (lr *loggerRegistry) registerLogger(name string, logger Logger) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.loggers[name] = logger
	applyPatterns(lr.patterns, name, logger)
}

// updatePatterns replaces the patterns and applies them to every registered logger. Loggers no
// pattern matches keep their level. Nothing changes if any pattern is invalid.
func (lr *loggerRegistry) updatePatterns(configs []LoggerPatternConfig) error {
	patterns := make([]compiledPattern, 0, len(configs))
	for _, lpc := range configs {
		compiled, err := lpc.compile()
		if err != nil {
			return err
		}
		patterns = append(patterns, compiled)
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.patterns = patterns
	for name, logger := range lr.loggers {
		applyPatterns(patterns, name, logger)
	}
	return nil
}

func applyPatterns(patterns []compiledPattern, name string, logger Logger) {
	for i := len(patterns) - 1; i >= 0; i-- {
		if patterns[i].matcher.MatchString(name) {
			logger.SetLevel(patterns[i].level)
			return
		}
	}
}

// deregisterLogger removes every name logger is registered under. A name since taken by another
// logger is left alone.
func (lr *loggerRegistry) deregisterLogger(logger Logger) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	for name, registered := range lr.loggers {
		if registered == logger {
			delete(lr.loggers, name)
		}
	}
}

func (lr *loggerRegistry) loggerNamed(name string) (logger Logger, ok bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok = lr.loggers[name]
	return
}

func (lr *loggerRegistry) updateLoggerLevel(name string, level Level) error {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok := lr.loggers[name]
	if !ok {
		return errors.Errorf("logger named %s not recognized", name)
	}
	logger.SetLevel(level)
	return nil
}

func (lr *loggerRegistry) getRegisteredLoggerNames() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	registeredNames := make([]string, 0, len(lr.loggers))
	for name := range lr.loggers {
		registeredNames = append(registeredNames, name)
	}
	sort.Strings(registeredNames)
	return registeredNames
}

// Exported Functions specifically for use on global logger manager.

// RegisterLogger registers a new logger with a given name.
func RegisterLogger(name string, logger Logger) {
	loggerManager.registerLogger(name, logger)
}

// DeregisterLogger removes logger from the registry.
func DeregisterLogger(logger Logger) {
	loggerManager.deregisterLogger(logger)
}

// LoggerNamed returns logger with specified name if exists.
func LoggerNamed(name string) (logger Logger, ok bool) {
	return loggerManager.loggerNamed(name)
}

// UpdateLoggerLevel assigns level to appropriate logger in the registry.
func UpdateLoggerLevel(name string, level Level) error {
	return loggerManager.updateLoggerLevel(name, level)
}

// UpdateLoggerPatterns sets the level of every current and future logger matching one of the
// patterns. Later patterns take precedence over earlier ones.
func UpdateLoggerPatterns(configs []LoggerPatternConfig) error {
	return loggerManager.updatePatterns(configs)
}

// GetRegisteredLoggerNames returns the sorted names of all loggers in the registry.
func GetRegisteredLoggerNames() []string {
	return loggerManager.getRegisteredLoggerNames()
}
