package logging

import (
	"testing"

	"go.viam.com/test"
)

// withRegistry swaps in an empty global registry for the duration of the test.
func withRegistry(t *testing.T) *loggerRegistry {
	t.Helper()
	previous := loggerManager
	loggerManager = newLoggerManager()
	t.Cleanup(func() { loggerManager = previous })
	return loggerManager
}

func TestRegistration(t *testing.T) {
	registry := withRegistry(t)

	blank := NewBlankLogger("blank")
	_, ok := LoggerNamed("blank")
	test.That(t, ok, test.ShouldBeFalse)
	RegisterLogger("blank", blank)
	logger, ok := LoggerNamed("blank")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, logger, test.ShouldEqual, blank)

	info := NewLogger("headingd")
	debug := NewDebugLogger("debug")
	test.That(t, info.GetLevel(), test.ShouldEqual, INFO)
	test.That(t, debug.GetLevel(), test.ShouldEqual, DEBUG)

	sub := info.Sublogger("listener")
	logger, ok = registry.loggerNamed("headingd.listener")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, logger, test.ShouldEqual, sub)
	test.That(t, sub.GetLevel(), test.ShouldEqual, INFO)

	test.That(t, GetRegisteredLoggerNames(), test.ShouldResemble,
		[]string{"blank", "debug", "headingd", "headingd.listener"})
}

func TestUpdateLoggerLevel(t *testing.T) {
	withRegistry(t)

	parent := NewLogger("headingd")
	sub := parent.Sublogger("display")

	test.That(t, UpdateLoggerLevel("headingd.display", ERROR), test.ShouldBeNil)
	test.That(t, sub.GetLevel(), test.ShouldEqual, ERROR)
	test.That(t, parent.GetLevel(), test.ShouldEqual, INFO)

	err := UpdateLoggerLevel("headingd.missing", DEBUG)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "headingd.missing")
}

func TestUpdateLoggerPatterns(t *testing.T) {
	withRegistry(t)

	parent := NewLogger("headingd")
	test.That(t, UpdateLoggerPatterns([]LoggerPatternConfig{{Pattern: "headingd.*", Level: "warn"}}), test.ShouldBeNil)
	test.That(t, parent.GetLevel(), test.ShouldEqual, INFO)

	sub := parent.Sublogger("fake")
	test.That(t, sub.GetLevel(), test.ShouldEqual, WARN)
}

func TestDeregisterLogger(t *testing.T) {
	withRegistry(t)

	parent := NewLogger("headingd")
	first := parent.Sublogger("listener")
	second := parent.Sublogger("listener")

	DeregisterLogger(first)
	logger, ok := LoggerNamed("headingd.listener")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, logger, test.ShouldEqual, second)

	DeregisterLogger(second)
	_, ok = LoggerNamed("headingd.listener")
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, GetRegisteredLoggerNames(), test.ShouldResemble, []string{"headingd"})
}
