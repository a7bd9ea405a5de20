package logging

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// LoggerPatternConfig sets the level of every logger whose name matches Pattern. A pattern is a
// dot separated logger name in which any section may be "*".
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

const (
	// e.g. "listener".
	validLoggerSectionName = `[a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*`
	// e.g. "listener" or "*".
	validLoggerSectionNameWithWildcard = `(` + validLoggerSectionName + `|\*)`
	// e.g. "headingd.*.listener", anchored.
	validLoggerName = `^` + validLoggerSectionNameWithWildcard + `(\.` + validLoggerSectionNameWithWildcard + `)*$`
)

var loggerPatternRegexp = regexp.MustCompile(validLoggerName)

// ParseLoggerPattern parses "pattern=level", e.g. "headingd.listener=debug".
func ParseLoggerPattern(spec string) (LoggerPatternConfig, error) {
	pattern, level, ok := strings.Cut(spec, "=")
	if !ok {
		return LoggerPatternConfig{}, errors.Errorf("logger pattern %q is not of the form pattern=level", spec)
	}
	lpc := LoggerPatternConfig{Pattern: strings.TrimSpace(pattern), Level: strings.TrimSpace(level)}
	if _, err := lpc.compile(); err != nil {
		return LoggerPatternConfig{}, err
	}
	return lpc, nil
}

func (lpc LoggerPatternConfig) compile() (compiledPattern, error) {
	if !validatePattern(lpc.Pattern) {
		return compiledPattern{}, errors.Errorf("invalid logger pattern %q", lpc.Pattern)
	}
	level, err := LevelFromString(lpc.Level)
	if err != nil {
		return compiledPattern{}, err
	}
	matcher, err := regexp.Compile(buildRegexFromPattern(lpc.Pattern))
	if err != nil {
		return compiledPattern{}, errors.Wrapf(err, "compiling logger pattern %q", lpc.Pattern)
	}
	return compiledPattern{matcher: matcher, level: level}, nil
}

type compiledPattern struct {
	matcher *regexp.Regexp
	level   Level
}

func validatePattern(pattern string) bool {
	return loggerPatternRegexp.MatchString(pattern)
}

func buildRegexFromPattern(pattern string) string {
	var matcher strings.Builder
	matcher.WriteRune('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			matcher.WriteString(`.*`)
		case '.':
			matcher.WriteString(`\.`)
		default:
			matcher.WriteRune(ch)
		}
	}
	matcher.WriteRune('$')
	return matcher.String()
}
