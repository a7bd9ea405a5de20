package heading

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"go.viam.com/direction/display"
	"go.viam.com/direction/sensor"
)

// Config describes how to build a Service.
type Config struct {
	Source           string                 `json:"source"`
	SourceAttributes map[string]interface{} `json:"source_attributes,omitempty"`
	Display          string                 `json:"display,omitempty"`
	Rotation         int                    `json:"rotation,omitempty"`
	SysfsPath        string                 `json:"sysfs_path,omitempty"`
	SamplingPeriodMs int                    `json:"sampling_period_ms,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Source == "" {
		return errors.Errorf("%s: %q is required", path, "source")
	}
	if !lo.Contains(sensor.RegisteredModels(), sensor.Model(conf.Source)) {
		return errors.Errorf("%s: unknown source %q, expected one of %v", path, conf.Source, sensor.RegisteredModels())
	}
	if conf.Display != "" && !lo.Contains(display.Kinds, conf.Display) {
		return errors.Errorf("%s: unknown display %q, expected one of %v", path, conf.Display, display.Kinds)
	}
	if _, err := display.RotationFromDegrees(conf.Rotation); err != nil {
		return errors.Wrap(err, path)
	}
	if conf.SysfsPath != "" && conf.Display != display.KindSysfs {
		return errors.Errorf("%s: %q only applies to the %q display", path, "sysfs_path", display.KindSysfs)
	}
	if conf.SamplingPeriodMs < 0 {
		return errors.Errorf("%s: %q cannot be negative", path, "sampling_period_ms")
	}
	return nil
}

// SamplingPeriod returns the configured period, or sensor.DefaultSamplingPeriod if unset.
func (conf *Config) SamplingPeriod() time.Duration {
	if conf.SamplingPeriodMs == 0 {
		return sensor.DefaultSamplingPeriod
	}
	return time.Duration(conf.SamplingPeriodMs) * time.Millisecond
}

// ConfigFromAttributes decodes and validates a loosely typed attribute map. Numbers may be given
// as strings.
func ConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &conf,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.DecodeHookFuncType(castIntHook),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "invalid direction config")
	}
	if err := conf.Validate("direction"); err != nil {
		return nil, err
	}
	return &conf, nil
}

func castIntHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.Int || from.Kind() == reflect.Int {
		return data, nil
	}
	return cast.ToIntE(data)
}
