package heading

import (
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/direction/sensor"
	_ "go.viam.com/direction/sensor/fake"
	_ "go.viam.com/direction/sensor/sim"
)

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		conf   Config
		errMsg string
	}{
		{"minimal", Config{Source: "fake"}, ""},
		{"sysfs", Config{Source: "sim", Display: "sysfs", SysfsPath: "/tmp/rotate"}, ""},
		{"static rotated", Config{Source: "fake", Display: "static", Rotation: 270, SamplingPeriodMs: 20}, ""},
		{"no source", Config{}, `"source" is required`},
		{"unknown source", Config{Source: "lodestone"}, `unknown source "lodestone"`},
		{"unknown display", Config{Source: "fake", Display: "crt"}, `unknown display "crt"`},
		{"bad rotation", Config{Source: "fake", Rotation: 45}, "got 45"},
		{"misplaced sysfs path", Config{Source: "fake", SysfsPath: "/tmp/rotate"}, `"sysfs_path" only applies`},
		{"negative period", Config{Source: "fake", SamplingPeriodMs: -1}, `"sampling_period_ms" cannot be negative`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.conf.Validate("path")
			if tc.errMsg == "" {
				test.That(t, err, test.ShouldBeNil)
				return
			}
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldStartWith, "path")
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errMsg)
		})
	}
}

func TestConfigSamplingPeriod(t *testing.T) {
	conf := Config{Source: "fake"}
	test.That(t, conf.SamplingPeriod(), test.ShouldEqual, sensor.DefaultSamplingPeriod)
	conf.SamplingPeriodMs = 20
	test.That(t, conf.SamplingPeriod(), test.ShouldEqual, 20*time.Millisecond)
}

func TestConfigFromAttributes(t *testing.T) {
	conf, err := ConfigFromAttributes(map[string]interface{}{
		"source":             "sim",
		"source_attributes":  map[string]interface{}{"degrees_per_second": 5},
		"display":            "static",
		"rotation":           "90",
		"sampling_period_ms": 100.0,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, &Config{
		Source:           "sim",
		SourceAttributes: map[string]interface{}{"degrees_per_second": 5},
		Display:          "static",
		Rotation:         90,
		SamplingPeriodMs: 100,
	})

	_, err = ConfigFromAttributes(map[string]interface{}{"source": "fake", "rotation": "sideways"})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ConfigFromAttributes(map[string]interface{}{"source": "fake", "colour": "blue"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "colour")

	_, err = ConfigFromAttributes(map[string]interface{}{"rotation": 90})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"source" is required`)
}
