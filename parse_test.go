package zonesim

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFlags(t *testing.T) {
	tt := []struct {
		Name     string
		Cmdline  string
		Expected []ConfigOption
		Error    bool
	}{
		{Name: "output", Cmdline: "--output /tmp/out", Expected: []ConfigOption{Output("/tmp/out")}, Error: false},
		{Name: "output short", Cmdline: "-o out", Expected: []ConfigOption{Output("out")}, Error: false},
		{Name: "horizon", Cmdline: "--horizon 10", Expected: []ConfigOption{Horizon("10")}, Error: false},
		{Name: "start", Cmdline: "--start 2025-01-01T00:00:00Z", Expected: []ConfigOption{Start("2025-01-01T00:00:00Z")}, Error: false},
		{Name: "seed", Cmdline: "--seed 42", Expected: []ConfigOption{Seed("42")}, Error: false},
		{Name: "metric", Cmdline: "--metric esd", Expected: []ConfigOption{Metric("esd")}, Error: false},
		{Name: "multiple metrics", Cmdline: "--metric esd --metric particle", Expected: []ConfigOption{Metric("esd"), Metric("particle")}, Error: false},
		{Name: "sensor", Cmdline: "--sensor humidity:HUM-001:A", Expected: []ConfigOption{Sensor("humidity:HUM-001:A")}, Error: false},
		{Name: "multiple sensors", Cmdline: "--sensor humidity:HUM-001:A --sensor humidity:HUM-002:B", Expected: []ConfigOption{Sensor("humidity:HUM-001:A"), Sensor("humidity:HUM-002:B")}, Error: false},
		{Name: "out-probability", Cmdline: "--out-probability temperature=0.05", Expected: []ConfigOption{OutProbability("temperature=0.05")}, Error: false},
		{Name: "parallel", Cmdline: "--parallel", Expected: []ConfigOption{Parallel()}, Error: false},
		{Name: "parallel false", Cmdline: "--parallel=false", Expected: []ConfigOption{}, Error: false},
		{Name: "no-stats", Cmdline: "--no-stats", Expected: []ConfigOption{NoStats()}, Error: false},
		{Name: "no-manifest", Cmdline: "--no-manifest", Expected: []ConfigOption{NoManifest()}, Error: false},
		{Name: "verbose", Cmdline: "-v", Expected: []ConfigOption{Verbose()}, Error: false},
		{Name: "error on unknown flag", Cmdline: "--does-not-exist", Expected: []ConfigOption{}, Error: true},
		{Name: "error on bad horizon type", Cmdline: "--horizon ten", Expected: []ConfigOption{}, Error: true},
		{Name: "error on positional argument", Cmdline: "--metric esd extra", Expected: []ConfigOption{}, Error: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			pf := createFlagSet()
			options, err := parse(strings.Split(tc.Cmdline, " "), pf)
			if tc.Error {
				assert.Error(t, err)
			} else {
				expected, received := createComparisonConfigs(tc.Expected, options)
				assert.Equal(t, expected, received)
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseYAML(t *testing.T) {
	tt := []struct {
		Name     string
		Yaml     map[string]interface{}
		Expected []ConfigOption
		Error    bool
	}{
		{Name: "output", Yaml: map[string]interface{}{"output": "out"}, Expected: []ConfigOption{Output("out")}, Error: false},
		{Name: "horizon", Yaml: map[string]interface{}{"horizon": 120}, Expected: []ConfigOption{Horizon("120")}, Error: false},
		{Name: "start", Yaml: map[string]interface{}{"start": "2025-01-01T00:00:00Z"}, Expected: []ConfigOption{Start("2025-01-01T00:00:00Z")}, Error: false},
		{Name: "seed", Yaml: map[string]interface{}{"seed": 7}, Expected: []ConfigOption{Seed("7")}, Error: false},
		{Name: "metric", Yaml: map[string]interface{}{"metric": "windDir"}, Expected: []ConfigOption{Metric("windDir")}, Error: false},
		{Name: "multiple metrics", Yaml: map[string]interface{}{"metric": []string{"esd", "humidity"}}, Expected: []ConfigOption{Metric("esd"), Metric("humidity")}, Error: false},
		{Name: "multiple sensors", Yaml: map[string]interface{}{"sensor": []string{"esd:E-1:A", "esd:E-2:B"}}, Expected: []ConfigOption{Sensor("esd:E-1:A"), Sensor("esd:E-2:B")}, Error: false},
		{Name: "out-probability", Yaml: map[string]interface{}{"out-probability": []string{"esd=0.5", "particle=0"}}, Expected: []ConfigOption{OutProbability("esd=0.5"), OutProbability("particle=0")}, Error: false},
		{Name: "parallel", Yaml: map[string]interface{}{"parallel": true}, Expected: []ConfigOption{Parallel()}, Error: false},
		{Name: "parallel off", Yaml: map[string]interface{}{"parallel": false}, Expected: []ConfigOption{}, Error: false},
		{Name: "no-stats", Yaml: map[string]interface{}{"no-stats": true}, Expected: []ConfigOption{NoStats()}, Error: false},
		{Name: "no-manifest", Yaml: map[string]interface{}{"no-manifest": true}, Expected: []ConfigOption{NoManifest()}, Error: false},
		{Name: "verbose", Yaml: map[string]interface{}{"verbose": true}, Expected: []ConfigOption{Verbose()}, Error: false},
		{Name: "error on unknown key", Yaml: map[string]interface{}{"does-not-exist": "test"}, Expected: []ConfigOption{}, Error: true},
		{Name: "error on unknown list key", Yaml: map[string]interface{}{"does-not-exist": []string{"a"}}, Expected: []ConfigOption{}, Error: true},
		{Name: "error on bool for value option", Yaml: map[string]interface{}{"output": true}, Expected: []ConfigOption{}, Error: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			path := writeYAML(t, tc.Yaml)
			pf := createFlagSet()
			options, err := parse([]string{"-c", path}, pf)
			if tc.Error {
				assert.Error(t, err)
			} else {
				expected, received := createComparisonConfigs(tc.Expected, options)
				assert.Equal(t, expected, received)
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := parse([]string{"-c", "/does/not/exist.yml"}, createFlagSet())
	assert.Error(t, err)
}
