package zonesim

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-yaml/yaml"
	"github.com/spf13/pflag"
)

type options struct {
	options []ConfigOption
	err     error
}

// ParseCommandLine configures the run from command line options or from a YAML configuration
// file passed with the -c flag.  Returns a slice of functional options that can be applied to
// the configuration.
func ParseCommandLine() ([]ConfigOption, error) {
	pf := createFlagSet()
	return parse(os.Args[1:], pf)
}

func parse(args []string, pf *pflag.FlagSet) ([]ConfigOption, error) {
	options := options{}
	if err := pf.ParseAll(args, parseFlag(&options)); err != nil {
		return options.options, err
	}
	if pf.NArg() > 0 {
		return options.options, fmt.Errorf("unexpected arguments: %v", pf.Args())
	}
	return options.options, options.err
}

func createFlagSet() *pflag.FlagSet {
	pf := pflag.NewFlagSet("zonesim", pflag.ContinueOnError)
	pf.Usage = func() {
		fmt.Printf("Usage of zonesim:\nzonesim <options>\n")
		fmt.Printf("\n%s", pf.FlagUsagesWrapped(10))
		fmt.Printf("\n\nWith no options, one hour of data for every metric and its reference sensors is written under ./Data.\n")
	}

	pf.StringP("config", "c", "", "Use yaml configuration file")
	pf.StringP("output", "o", DefaultOutput, "Root directory for the generated files")
	pf.Int("horizon", 3600, "Number of simulated seconds to generate")
	pf.String("start", "2025-07-15T09:32:00Z", "Timestamp of the first row (RFC 3339)")
	pf.String("seed", "", "Seed for the random source.  Runs with the same seed produce the same files.")
	pf.StringArray("metric", nil, "Metric to generate (esd, humidity, temperature, windDir, particle).  Repeat for several.  Default is all.")
	pf.StringArray("sensor", nil, "Sensor as type:id:zone (e.g. humidity:HUM-001:A).  Repeat for several.  Replaces the reference sensors of that metric.")
	pf.StringArray("out-probability", nil, "Override the per-tick spike probability as metric=probability (e.g. temperature=0.05)")
	pf.Bool("parallel", false, "Step zones and read sensors concurrently.  Reproducible for a seed, but differs from a sequential run.")
	pf.Bool("no-stats", false, "Do not write the zonesim.prom statistics file")
	pf.Bool("no-manifest", false, "Do not write manifest.json")
	pf.BoolP("verbose", "v", false, "Log every regime transition")

	return pf
}

func parseFlag(o *options) func(*pflag.Flag, string) error {
	return func(flag *pflag.Flag, value string) error {
		switch flag.Name {
		case "config":
			opts, err := parseFromFile(value)
			if err != nil {
				o.err = err
				return err
			}
			o.options = append(o.options, opts...)
		default:
			if boolOption(flag.Name) && value == "false" {
				return nil
			}
			option, err := handleOption(flag.Name, value)
			if err != nil {
				o.err = err
				return err
			}
			o.options = append(o.options, option)
		}
		return nil
	}
}

func handleOption(name string, value string) (ConfigOption, error) {
	switch name {
	case "output":
		return Output(value), nil
	case "horizon":
		return Horizon(value), nil
	case "start":
		return Start(value), nil
	case "seed":
		return Seed(value), nil
	case "metric":
		return Metric(value), nil
	case "sensor":
		return Sensor(value), nil
	case "out-probability":
		return OutProbability(value), nil
	case "parallel":
		return Parallel(), nil
	case "no-stats":
		return NoStats(), nil
	case "no-manifest":
		return NoManifest(), nil
	case "verbose":
		return Verbose(), nil
	default:
		return nil, fmt.Errorf("unknown option: %s", name)
	}
}

// boolOption reports whether a flag takes no value
func boolOption(name string) bool {
	switch name {
	case "parallel", "no-stats", "no-manifest", "verbose":
		return true
	}
	return false
}

func parseFromFile(fpath string) ([]ConfigOption, error) {
	var options []ConfigOption
	data, err := os.ReadFile(fpath)
	if err != nil {
		return options, err
	}

	cfg := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return options, err
	}
	for k, v := range cfg {
		switch val := v.(type) {
		case string:
			opt, err := handleOption(k, val)
			if err != nil {
				return options, err
			}
			options = append(options, opt)
		case int:
			opt, err := handleOption(k, strconv.Itoa(val))
			if err != nil {
				return options, err
			}
			options = append(options, opt)
		case float64:
			opt, err := handleOption(k, strconv.FormatFloat(val, 'f', -1, 64))
			if err != nil {
				return options, err
			}
			options = append(options, opt)
		case bool:
			if !boolOption(k) {
				return options, fmt.Errorf("option %s does not take true or false", k)
			}
			if !val {
				continue
			}
			opt, err := handleOption(k, "")
			if err != nil {
				return options, err
			}
			options = append(options, opt)
		// handles the case of a list of metrics, sensors or overrides
		case []interface{}:
			alt := listFieldsYAML{}
			if err := yaml.Unmarshal(data, &alt); err != nil {
				return options, fmt.Errorf("could not unmarshal config value for key: %s", k)
			}
			var values []string
			switch k {
			case "metric":
				values = alt.Metric
			case "sensor":
				values = alt.Sensor
			case "out-probability":
				values = alt.OutProbability
			default:
				return options, fmt.Errorf("unknown option: %s", k)
			}
			for _, value := range values {
				opt, err := handleOption(k, value)
				if err != nil {
					return options, err
				}
				options = append(options, opt)
			}
		default:
			return options, fmt.Errorf("could not process config key %s, unknown type", k)
		}
	}
	return options, nil
}

type listFieldsYAML struct {
	Metric         []string `yaml:"metric"`
	Sensor         []string `yaml:"sensor"`
	OutProbability []string `yaml:"out-probability"`
}
