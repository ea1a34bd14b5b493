package zonesim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-yaml/yaml"
)

// writeYAML marshals cfg into a config file in a temporary directory and returns its path
func writeYAML(t *testing.T, cfg map[string]interface{}) string {
	t.Helper()
	y, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("unexpected error marshaling YAML: %s", err)
	}
	path := filepath.Join(t.TempDir(), "zonesim.yml")
	if err := os.WriteFile(path, y, 0o644); err != nil {
		t.Fatalf("unexpected error writing config file: %s", err)
	}
	return path
}

func createComparisonConfigs(expected []ConfigOption, received []ConfigOption) (Config, Config) {
	expectedConfig := Config{}
	for _, eo := range expected {
		eo(&expectedConfig)
	}
	receivedConfig := Config{}
	for _, to := range received {
		to(&receivedConfig)
	}
	return expectedConfig, receivedConfig
}
