package config

import (
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/odvcencio/mosaic/pkg/errors"
)

// loadAndMerge loads a YAML file and merges it into the config. Keys absent
// from the file keep their current values.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return mergeYAML(cfg, data, path)
}

func mergeYAML(cfg *Config, data []byte, path string) error {
	// Unmarshal into a copy so a parse error leaves cfg untouched.
	merged := *cfg
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeConfigParse, "parsing YAML").
			WithContext("path", path)
	}
	*cfg = merged
	return nil
}
