package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	// Only defaults are registered, so this cannot fail.
	_ = v.Unmarshal(cfg)
	return cfg
}

// WriteDefault writes the default configuration to path as YAML, so a
// new survey can start from a complete, editable file.
func WriteDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "config: create config directory")
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return eris.Wrap(err, "config: marshal default config")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "config: write default config")
	}

	return nil
}
