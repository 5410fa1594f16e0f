// Package config loads rtmpl configuration.
//
// Configuration comes from a single YAML file named by the --config flag or,
// when the flag is absent, the RTMPL_CONFIG environment variable. There is
// no automatic discovery. Command-line flags override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rtmpl/internal/template"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "RTMPL_CONFIG"

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Config is the complete rtmpl configuration.
type Config struct {
	// MaxDepth is the resolver's maximum recursion depth.
	// Default: 9
	MaxDepth int `yaml:"max_depth"`

	// Format is the CLI output format ("text" or "json").
	// Default: text
	Format string `yaml:"format"`

	// Database is the SQLite run archive. Empty disables archiving.
	Database string `yaml:"database"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxDepth: template.DefaultMaxDepth,
		Format:   "text",
	}
}

// Load reads the YAML file at path over the defaults.
// Unknown fields are rejected so typos surface immediately.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// PathFromEnv returns the config path from RTMPL_CONFIG, or "".
func PathFromEnv() string {
	return os.Getenv(EnvConfigPath)
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.MaxDepth < 0 || c.MaxDepth > template.MaxDepthLimit {
		return fmt.Errorf("max_depth must be between 0 and %d, got %d", template.MaxDepthLimit, c.MaxDepth)
	}
	if !slices.Contains(ValidFormats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, ValidFormats)
	}
	return nil
}
