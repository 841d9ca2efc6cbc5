// Package config handles configuration for workflow-runner.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phototools-dev/workflow-runner/pkg/core"
)

// Config represents the tool configuration (workflow.yaml). Command-line
// flags override anything set here.
type Config struct {
	// Gateway connection
	Gateway string `yaml:"gateway"` // Unix socket path or host:port
	Timeout string `yaml:"timeout"` // Step timeout as a Go duration string

	// Profile selection
	Profiles []string `yaml:"profiles"` // Glob patterns for profiles to apply

	// Output
	LogFile   string `yaml:"logFile"`   // Log target, empty keeps stderr
	Verbose   bool   `yaml:"verbose"`   // Debug-level logging
	ReportDir string `yaml:"reportDir"` // Where run reports are written

	// Snapshot capture; nil keeps the built-in defaults
	Snapshot *core.SnapshotConfig `yaml:"snapshot"`
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromDir looks for workflow.yaml or workflow.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try workflow.yaml first
	configPath := filepath.Join(dir, "workflow.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try workflow.yml
	configPath = filepath.Join(dir, "workflow.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// StepTimeout parses the configured timeout. Zero means "not set" and
// leaves the engine default in place.
func (c *Config) StepTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Timeout)
}

// Snapshots returns the snapshot capture settings with defaults applied.
func (c *Config) Snapshots() core.SnapshotConfig {
	if c.Snapshot == nil {
		return core.DefaultSnapshotConfig()
	}
	return *c.Snapshot
}
