// Package config loads statekit's YAML configuration and exposes it both as
// a typed struct and as a read-only dotted-key view.
//
// Sources, in precedence order (highest to lowest):
//  1. Environment variables (STATEKIT_*)
//  2. The configuration file
//  3. Built-in defaults
//
// The dotted-key view ("state.filename", "state.rotate", ...) is what the
// CLI glue consumes when wiring the persistent state; the state package
// itself takes these values as plain call arguments and has no dependency on
// the configuration format.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the parsed configuration tree.
type Config struct {
	State StateConfig `yaml:"state"`
	Log   LogConfig   `yaml:"log"`

	raw map[string]any
}

// StateConfig parametrizes the persistent state.
type StateConfig struct {
	// Filename is the container file the state binds to.
	Filename string `yaml:"filename"`
	// Rotate is the number of previous state file generations to keep.
	Rotate int `yaml:"rotate"`
	// Compression is the DEFLATE level for payload cells (0 disables).
	Compression int `yaml:"compression"`
	// LockTimeout bounds the wait for the cross-process state lock.
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// LogConfig parametrizes diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		State: StateConfig{
			Filename:    "experiment.state",
			Rotate:      5,
			Compression: 5,
			LockTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
	cfg.rebuildRaw()
	return cfg
}

// Load builds the configuration from defaults, the file at path, and the
// environment. An empty path searches the standard locations
// (.statekit.yaml, .statekit.yml, ~/.statekit/config.yaml) and succeeds with
// defaults when none exists; a non-empty path must be readable.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	} else {
		home, _ := os.UserHomeDir()
		for _, candidate := range []string{
			".statekit.yaml",
			".statekit.yml",
			filepath.Join(home, ".statekit", "config.yaml"),
		} {
			if _, err := os.Stat(candidate); err == nil {
				if err := loadFile(candidate, cfg); err != nil {
					return nil, fmt.Errorf("config: load %s: %w", candidate, err)
				}
				break
			}
		}
	}

	applyEnv(cfg)
	cfg.rebuildRaw()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STATEKIT_STATE_FILENAME"); v != "" {
		cfg.State.Filename = v
	}
	if v := os.Getenv("STATEKIT_STATE_ROTATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.State.Rotate = n
		}
	}
	if v := os.Getenv("STATEKIT_STATE_COMPRESSION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.State.Compression = n
		}
	}
	if v := os.Getenv("STATEKIT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// rebuildRaw refreshes the dotted-key view from the typed struct.
func (c *Config) rebuildRaw() {
	data, err := yaml.Marshal(c)
	if err != nil {
		return
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return
	}
	c.raw = raw
}

// Value resolves a dotted key ("state.filename") against the configuration
// tree. The second return is false when any segment is missing.
func (c *Config) Value(key string) (any, bool) {
	cur := any(c.raw)
	for _, seg := range strings.Split(key, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String resolves key as a string, falling back to def.
func (c *Config) String(key, def string) string {
	if v, ok := c.Value(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Int resolves key as an integer, falling back to def.
func (c *Config) Int(key string, def int) int {
	if v, ok := c.Value(key); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}
