// Package config handles mpp.toml run configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up next to a program
const FileName = "mpp.toml"

// Config represents an mpp.toml file.
type Config struct {
	Run    Run    `toml:"run"`
	Output Output `toml:"output"`
	Log    Log    `toml:"log"`

	// Path is the file the configuration was read from (set at load time).
	Path string `toml:"-"`
}

// Run configures the interpreter.
type Run struct {
	Gas    int    `toml:"gas"`
	Seed   int64  `toml:"seed"`
	Prompt string `toml:"prompt"`
}

// Output configures printed text.
type Output struct {
	Color string `toml:"color"`
}

// Log configures diagnostics.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Run.Prompt == "" {
		c.Run.Prompt = "> "
	}
	if c.Output.Color == "" {
		c.Output.Color = "reset"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Load parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if c.Run.Gas < 0 {
		return nil, fmt.Errorf("%s: run.gas must not be negative", path)
	}
	if _, err := c.Level(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Path = path
	c.applyDefaults()
	return &c, nil
}

// ForProgram loads mpp.toml from the directory of the program file, or
// returns Default when there is none.
func ForProgram(programPath string) (*Config, error) {
	path := filepath.Join(filepath.Dir(programPath), FileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}

// Level returns the configured slog level.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelWarn, fmt.Errorf("unknown log level %q", c.Log.Level)
}

// Handler builds the slog handler writing diagnostics to w.
func (c *Config) Handler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
