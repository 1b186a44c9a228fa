// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config holds the settings shared by the store, its groups and the
// command line tool.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/adstore/core"
	"gopkg.in/yaml.v3"
)

// Config holds configuration for an object store.
type Config struct {
	// CaseSensitive makes registry and group name lookups case sensitive.
	// Default: false
	CaseSensitive bool `yaml:"case_sensitive"`

	// IllegalCharacters lists characters rejected in object names.
	// An empty value disables the check.
	IllegalCharacters string `yaml:"illegal_characters"`

	// MaxNesting bounds how deep recursive group operations descend.
	// Default: 5
	MaxNesting int `yaml:"max_nesting"`

	// StorePath is the BadgerDB directory. A leading "~/" expands to the
	// user's home directory.
	// Example: "~/.adstore"
	StorePath string `yaml:"store_path"`

	// InMemory keeps the store in memory and ignores StorePath.
	InMemory bool `yaml:"in_memory"`

	// PoolSize is the number of workers used by the algorithm executor.
	// Zero picks a size from the CPU count.
	PoolSize int `yaml:"pool_size"`

	// WatchBuffer is the channel buffer given to each notification watcher.
	// Default: 64
	WatchBuffer int `yaml:"watch_buffer"`

	// LogLevel is one of debug, info, warn or error.
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithCaseSensitive sets whether name lookups are case sensitive.
func WithCaseSensitive(sensitive bool) ConfigOption {
	return func(c *Config) {
		c.CaseSensitive = sensitive
	}
}

// WithIllegalCharacters sets the characters rejected in names.
func WithIllegalCharacters(chars string) ConfigOption {
	return func(c *Config) {
		c.IllegalCharacters = chars
	}
}

// WithMaxNesting sets the recursion bound for group operations.
func WithMaxNesting(depth int) ConfigOption {
	return func(c *Config) {
		c.MaxNesting = depth
	}
}

// WithStorePath sets the on-disk store directory.
func WithStorePath(path string) ConfigOption {
	return func(c *Config) {
		c.StorePath = path
		c.InMemory = false
	}
}

// WithInMemory keeps the store in memory.
func WithInMemory() ConfigOption {
	return func(c *Config) {
		c.InMemory = true
	}
}

// WithPoolSize sets the executor worker count.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// WithWatchBuffer sets the per-watcher channel buffer.
func WithWatchBuffer(size int) ConfigOption {
	return func(c *Config) {
		c.WatchBuffer = size
	}
}

// WithLogLevel sets the log level name.
func WithLogLevel(level string) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

// DefaultConfig returns a Config with case-insensitive names and an on-disk
// store under the user's home directory.
func DefaultConfig() *Config {
	return &Config{
		IllegalCharacters: core.DefaultIllegalCharacters,
		MaxNesting:        5,
		StorePath:         "~/.adstore",
		WatchBuffer:       64,
		LogLevel:          "info",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithInMemory(),
//       WithMaxNesting(10),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// Normalize ensures the configuration is in a canonical form. It expands a
// leading "~/" in StorePath and lowercases LogLevel.
func (c *Config) Normalize() {
	c.StorePath = strings.TrimSpace(c.StorePath)
	if rest, ok := strings.CutPrefix(c.StorePath, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			c.StorePath = filepath.Join(home, rest)
		}
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.MaxNesting < 1 {
		return errors.New("config: MaxNesting must be at least 1")
	}
	if !c.InMemory && c.StorePath == "" {
		return errors.New("config: StorePath is required unless InMemory is set")
	}
	if c.PoolSize < 0 {
		return errors.New("config: PoolSize must not be negative")
	}
	if c.WatchBuffer < 0 {
		return errors.New("config: WatchBuffer must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns LogLevel as a slog.Level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", name)
	}
}
