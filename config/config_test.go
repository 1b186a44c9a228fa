package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/adstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.False(t, cfg.CaseSensitive)
	assert.Equal(t, core.DefaultIllegalCharacters, cfg.IllegalCharacters)
	assert.Equal(t, 5, cfg.MaxNesting)
	assert.Equal(t, "~/.adstore", cfg.StorePath)
	assert.False(t, cfg.InMemory)
	assert.Equal(t, 0, cfg.PoolSize)
	assert.Equal(t, 64, cfg.WatchBuffer)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with in-memory store", func(t *testing.T) {
		cfg := NewConfig(WithInMemory())
		assert.True(t, cfg.InMemory)
	})

	t.Run("store path clears in-memory", func(t *testing.T) {
		cfg := NewConfig(WithInMemory(), WithStorePath("/tmp/store"))
		assert.False(t, cfg.InMemory)
		assert.Equal(t, "/tmp/store", cfg.StorePath)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithCaseSensitive(true),
			WithIllegalCharacters("#"),
			WithMaxNesting(10),
			WithPoolSize(4),
			WithWatchBuffer(8),
			WithLogLevel("debug"),
		)

		assert.True(t, cfg.CaseSensitive)
		assert.Equal(t, "#", cfg.IllegalCharacters)
		assert.Equal(t, 10, cfg.MaxNesting)
		assert.Equal(t, 4, cfg.PoolSize)
		assert.Equal(t, 8, cfg.WatchBuffer)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}

func TestConfigNormalize(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name          string
		storePath     string
		logLevel      string
		expectedPath  string
		expectedLevel string
	}{
		{
			name:          "absolute path",
			storePath:     "/var/lib/adstore",
			logLevel:      "info",
			expectedPath:  "/var/lib/adstore",
			expectedLevel: "info",
		},
		{
			name:          "home relative path",
			storePath:     "~/.adstore",
			logLevel:      "INFO",
			expectedPath:  filepath.Join(home, ".adstore"),
			expectedLevel: "info",
		},
		{
			name:          "surrounding whitespace",
			storePath:     "  /data  ",
			logLevel:      " Warn ",
			expectedPath:  "/data",
			expectedLevel: "warn",
		},
		{
			name:          "empty level",
			storePath:     "/data",
			logLevel:      "",
			expectedPath:  "/data",
			expectedLevel: "info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{StorePath: tt.storePath, LogLevel: tt.logLevel}
			cfg.Normalize()
			assert.Equal(t, tt.expectedPath, cfg.StorePath)
			assert.Equal(t, tt.expectedLevel, cfg.LogLevel)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "defaults are valid",
		},
		{
			name: "in-memory without path",
			opts: []ConfigOption{WithInMemory()},
			mutate: func(c *Config) {
				c.StorePath = ""
			},
		},
		{
			name:    "zero nesting",
			opts:    []ConfigOption{WithMaxNesting(0)},
			wantErr: "config: MaxNesting must be at least 1",
		},
		{
			name: "missing store path",
			mutate: func(c *Config) {
				c.StorePath = ""
			},
			wantErr: "config: StorePath is required unless InMemory is set",
		},
		{
			name:    "negative pool size",
			opts:    []ConfigOption{WithPoolSize(-1)},
			wantErr: "config: PoolSize must not be negative",
		},
		{
			name:    "negative watch buffer",
			opts:    []ConfigOption{WithWatchBuffer(-1)},
			wantErr: "config: WatchBuffer must not be negative",
		},
		{
			name:    "unknown log level",
			opts:    []ConfigOption{WithLogLevel("chatty")},
			wantErr: `config: unknown log level "chatty"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(tt.opts...)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	write := func(t *testing.T, body string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "adstore.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	t.Run("overrides defaults", func(t *testing.T) {
		path := write(t, "case_sensitive: true\nmax_nesting: 9\nin_memory: true\nlog_level: debug\n")
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.True(t, cfg.CaseSensitive)
		assert.Equal(t, 9, cfg.MaxNesting)
		assert.True(t, cfg.InMemory)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 64, cfg.WatchBuffer, "unset keys keep defaults")
		assert.Equal(t, core.DefaultIllegalCharacters, cfg.IllegalCharacters)
	})

	t.Run("empty file", func(t *testing.T) {
		cfg, err := Load(write(t, ""))
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.MaxNesting)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(write(t, "max_depth: 3\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config: parsing")
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := Load(write(t, "max_nesting: 0\n"))
		assert.EqualError(t, err, "config: MaxNesting must be at least 1")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adstore.yaml")
	cfg := NewConfig(WithStorePath("/data/store"), WithCaseSensitive(true), WithPoolSize(3))
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "loud"}).SlogLevel())
}
