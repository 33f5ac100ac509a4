// Package config loads tokendex configuration from YAML with sensible
// defaults for every field.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tokendex/tokendex/internal/errors"
)

// Config is the complete tokendex configuration.
type Config struct {
	Version int           `yaml:"version"`
	Watcher WatcherConfig `yaml:"watcher"`
	Index   IndexConfig   `yaml:"index"`
	Logging LoggingConfig `yaml:"logging"`
	Repl    ReplConfig    `yaml:"repl"`
}

// WatcherConfig tunes the filesystem watcher.
type WatcherConfig struct {
	// PollTimeoutMS is the maximum time one poll blocks, in milliseconds.
	PollTimeoutMS int `yaml:"poll_timeout_ms"`
	// EventBuffer is the maximum number of queued events.
	EventBuffer int `yaml:"event_buffer"`
}

// IndexConfig tunes the index store and tokenization workers.
type IndexConfig struct {
	// MaxFileSizeMB caps the size of files that are tokenized.
	MaxFileSizeMB int `yaml:"max_file_size_mb"`
	// MaxWorkers caps concurrent tokenizers. 0 means hardware parallelism.
	MaxWorkers int `yaml:"max_workers"`
	// HashCacheSize is the capacity of the content-hash cache.
	HashCacheSize int `yaml:"hash_cache_size"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ReplConfig configures the interactive shell.
type ReplConfig struct {
	// HistoryFile is where command history persists between sessions.
	HistoryFile string `yaml:"history_file"`
	// Color enables styled output. Ignored when stdout is not a terminal.
	Color bool `yaml:"color"`
}

// ConfigDir returns the tokendex configuration directory (~/.tokendex).
// Falls back to the temp directory if the home directory is unavailable.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".tokendex")
	}
	return filepath.Join(home, ".tokendex")
}

// DefaultPath returns the default configuration file path.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Version: 1,
		Watcher: WatcherConfig{
			PollTimeoutMS: 5,
			EventBuffer:   1024,
		},
		Index: IndexConfig{
			MaxFileSizeMB: 100,
			MaxWorkers:    0,
			HashCacheSize: 4096,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "", // resolved by the logging package
		},
		Repl: ReplConfig{
			HistoryFile: filepath.Join(ConfigDir(), "history"),
			Color:       true,
		},
	}
}

// Load reads the configuration at path, layering it over the defaults.
// A missing file is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeConfigNotFound, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("cannot parse %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Watcher.PollTimeoutMS < 1 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"watcher.poll_timeout_ms must be at least 1", nil)
	}
	if c.Watcher.EventBuffer < 1 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"watcher.event_buffer must be at least 1", nil)
	}
	if c.Index.MaxFileSizeMB < 1 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"index.max_file_size_mb must be at least 1", nil)
	}
	if c.Index.MaxWorkers < 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"index.max_workers must not be negative", nil)
	}
	if c.Index.HashCacheSize < 1 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"index.hash_cache_size must be at least 1", nil)
	}
	return nil
}

// PollTimeout returns the watcher poll timeout as a duration.
func (c Config) PollTimeout() time.Duration {
	return time.Duration(c.Watcher.PollTimeoutMS) * time.Millisecond
}

// MaxFileSize returns the file size cap in bytes.
func (c Config) MaxFileSize() int64 {
	return int64(c.Index.MaxFileSizeMB) * 1024 * 1024
}

// Workers returns the effective tokenizer worker cap.
func (c Config) Workers() int {
	if c.Index.MaxWorkers > 0 {
		return c.Index.MaxWorkers
	}
	return runtime.NumCPU()
}
