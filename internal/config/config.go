// Package config loads coach-memory settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Themes    ThemesConfig    `mapstructure:"themes"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Crisis    CrisisConfig    `mapstructure:"crisis"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

type RetrievalConfig struct {
	MaxResults int `mapstructure:"max_results"`
}

type ThemesConfig struct {
	Days           int `mapstructure:"days"`
	MinOccurrences int `mapstructure:"min_occurrences"`
}

type MemoryConfig struct {
	ImportanceThreshold float64 `mapstructure:"importance_threshold"`
}

type CrisisConfig struct {
	// TablesPath optionally replaces the built-in keyword/resource tables.
	TablesPath    string `mapstructure:"tables_path"`
	HistoryWindow int    `mapstructure:"history_window"`
}

// DefaultDBPath is $COACH_MEMORY_DB or ~/.coach-memory/memory.db.
func DefaultDBPath() string {
	if env := os.Getenv("COACH_MEMORY_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".coach-memory", "memory.db")
}

// Load reads the config file at path (optional; empty means defaults and
// environment only). Environment variables use the COACH_MEMORY_ prefix with
// dots replaced by underscores, e.g. COACH_MEMORY_LOG_LEVEL.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.path", DefaultDBPath())
	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "warn")
	v.SetDefault("retrieval.max_results", 5)
	v.SetDefault("themes.days", 30)
	v.SetDefault("themes.min_occurrences", 2)
	v.SetDefault("memory.importance_threshold", 0.6)
	v.SetDefault("crisis.tables_path", "")
	v.SetDefault("crisis.history_window", 10)

	v.SetEnvPrefix("COACH_MEMORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would make retrieval or detection meaningless.
func (c *Config) Validate() error {
	var errs []error
	if c.Retrieval.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.max_results must be positive, got %d", c.Retrieval.MaxResults))
	}
	if c.Themes.Days <= 0 {
		errs = append(errs, fmt.Errorf("themes.days must be positive, got %d", c.Themes.Days))
	}
	if c.Memory.ImportanceThreshold < 0 || c.Memory.ImportanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("memory.importance_threshold must be within 0..1, got %v", c.Memory.ImportanceThreshold))
	}
	if c.Crisis.HistoryWindow < 0 {
		errs = append(errs, fmt.Errorf("crisis.history_window must not be negative, got %d", c.Crisis.HistoryWindow))
	}
	return errors.Join(errs...)
}
