// Package config provides configuration management for logcluster.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/thebtf/logcluster/internal/reduce"
	"github.com/thebtf/logcluster/internal/render"
	"github.com/thebtf/logcluster/pkg/similarity"
)

const (
	// DefaultThreshold is the similarity ratio needed to join a component.
	DefaultThreshold = 0.8
	// DefaultWorkers is the number of concurrent clustering jobs.
	DefaultWorkers = 1
	// DefaultFormat is the output format of the root command.
	DefaultFormat = FormatHTML
)

// Output formats.
const (
	FormatHTML  = "html"
	FormatTable = "table"
	FormatJSON  = "json"
)

// Environment variable names; they override the settings file.
const (
	EnvThreshold = "LOGCLUSTER_THRESHOLD"
	EnvBatchSize = "LOGCLUSTER_BATCH_SIZE"
	EnvWorkers   = "LOGCLUSTER_WORKERS"
	EnvFormat    = "LOGCLUSTER_FORMAT"
	EnvSeed      = "LOGCLUSTER_SEED"
)

// Config holds the clustering and rendering settings.
type Config struct {
	Format    string  `json:"LOGCLUSTER_FORMAT" yaml:"format"`
	Threshold float64 `json:"LOGCLUSTER_THRESHOLD" yaml:"threshold"`
	BatchSize int     `json:"LOGCLUSTER_BATCH_SIZE" yaml:"batch_size"`
	Workers   int     `json:"LOGCLUSTER_WORKERS" yaml:"workers"`
	Seed      uint64  `json:"LOGCLUSTER_SEED" yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Threshold: DefaultThreshold,
		BatchSize: reduce.DefaultBatchSize,
		Workers:   DefaultWorkers,
		Format:    DefaultFormat,
		Seed:      render.DefaultSeed,
	}
}

// DataDir returns the per-user settings directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".logcluster")
}

// SettingsPath returns the default settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.json")
}

// Load reads the settings file at path (SettingsPath when empty) on top of
// the defaults, then applies environment overrides. A missing file is not an
// error. An unreadable or malformed file returns the defaults with env
// overrides applied, plus the error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = SettingsPath()
	}
	cfg := Default()

	err := cfg.loadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if err != nil {
		cfg = Default()
	}
	cfg.applyEnv()
	return cfg, err
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = f
		} else {
			log.Warn().Str("var", EnvThreshold).Str("value", v).Msg("Ignoring invalid environment override")
		}
	}
	if v := os.Getenv(EnvBatchSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchSize = n
		} else {
			log.Warn().Str("var", EnvBatchSize).Str("value", v).Msg("Ignoring invalid environment override")
		}
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		} else {
			log.Warn().Str("var", EnvWorkers).Str("value", v).Msg("Ignoring invalid environment override")
		}
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Format = strings.ToLower(v)
	}
	if v := os.Getenv(EnvSeed); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = n
		} else {
			log.Warn().Str("var", EnvSeed).Str("value", v).Msg("Ignoring invalid environment override")
		}
	}
}

// Validate rejects settings the clustering run cannot use.
func (c *Config) Validate() error {
	if err := similarity.ValidateThreshold(c.Threshold); err != nil {
		return err
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: %d", reduce.ErrInvalidBatchSize, c.BatchSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	switch c.Format {
	case FormatHTML, FormatTable, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q (want html, table or json)", c.Format)
	}
	return nil
}

// ReduceOptions returns the clustering options of c.
func (c *Config) ReduceOptions() reduce.Options {
	return reduce.Options{Threshold: c.Threshold, BatchSize: c.BatchSize}
}
