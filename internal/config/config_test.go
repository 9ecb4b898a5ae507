// Package config provides configuration management for logcluster.
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/logcluster/internal/reduce"
	"github.com/thebtf/logcluster/pkg/similarity"
)

// ConfigSuite is a test suite for config operations.
type ConfigSuite struct {
	suite.Suite
	tempDir string
}

func (s *ConfigSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	s.T().Setenv("HOME", s.tempDir)
	for _, name := range []string{EnvThreshold, EnvBatchSize, EnvWorkers, EnvFormat, EnvSeed} {
		s.T().Setenv(name, "")
	}
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) writeSettings(name, content string) string {
	path := filepath.Join(s.tempDir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestDefault tests default configuration values.
func (s *ConfigSuite) TestDefault() {
	cfg := Default()

	s.Equal(DefaultThreshold, cfg.Threshold)
	s.Equal(reduce.DefaultBatchSize, cfg.BatchSize)
	s.Equal(DefaultWorkers, cfg.Workers)
	s.Equal(FormatHTML, cfg.Format)
	s.Equal(uint64(1234), cfg.Seed)
	s.NoError(cfg.Validate())
}

// TestSettingsPath tests the settings file location under HOME.
func (s *ConfigSuite) TestSettingsPath() {
	s.Equal(filepath.Join(s.tempDir, ".logcluster"), DataDir())
	s.Equal(filepath.Join(s.tempDir, ".logcluster", "settings.json"), SettingsPath())
}

// TestLoad_TableDriven tests configuration loading with various scenarios.
func (s *ConfigSuite) TestLoad_TableDriven() {
	tests := []struct {
		name          string
		file          string
		content       string
		wantErr       bool
		wantThreshold float64
		wantBatch     int
		wantWorkers   int
	}{
		{
			name:          "custom threshold",
			file:          "settings.json",
			content:       `{"LOGCLUSTER_THRESHOLD": 0.6}`,
			wantThreshold: 0.6,
			wantBatch:     reduce.DefaultBatchSize,
			wantWorkers:   DefaultWorkers,
		},
		{
			name:          "multiple settings",
			file:          "settings.json",
			content:       `{"LOGCLUSTER_THRESHOLD": 0.9, "LOGCLUSTER_BATCH_SIZE": 500, "LOGCLUSTER_WORKERS": 8}`,
			wantThreshold: 0.9,
			wantBatch:     500,
			wantWorkers:   8,
		},
		{
			name:          "yaml file",
			file:          "logcluster.yaml",
			content:       "threshold: 0.7\nbatch_size: 250\nworkers: 4\n",
			wantThreshold: 0.7,
			wantBatch:     250,
			wantWorkers:   4,
		},
		{
			name:          "invalid JSON returns defaults",
			file:          "settings.json",
			content:       `{invalid}`,
			wantErr:       true,
			wantThreshold: DefaultThreshold,
			wantBatch:     reduce.DefaultBatchSize,
			wantWorkers:   DefaultWorkers,
		},
		{
			name:          "invalid YAML returns defaults",
			file:          "bad.yml",
			content:       "threshold: [",
			wantErr:       true,
			wantThreshold: DefaultThreshold,
			wantBatch:     reduce.DefaultBatchSize,
			wantWorkers:   DefaultWorkers,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			path := s.writeSettings(tt.file, tt.content)

			cfg, err := Load(path)
			if tt.wantErr {
				s.Error(err)
			} else {
				s.NoError(err)
			}
			s.Require().NotNil(cfg)
			s.Equal(tt.wantThreshold, cfg.Threshold)
			s.Equal(tt.wantBatch, cfg.BatchSize)
			s.Equal(tt.wantWorkers, cfg.Workers)
		})
	}
}

// TestLoad_MissingFile tests that a missing settings file yields defaults.
func (s *ConfigSuite) TestLoad_MissingFile() {
	cfg, err := Load(filepath.Join(s.tempDir, "absent.json"))

	s.NoError(err)
	s.Equal(Default(), cfg)
}

// TestLoad_DefaultPath tests loading from HOME/.logcluster/settings.json.
func (s *ConfigSuite) TestLoad_DefaultPath() {
	s.Require().NoError(os.MkdirAll(DataDir(), 0750))
	s.Require().NoError(os.WriteFile(SettingsPath(), []byte(`{"LOGCLUSTER_FORMAT": "table"}`), 0600))

	cfg, err := Load("")

	s.NoError(err)
	s.Equal(FormatTable, cfg.Format)
}

// TestLoad_EnvOverridesFile tests environment precedence over the file.
func (s *ConfigSuite) TestLoad_EnvOverridesFile() {
	path := s.writeSettings("settings.json", `{"LOGCLUSTER_THRESHOLD": 0.6, "LOGCLUSTER_WORKERS": 2}`)
	s.T().Setenv(EnvThreshold, "0.95")
	s.T().Setenv(EnvBatchSize, "64")
	s.T().Setenv(EnvFormat, "JSON")
	s.T().Setenv(EnvSeed, "42")

	cfg, err := Load(path)

	s.NoError(err)
	s.Equal(0.95, cfg.Threshold)
	s.Equal(64, cfg.BatchSize)
	s.Equal(2, cfg.Workers)
	s.Equal(FormatJSON, cfg.Format)
	s.Equal(uint64(42), cfg.Seed)
}

// TestLoad_InvalidEnvIgnored tests that unparsable env values are skipped.
func (s *ConfigSuite) TestLoad_InvalidEnvIgnored() {
	s.T().Setenv(EnvThreshold, "high")
	s.T().Setenv(EnvWorkers, "many")

	cfg, err := Load(filepath.Join(s.tempDir, "absent.json"))

	s.NoError(err)
	s.Equal(DefaultThreshold, cfg.Threshold)
	s.Equal(DefaultWorkers, cfg.Workers)
}

// TestValidate_TableDriven tests configuration validation.
func TestValidate_TableDriven(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "threshold one", mutate: func(c *Config) { c.Threshold = 1 }},
		{name: "zero threshold", mutate: func(c *Config) { c.Threshold = 0 }, wantErr: similarity.ErrInvalidThreshold},
		{name: "threshold above one", mutate: func(c *Config) { c.Threshold = 1.2 }, wantErr: similarity.ErrInvalidThreshold},
		{name: "zero batch", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: reduce.ErrInvalidBatchSize},
		{name: "zero workers", mutate: func(c *Config) { c.Workers = 0 }, wantErr: assert.AnError},
		{name: "unknown format", mutate: func(c *Config) { c.Format = "pdf" }, wantErr: assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			switch {
			case tt.wantErr == nil:
				assert.NoError(t, err)
			case tt.wantErr == assert.AnError:
				assert.Error(t, err)
			default:
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// TestReduceOptions tests the mapping to clustering options.
func TestReduceOptions(t *testing.T) {
	cfg := Default()
	cfg.Threshold = 0.5
	cfg.BatchSize = 7

	opts := cfg.ReduceOptions()

	require.NoError(t, opts.Validate())
	assert.Equal(t, reduce.Options{Threshold: 0.5, BatchSize: 7}, opts)
}
