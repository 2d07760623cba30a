// Package config loads goedgar settings from defaults, an optional YAML file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GOEDGAR_SERVER_PORT
const EnvPrefix = "GOEDGAR"

// Config represents the complete application configuration.
type Config struct {
	SEC     SECConfig     `mapstructure:"sec"     yaml:"sec"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Extract ExtractConfig `mapstructure:"extract" yaml:"extract"`
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// SECConfig holds EDGAR access settings.
type SECConfig struct {
	Email      string `mapstructure:"email"       yaml:"email"`      // contact address sent in the User-Agent
	RateLimit  int    `mapstructure:"rate_limit"  yaml:"rate_limit"` // requests per second
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// StorageConfig holds filesystem locations.
type StorageConfig struct {
	Root    string `mapstructure:"root"     yaml:"root"`     // per-period directories live here
	WorkDir string `mapstructure:"work_dir" yaml:"work_dir"` // downloads land here before relocation
}

// ExtractConfig holds parse stage settings.
type ExtractConfig struct {
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
}

// ServerConfig holds the browser UI server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host"             yaml:"host"`
	Port            int    `mapstructure:"port"             yaml:"port"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
	Output string `mapstructure:"output" yaml:"output"` // "stderr", "stdout" or a file path
}

// Load reads the configuration from file and environment variables.
// With an empty path the config file is searched in:
//  1. ./config/config.yaml
//  2. ~/.goedgar/config.yaml
//
// Environment variables override config file values.
// Format: GOEDGAR_<SECTION>_<KEY>, e.g., GOEDGAR_STORAGE_ROOT.
// SEC_EMAIL is honoured for sec.email.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(filepath.Join(homeDir(), ".goedgar"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file: defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("sec.email", "") // known key, so GOEDGAR_SEC_EMAIL is unmarshaled
	v.SetDefault("sec.rate_limit", edgar.RequestsPerSecond)
	v.SetDefault("sec.timeout_sec", 30)

	v.SetDefault("storage.root", ".")
	v.SetDefault("storage.work_dir", edgar.DefaultWorkDir)

	v.SetDefault("extract.extensions", edgar.DefaultExtensions)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.shutdown_timeout", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// overrideFromEnv reads the SEC contact address shared with other EDGAR tools.
func overrideFromEnv(cfg *Config) {
	if cfg.SEC.Email == "" {
		cfg.SEC.Email = os.Getenv(edgar.SecEmailEnvVar)
	}
}

// Timeout returns the HTTP timeout as a duration.
func (c SECConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
