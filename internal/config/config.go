// Package config provides configuration management for LendingDesk.
// Configuration can be loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Lending LendingConfig `mapstructure:"lending"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig holds SQLite storage settings.
type StorageConfig struct {
	// Path is the path to the SQLite database file.
	Path string `mapstructure:"path"`

	// JournalMode sets the SQLite journal mode (WAL recommended).
	JournalMode string `mapstructure:"journal_mode"`

	// BusyTimeout sets the busy timeout in milliseconds.
	BusyTimeout int `mapstructure:"busy_timeout"`

	// SynchronousMode sets the synchronous mode (NORMAL, FULL, OFF).
	SynchronousMode string `mapstructure:"synchronous_mode"`
}

// AuthConfig holds the distinguished administrator credential.
type AuthConfig struct {
	// AdminID is the administrator login identifier.
	AdminID string `mapstructure:"admin_id"`

	// AdminPassword is the administrator password.
	AdminPassword string `mapstructure:"admin_password"`
}

// LendingConfig holds lending policy settings.
type LendingConfig struct {
	// PeriodDays is the fixed borrowing window in days.
	PeriodDays int `mapstructure:"period_days"`
}

// Period returns the borrowing window as a duration.
func (c LendingConfig) Period() time.Duration {
	return time.Duration(c.PeriodDays) * 24 * time.Hour
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the specified file and environment variables.
// Environment variables take precedence over file values.
// Environment variables are prefixed with LENDINGDESK_ and use _ as separator.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("LENDINGDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/lendingdesk")
	}

	// Config file not found is acceptable - defaults and env vars apply.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.path", "./data/lendingdesk.db")
	v.SetDefault("storage.journal_mode", "WAL")
	v.SetDefault("storage.busy_timeout", 5000)
	v.SetDefault("storage.synchronous_mode", "FULL")

	// Auth defaults - the stock administrator credential.
	v.SetDefault("auth.admin_id", "admin")
	v.SetDefault("auth.admin_password", "admin123")

	// Lending defaults
	v.SetDefault("lending.period_days", 14)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate checks the configuration for required values and valid ranges.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	if c.Auth.AdminID == "" || c.Auth.AdminPassword == "" {
		return fmt.Errorf("auth.admin_id and auth.admin_password are required")
	}

	if c.Lending.PeriodDays < 1 {
		return fmt.Errorf("lending.period_days must be at least 1")
	}

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, fatal, panic")
	}

	return nil
}

// MustLoad loads configuration or panics on error.
// Useful for main function initialization.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
