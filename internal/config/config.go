// Package config loads and validates stakewake configuration from an
// optional YAML file and STAKEWAKE_* environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable (STAKEWAKE_DB_PATH, ...).
const EnvPrefix = "STAKEWAKE"

// Oracle gate policies.
const (
	PolicyAddress   = "address"
	PolicyAllowList = "allowlist"
	PolicyRego      = "rego"
)

// Config holds application configuration.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `mapstructure:"db_path"`
	// MaxDurationDays bounds challenge length.
	MaxDurationDays int `mapstructure:"max_duration_days"`
	// DayBoundary is the UTC time of day at which calendar days start
	// (e.g. 5h for midnight in UTC-5).
	DayBoundary time.Duration `mapstructure:"day_boundary"`
	// Admin may rotate the oracle.
	Admin string `mapstructure:"admin"`
	// Oracle is trusted until the admin first rotates it; defaults to Admin.
	Oracle string `mapstructure:"oracle"`
	// OraclePolicy selects the gate: address, allowlist or rego.
	OraclePolicy string `mapstructure:"oracle_policy"`
	// OracleAllowList is a comma-separated list of trusted oracles
	// (allowlist policy).
	OracleAllowList string `mapstructure:"oracle_allowlist"`
	// OraclePolicyFile is a Rego file (rego policy); empty uses the built-in
	// policy.
	OraclePolicyFile string `mapstructure:"oracle_policy_file"`
	// EnforceWakeDeadline rejects confirmations after the day's wake-up time.
	EnforceWakeDeadline bool `mapstructure:"enforce_wake_deadline"`
	// HTTPAddr is the listen address for serve.
	HTTPAddr string `mapstructure:"http_addr"`
	// RateLimitRPS and RateLimitBurst bound requests per caller.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"log_format"`
}

// Load builds Config from defaults, the YAML file at path (if path is not
// empty) and the environment, in increasing priority. A path that cannot be
// read is an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", "stakewake.db")
	v.SetDefault("max_duration_days", 365)
	v.SetDefault("day_boundary", "0s")
	v.SetDefault("admin", "admin")
	v.SetDefault("oracle", "")
	v.SetDefault("oracle_policy", PolicyAddress)
	v.SetDefault("oracle_allowlist", "")
	v.SetDefault("oracle_policy_file", "")
	v.SetDefault("enforce_wake_deadline", false)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("rate_limit_rps", 5)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and cross-field requirements.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db_path must be set")
	}
	if c.MaxDurationDays < 1 {
		return errors.New("config: max_duration_days must be at least 1")
	}
	if c.DayBoundary <= -24*time.Hour || c.DayBoundary >= 24*time.Hour {
		return errors.New("config: day_boundary must lie strictly within (-24h, 24h)")
	}
	if strings.TrimSpace(c.Admin) == "" {
		return errors.New("config: admin must be set")
	}
	switch c.OraclePolicy {
	case PolicyAddress, PolicyRego:
	case PolicyAllowList:
		if len(c.OracleAllowListEntries()) == 0 {
			return errors.New("config: oracle_allowlist must name at least one oracle when oracle_policy=allowlist")
		}
	default:
		return fmt.Errorf("config: unknown oracle_policy %q (want address, allowlist or rego)", c.OraclePolicy)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return errors.New("config: rate_limit_rps must be positive and rate_limit_burst at least 1")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// OracleIdentity returns the initial oracle, defaulting to the admin.
func (c *Config) OracleIdentity() string {
	if strings.TrimSpace(c.Oracle) == "" {
		return c.Admin
	}
	return c.Oracle
}

// OracleAllowListEntries splits OracleAllowList on commas, dropping blanks.
func (c *Config) OracleAllowListEntries() []string {
	if c == nil || c.OracleAllowList == "" {
		return nil
	}
	parts := strings.Split(c.OracleAllowList, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
