package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/papercomputeco/spool/pkg/dotdir"
)

const envPrefix = "SPOOL"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// found via dotdir resolution, loads a .env file from the working directory
// and binds environment variables with the SPOOL_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (SPOOL_HISTORY_CAPACITY, SPOOL_DUMP_MODE, etc.),
//     including those loaded from .env
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. .env never overrides variables already set in the environment.
	for _, envFile := range []string{".env", filepath.Join(target, ".env")} {
		_ = godotenv.Load(envFile)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper decodes the merged viper view into a validated Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if len(cfg.EventStream.Brokers) == 1 {
		cfg.EventStream.Brokers = splitList(cfg.EventStream.Brokers[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// History
	v.SetDefault("history.capacity", d.History.Capacity)
	v.SetDefault("history.tolerance", d.History.Tolerance)
	v.SetDefault("history.disabled", d.History.Disabled)
	v.SetDefault("history.formatter", d.History.Formatter)

	// Dump
	v.SetDefault("dump.destination", d.Dump.Destination)
	v.SetDefault("dump.format", d.Dump.Format)
	v.SetDefault("dump.mode", d.Dump.Mode)
	v.SetDefault("dump.key", d.Dump.Key)
	v.SetDefault("dump.strict_keys", d.Dump.StrictKeys)
	v.SetDefault("dump.log_time", d.Dump.LogTime)
	v.SetDefault("dump.log_as", d.Dump.LogAs)
	v.SetDefault("dump.timestamp_key", d.Dump.TimestampKey)
	v.SetDefault("dump.max_concurrency", d.Dump.MaxConcurrency)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
