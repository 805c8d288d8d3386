package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent spool configuration stored as config.toml
// in the .spool/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version" mapstructure:"version"`
	History     HistoryConfig     `toml:"history" mapstructure:"history"`
	Dump        DumpConfig        `toml:"dump" mapstructure:"dump"`
	API         APIConfig         `toml:"api" mapstructure:"api"`
	EventStream EventStreamConfig `toml:"eventstream" mapstructure:"eventstream"`
}

// HistoryConfig holds the in-memory buffer settings.
type HistoryConfig struct {
	// Capacity is the number of buffered records that triggers a flush.
	Capacity int `toml:"capacity" mapstructure:"capacity"`

	// Tolerance is how far past capacity the buffer may grow. -1 is unlimited.
	Tolerance int `toml:"tolerance" mapstructure:"tolerance"`

	Disabled  bool   `toml:"disabled" mapstructure:"disabled"`
	Formatter string `toml:"formatter" mapstructure:"formatter"`
}

// DumpConfig holds the destination and merge settings every record is
// written with.
type DumpConfig struct {
	// Destination defaults to history.json in the .spool/ directory.
	Destination string `toml:"destination,omitempty" mapstructure:"destination"`

	// Format is inferred from the destination's extension when empty.
	Format string `toml:"format,omitempty" mapstructure:"format"`

	Mode       string `toml:"mode" mapstructure:"mode"`
	Key        string `toml:"key,omitempty" mapstructure:"key"`
	StrictKeys bool   `toml:"strict_keys" mapstructure:"strict_keys"`

	LogTime      bool   `toml:"log_time" mapstructure:"log_time"`
	LogAs        string `toml:"log_as" mapstructure:"log_as"`
	TimestampKey string `toml:"timestamp_key" mapstructure:"timestamp_key"`

	// MaxConcurrency bounds concurrently written files per flush. 0 is unbounded.
	MaxConcurrency int `toml:"max_concurrency" mapstructure:"max_concurrency"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty" mapstructure:"listen"`
}

// EventStreamConfig selects where flush events are published.
type EventStreamConfig struct {
	Provider string   `toml:"provider" mapstructure:"provider"`
	Brokers  []string `toml:"brokers,omitempty" mapstructure:"brokers"`
	Topic    string   `toml:"topic,omitempty" mapstructure:"topic"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"history.capacity":  intKey("history.capacity", func(c *Config) *int { return &c.History.Capacity }),
	"history.tolerance": intKey("history.tolerance", func(c *Config) *int { return &c.History.Tolerance }),
	"history.disabled":  boolKey("history.disabled", func(c *Config) *bool { return &c.History.Disabled }),
	"history.formatter": stringKey(func(c *Config) *string { return &c.History.Formatter }),

	"dump.destination":     stringKey(func(c *Config) *string { return &c.Dump.Destination }),
	"dump.format":          stringKey(func(c *Config) *string { return &c.Dump.Format }),
	"dump.mode":            stringKey(func(c *Config) *string { return &c.Dump.Mode }),
	"dump.key":             stringKey(func(c *Config) *string { return &c.Dump.Key }),
	"dump.strict_keys":     boolKey("dump.strict_keys", func(c *Config) *bool { return &c.Dump.StrictKeys }),
	"dump.log_time":        boolKey("dump.log_time", func(c *Config) *bool { return &c.Dump.LogTime }),
	"dump.log_as":          stringKey(func(c *Config) *string { return &c.Dump.LogAs }),
	"dump.timestamp_key":   stringKey(func(c *Config) *string { return &c.Dump.TimestampKey }),
	"dump.max_concurrency": intKey("dump.max_concurrency", func(c *Config) *int { return &c.Dump.MaxConcurrency }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.EventStream.Brokers = splitList(v)
			return nil
		},
	},
	"eventstream.topic": stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
