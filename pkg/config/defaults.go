package config

import (
	"github.com/papercomputeco/spool/pkg/dump"
	"github.com/papercomputeco/spool/pkg/history"
)

const (
	defaultAPIListen = ":8081"

	defaultMode      = "append"
	defaultLogAs     = "key"
	defaultFormatter = "none"

	defaultEventProvider = ProviderNone
	defaultEventTopic    = "spool.flushes"
)

// Event stream providers.
const (
	ProviderNone  = "none"
	ProviderKafka = "kafka"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		History: HistoryConfig{
			Capacity:  history.DefaultCapacity,
			Tolerance: history.DefaultTolerance,
			Formatter: defaultFormatter,
		},
		Dump: DumpConfig{
			Mode:         defaultMode,
			LogAs:        defaultLogAs,
			TimestampKey: dump.DefaultTimestampKey,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventProvider,
			Topic:    defaultEventTopic,
		},
	}
}
