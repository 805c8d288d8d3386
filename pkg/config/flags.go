package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --mode
// on both "spool serve" and "spool dump").
type Flag struct {
	// Name is the long flag name (e.g. "mode").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "dump.mode").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag, AddBoolFlag
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagCapacity       = "capacity"
	FlagTolerance      = "tolerance"
	FlagFormatter      = "formatter"
	FlagDestination    = "destination"
	FlagFormat         = "format"
	FlagMode           = "mode"
	FlagKey            = "key"
	FlagStrictKeys     = "strict-keys"
	FlagLogTime        = "log-time"
	FlagLogAs          = "log-as"
	FlagMaxConcurrency = "max-concurrency"
	FlagAPIListen      = "listen"
	FlagEventProvider  = "event-provider"
	FlagEventBrokers   = "event-brokers"
	FlagEventTopic     = "event-topic"
)

// Flags is the registry shared by every spool command.
var Flags = FlagSet{
	FlagCapacity:       {Name: "capacity", ViperKey: "history.capacity", Description: "Buffered records that trigger a flush"},
	FlagTolerance:      {Name: "tolerance", ViperKey: "history.tolerance", Description: "Records accepted past capacity before appends fail (-1 for unlimited)"},
	FlagFormatter:      {Name: "formatter", ViperKey: "history.formatter", Description: "Record formatter: none or default"},
	FlagDestination:    {Name: "destination", Shorthand: "o", ViperKey: "dump.destination", Description: "History file to write (.json, .csv or .txt)"},
	FlagFormat:         {Name: "format", Shorthand: "f", ViperKey: "dump.format", Description: "Output format, inferred from the destination when empty"},
	FlagMode:           {Name: "mode", Shorthand: "m", ViperKey: "dump.mode", Description: "Merge mode: overwrite, append, extend or update"},
	FlagKey:            {Name: "key", Shorthand: "k", ViperKey: "dump.key", Description: "Dotted key to nest records under (JSON only)"},
	FlagStrictKeys:     {Name: "strict-keys", ViperKey: "dump.strict_keys", Description: "Fail instead of creating a missing key path"},
	FlagLogTime:        {Name: "log-time", ViperKey: "dump.log_time", Description: "Stamp each record with the current time"},
	FlagLogAs:          {Name: "log-as", ViperKey: "dump.log_as", Description: "How timestamps attach to lists and scalars: key or append"},
	FlagMaxConcurrency: {Name: "max-concurrency", ViperKey: "dump.max_concurrency", Description: "Files written concurrently per flush (0 for unbounded)"},
	FlagAPIListen:      {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagEventProvider:  {Name: "event-provider", ViperKey: "eventstream.provider", Description: "Flush event publisher: none or kafka"},
	FlagEventBrokers:   {Name: "event-brokers", ViperKey: "eventstream.brokers", Description: "Comma-separated Kafka brokers"},
	FlagEventTopic:     {Name: "event-topic", ViperKey: "eventstream.topic", Description: "Kafka topic for flush events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper holding only the values from NewDefaultConfig.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
