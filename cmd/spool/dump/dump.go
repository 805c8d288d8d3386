// Package dumpcmder provides the dump command, which writes records straight
// to a history file without buffering them.
package dumpcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/bootstrap"
	"github.com/papercomputeco/spool/pkg/cliui"
	"github.com/papercomputeco/spool/pkg/config"
	"github.com/papercomputeco/spool/pkg/dump"
	"github.com/papercomputeco/spool/pkg/logger"
	"github.com/papercomputeco/spool/pkg/value"
)

// ErrNoRecords is returned when neither arguments nor stdin carry a record.
var ErrNoRecords = errors.New("no records to write")

const dumpLongDesc string = `Write records straight to a history file.

Each argument is parsed as one JSON record. With no arguments a single JSON
record is read from stdin; pass --batch to treat a JSON array (from stdin or
a single argument) as a list of records.

All records are grouped by destination and written in one batch, the same
way a buffered flush from "spool serve" writes them.

Examples:
  spool dump '{"step": 1, "loss": 0.25}'
  spool dump -o runs.csv '{"a": 1}' '{"b": 2}'
  spool dump -o results.json -k runs.latest -m update '{"loss": 0.1}'
  cat records.json | spool dump --batch -o history.txt`

const dumpShortDesc string = "Write records straight to a history file"

// dumpRegistryKeys are the config flags dump binds.
var dumpRegistryKeys = []string{
	config.FlagDestination,
	config.FlagFormat,
	config.FlagMode,
	config.FlagKey,
	config.FlagStrictKeys,
	config.FlagLogTime,
	config.FlagLogAs,
	config.FlagMaxConcurrency,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

type DumpCommander struct {
	destination    string
	format         string
	mode           string
	key            string
	strictKeys     bool
	logTime        bool
	logAs          string
	maxConcurrency int
	eventProvider  string
	eventBrokers   string
	eventTopic     string

	batch     bool
	configDir string
	debug     bool
	cfg       *config.Config
}

func NewDumpCmd() *cobra.Command {
	cmder := &DumpCommander{}

	cmd := &cobra.Command{
		Use:   "dump [record...]",
		Short: dumpShortDesc,
		Long:  dumpLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, dumpRegistryKeys)

			cmder.cfg, err = config.FromViper(v)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := cmder.records(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), records)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagDestination, &cmder.destination)
	config.AddStringFlag(cmd, config.Flags, config.FlagFormat, &cmder.format)
	config.AddStringFlag(cmd, config.Flags, config.FlagMode, &cmder.mode)
	config.AddStringFlag(cmd, config.Flags, config.FlagKey, &cmder.key)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStrictKeys, &cmder.strictKeys)
	config.AddBoolFlag(cmd, config.Flags, config.FlagLogTime, &cmder.logTime)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogAs, &cmder.logAs)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxConcurrency, &cmder.maxConcurrency)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventProvider, &cmder.eventProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &cmder.eventTopic)
	cmd.Flags().BoolVar(&cmder.batch, "batch", false, "Treat a JSON array as a list of records")

	return cmd
}

// records parses args, or stdin when there are none.
func (c *DumpCommander) records(args []string, stdin io.Reader) ([]value.Value, error) {
	raw := args
	if len(raw) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, ErrNoRecords
		}
		raw = []string{string(data)}
	}

	records := make([]value.Value, 0, len(raw))
	for i, r := range raw {
		v, err := value.ParseJSON([]byte(r))
		if err != nil {
			return nil, fmt.Errorf("record %d is not valid JSON: %w", i+1, err)
		}
		if c.batch && v.Kind() == value.KindSequence {
			records = append(records, v.Elements()...)
			continue
		}
		records = append(records, v)
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

func (c *DumpCommander) run(ctx context.Context, w, errw io.Writer, records []value.Value) error {
	if ctx == nil {
		ctx = context.Background()
	}

	log := logger.Nop()
	if c.debug {
		log = logger.NewLoggerWithWriters(true, errw)
	}
	defer func() { _ = log.Sync() }()

	publisher, err := bootstrap.NewPublisher(c.cfg.EventStream, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	factoryConfig, err := bootstrap.NewFactoryConfig(c.cfg.Dump, c.configDir, log)
	if err != nil {
		return err
	}
	factory, err := dump.NewFactory(factoryConfig)
	if err != nil {
		return err
	}

	dispatcher, err := dump.NewDispatcher(&dump.DispatcherConfig{
		Publisher:      publisher,
		MaxConcurrency: c.cfg.Dump.MaxConcurrency,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	jobs, err := factory.CreateMany(records...)
	if err != nil {
		return err
	}

	target := factory.Target()
	msg := fmt.Sprintf("Writing %d record(s) to %s", len(jobs), target.Destination)
	err = cliui.Step(w, msg, func() error {
		return dispatcher.Dispatch(ctx, jobs)
	})
	if err != nil {
		log.Error("dump failed",
			zap.String("destination", target.Destination),
			zap.Error(err),
		)
		return err
	}
	return nil
}
