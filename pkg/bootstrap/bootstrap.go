// Package bootstrap builds the history pipeline (publisher, factory,
// dispatcher and coordinator) from a loaded config.Config.
package bootstrap

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/config"
	"github.com/papercomputeco/spool/pkg/dotdir"
	"github.com/papercomputeco/spool/pkg/dump"
	"github.com/papercomputeco/spool/pkg/eventstream"
	"github.com/papercomputeco/spool/pkg/eventstream/kafka"
	"github.com/papercomputeco/spool/pkg/eventstream/nop"
	"github.com/papercomputeco/spool/pkg/history"
	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/writer"
)

// Options carries what a config file cannot: the dot dir override, the
// metrics registerer and the logger.
type Options struct {
	ConfigDir  string
	Registerer prometheus.Registerer
	Logger     *zap.Logger
}

// Pipeline is a fully wired history pipeline.
type Pipeline struct {
	Writers     *writer.Registry
	Publisher   eventstream.Publisher
	Factory     *dump.Factory
	Dispatcher  *dump.Dispatcher
	Coordinator *history.Coordinator

	logger *zap.Logger
}

// New wires a Pipeline from cfg.
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	publisher, err := NewPublisher(cfg.EventStream, logger)
	if err != nil {
		return nil, err
	}

	factoryConfig, err := NewFactoryConfig(cfg.Dump, opts.ConfigDir, logger)
	if err != nil {
		return nil, err
	}
	factory, err := dump.NewFactory(factoryConfig)
	if err != nil {
		return nil, err
	}

	writers := writer.NewRegistry(logger)
	dispatcher, err := dump.NewDispatcher(&dump.DispatcherConfig{
		Writers:        writers,
		Publisher:      publisher,
		MaxConcurrency: cfg.Dump.MaxConcurrency,
		Registerer:     opts.Registerer,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	formatter, err := history.ParseFormatter(cfg.History.Formatter)
	if err != nil {
		return nil, err
	}

	coordinator, err := history.NewCoordinator(&history.Config{
		Capacity:   cfg.History.Capacity,
		Disabled:   cfg.History.Disabled,
		Tolerance:  cfg.HistoryTolerance(),
		Factory:    factory,
		Dispatcher: dispatcher,
		Formatter:  formatter,
		Registerer: opts.Registerer,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("history pipeline ready",
		zap.String("destination", factory.Target().Destination),
		zap.String("format", factory.Target().Format.String()),
		zap.String("mode", factory.Target().Mode.String()),
		zap.Int("capacity", cfg.History.Capacity),
		zap.String("event_provider", cfg.EventStream.Provider),
	)

	return &Pipeline{
		Writers:     writers,
		Publisher:   publisher,
		Factory:     factory,
		Dispatcher:  dispatcher,
		Coordinator: coordinator,
		logger:      logger,
	}, nil
}

// NewPublisher returns the kafka publisher when configured, the no-op one
// otherwise.
func NewPublisher(cfg config.EventStreamConfig, logger *zap.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case config.ProviderKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers:  cfg.Brokers,
			Topic:    cfg.Topic,
			ClientID: "spool",
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	case config.ProviderNone, "":
		return nop.NewPublisher(), nil
	default:
		return nil, fmt.Errorf("unknown event stream provider: %q", cfg.Provider)
	}
}

// NewFactoryConfig translates the [dump] section. An empty destination
// resolves to history.json in the .spool/ directory.
func NewFactoryConfig(cfg config.DumpConfig, configDir string, logger *zap.Logger) (*dump.FactoryConfig, error) {
	destination := cfg.Destination
	if destination == "" {
		path, err := dotdir.NewManager().HistoryPath(configDir)
		if err != nil {
			return nil, fmt.Errorf("resolving default destination: %w", err)
		}
		destination = path
	}

	key, err := merge.ParseKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dump.ErrValidation, err)
	}

	stampAs, err := dump.ParseStampStyle(cfg.LogAs)
	if err != nil {
		return nil, err
	}

	return &dump.FactoryConfig{
		Target: dump.Target{
			Destination: destination,
			Format:      writer.Format(cfg.Format),
			Mode:        merge.Mode(cfg.Mode),
			Key:         key,
			StrictKeys:  cfg.StrictKeys,
		},
		LogTime:      cfg.LogTime,
		StampAs:      stampAs,
		TimestampKey: cfg.TimestampKey,
		Logger:       logger,
	}, nil
}

// Apply pushes the hot-reloadable [history] settings into the running
// coordinator. Other sections need a restart.
func (p *Pipeline) Apply(cfg *config.Config) {
	h := p.Coordinator

	if cfg.History.Disabled {
		h.DisableCapacity()
		p.logger.Info("history disabled by config reload")
		return
	}

	if err := h.SetTolerance(cfg.HistoryTolerance()); err != nil {
		p.logger.Warn("ignoring tolerance from config reload", zap.Error(err))
	}
	if err := h.SetCapacity(cfg.History.Capacity); err != nil {
		p.logger.Warn("ignoring capacity from config reload", zap.Error(err))
	}

	if formatter, err := history.ParseFormatter(cfg.History.Formatter); err == nil && formatter != history.FormatCustom {
		if err := h.SetFormatter(formatter, nil); err != nil {
			p.logger.Warn("ignoring formatter from config reload", zap.Error(err))
		}
	}

	capacity, _ := h.Capacity()
	p.logger.Info("history settings applied",
		zap.Int("capacity", capacity),
		zap.String("tolerance", h.Tolerance().String()),
		zap.String("formatter", h.Formatter().String()),
	)
}
