// Package servecmder provides the serve command, which runs the history API
// in front of a buffering coordinator.
package servecmder

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/spool/api"
	"github.com/papercomputeco/spool/pkg/bootstrap"
	"github.com/papercomputeco/spool/pkg/config"
	"github.com/papercomputeco/spool/pkg/dotdir"
	"github.com/papercomputeco/spool/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

const serveLongDesc string = `Run the spool history server.

Records posted to the API are buffered in memory and written to the
configured destination whenever the buffer reaches its capacity, when
POST /flush is called, and once more on shutdown.

Routes:
  POST /records     Append one JSON record (?batch=true for an array)
  POST /flush       Write every pending record now
  GET  /status      Buffer state, capacity, tolerance and formatter
  GET  /metrics     Prometheus metrics
  GET  /ping        Health check

Changes to the [history] section of config.toml are applied while running.
Logs go to the console and, as JSON, to .spool/logs/serve.log.

Examples:
  spool serve
  spool serve -o history.csv --capacity 50
  spool serve --event-provider kafka --event-brokers localhost:9092`

const serveShortDesc string = "Run the spool history server"

// serveRegistryKeys are the config flags serve binds.
var serveRegistryKeys = []string{
	config.FlagCapacity,
	config.FlagTolerance,
	config.FlagFormatter,
	config.FlagDestination,
	config.FlagFormat,
	config.FlagMode,
	config.FlagKey,
	config.FlagStrictKeys,
	config.FlagLogTime,
	config.FlagLogAs,
	config.FlagMaxConcurrency,
	config.FlagAPIListen,
	config.FlagEventProvider,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

type ServeCommander struct {
	capacity       int
	tolerance      int
	formatter      string
	destination    string
	format         string
	mode           string
	key            string
	strictKeys     bool
	logTime        bool
	logAs          string
	maxConcurrency int
	listen         string
	eventProvider  string
	eventBrokers   string
	eventTopic     string

	configDir string
	debug     bool
	cfg       *config.Config
	logger    *zap.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, serveRegistryKeys)

			cmder.cfg, err = config.FromViper(v)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context())
		},
	}

	config.AddIntFlag(cmd, config.Flags, config.FlagCapacity, &cmder.capacity)
	config.AddIntFlag(cmd, config.Flags, config.FlagTolerance, &cmder.tolerance)
	config.AddStringFlag(cmd, config.Flags, config.FlagFormatter, &cmder.formatter)
	config.AddStringFlag(cmd, config.Flags, config.FlagDestination, &cmder.destination)
	config.AddStringFlag(cmd, config.Flags, config.FlagFormat, &cmder.format)
	config.AddStringFlag(cmd, config.Flags, config.FlagMode, &cmder.mode)
	config.AddStringFlag(cmd, config.Flags, config.FlagKey, &cmder.key)
	config.AddBoolFlag(cmd, config.Flags, config.FlagStrictKeys, &cmder.strictKeys)
	config.AddBoolFlag(cmd, config.Flags, config.FlagLogTime, &cmder.logTime)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogAs, &cmder.logAs)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxConcurrency, &cmder.maxConcurrency)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventProvider, &cmder.eventProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventTopic, &cmder.eventTopic)

	return cmd
}

func (c *ServeCommander) run(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	logFile, err := c.setupLogger()
	if err != nil {
		return err
	}
	defer logFile.Close()
	defer func() { _ = c.logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipeline, err := bootstrap.New(c.cfg, bootstrap.Options{
		ConfigDir:  c.configDir,
		Registerer: reg,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:  c.cfg.API.Listen,
		Coordinator: pipeline.Coordinator,
		Gatherer:    reg,
		Logger:      c.logger,
	})
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", c.cfg.API.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.cfg.API.Listen, err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Serve(ln); err != nil && gctx.Err() == nil {
			return fmt.Errorf("API server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return cfger.WatchConfig(gctx, c.logger, pipeline.Apply)
	})

	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			c.logger.Warn("API server shutdown", zap.Error(err))
		}
		_ = ln.Close()
		return nil
	})

	var result *multierror.Error
	if err := g.Wait(); err != nil {
		result = multierror.Append(result, err)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := pipeline.Coordinator.Close(closeCtx); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// setupLogger tees console output with a JSON log file in the dot dir.
func (c *ServeCommander) setupLogger() (*os.File, error) {
	path, err := dotdir.NewManager().LogPath(c.configDir, "serve")
	if err != nil {
		return nil, fmt.Errorf("resolving log file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec // log files are meant to be shared
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(
		logger.NewLoggerWithWriters(c.debug, os.Stderr),
		logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(f)),
	)
	return f, nil
}
