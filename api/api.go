package api

import (
	"errors"
	"fmt"
	"net"

	"github.com/goccy/go-json"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/history"
)

var ErrMissingCoordinator = errors.New("api: coordinator is required")

// Server is the API server in front of a history coordinator.
type Server struct {
	config      Config
	coordinator *history.Coordinator
	logger      *zap.Logger
	app         *fiber.App
}

// NewServer creates a new API server.
func NewServer(config Config) (*Server, error) {
	if config.Coordinator == nil {
		return nil, ErrMissingCoordinator
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &Server{
		config:      config,
		coordinator: config.Coordinator,
		logger:      logger,
		app:         app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/status", s.handleStatus)
	app.Post("/records", s.handleAppend)
	app.Post("/flush", s.handleFlush)

	if config.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(config.Gatherer, promhttp.HandlerOpts{})))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.ListenAddr, err)
	}
	return s.Serve(ln)
}

// Serve serves the API on an already bound listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting API server",
		zap.String("listen", ln.Addr().String()),
	)
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
