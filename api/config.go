// Package api provides the HTTP API for feeding records into a history
// coordinator and inspecting its state.
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/history"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// Coordinator receives appended records and flush requests.
	Coordinator *history.Coordinator

	// Gatherer backs GET /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer

	Logger *zap.Logger
}
