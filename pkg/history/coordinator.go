// Package history buffers records in memory and persists them in batches
// through a dump.Dispatcher whenever the buffer fills up or a flush is
// requested.
package history

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/papercomputeco/spool/pkg/buffer"
	"github.com/papercomputeco/spool/pkg/dump"
	"github.com/papercomputeco/spool/pkg/value"
)

const (
	DefaultCapacity  = 10
	DefaultTolerance = 5

	metricsName = "history"
)

// State is the coordinator's lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StateAccumulating
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config is the configuration for a Coordinator.
type Config struct {
	// Capacity is the number of buffered jobs that triggers a flush.
	Capacity int

	// Disabled turns Append into a no-op until SetCapacity is called.
	Disabled bool

	// Tolerance is how far past Capacity the buffer may grow before appends
	// are rejected.
	Tolerance buffer.Tolerance

	// Factory builds jobs from records. Append is a no-op without one.
	Factory *dump.Factory

	// Dispatcher writes drained jobs. Defaults to a Dispatcher with no
	// publisher.
	Dispatcher *dump.Dispatcher

	// Formatter selects the hook applied to mapping payloads.
	Formatter  Formatter
	FormatFunc FormatFunc

	// Registerer enables buffer metrics. Optional.
	Registerer prometheus.Registerer

	Logger *zap.Logger
}

// Coordinator is the entry point for capturing records. One mutex serializes
// append, insert and any flush the append triggers.
type Coordinator struct {
	mu sync.Mutex

	buf        *buffer.Bounded[*dump.Job]
	capacity   int
	tolerance  buffer.Tolerance
	factory    *dump.Factory
	dispatcher *dump.Dispatcher
	format     FormatFunc
	formatter  Formatter
	registerer prometheus.Registerer

	state  atomic.Int32
	logger *zap.Logger
}

// NewCoordinator creates a Coordinator from c.
func NewCoordinator(c *Config) (*Coordinator, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dispatcher := c.Dispatcher
	if dispatcher == nil {
		d, err := dump.NewDispatcher(&dump.DispatcherConfig{Logger: logger})
		if err != nil {
			return nil, err
		}
		dispatcher = d
	}

	h := &Coordinator{
		capacity:   c.Capacity,
		tolerance:  c.Tolerance,
		factory:    c.Factory,
		dispatcher: dispatcher,
		registerer: c.Registerer,
		logger:     logger,
	}

	if err := h.setFormatter(c.Formatter, c.FormatFunc); err != nil {
		return nil, err
	}

	if !c.Disabled {
		buf, err := h.newBuffer(c.Capacity, c.Tolerance)
		if err != nil {
			return nil, err
		}
		h.buf = buf
	}

	return h, nil
}

// Append buffers record as a job, flushing while still holding the lock once
// the buffer is full. It does nothing when no factory is set or capacity is
// disabled. Jobs drained by a failed flush are not re-queued.
func (h *Coordinator) Append(ctx context.Context, record value.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buf == nil || h.factory == nil {
		return nil
	}

	job, err := h.factory.Create(record)
	if err != nil {
		return err
	}

	if h.format != nil {
		if m, ok := job.Payload.AsMapping(); ok {
			job.Payload = h.format(m)
		}
	}

	full, err := h.buf.Append(job)
	if err != nil {
		h.logger.Warn("history buffer overflow",
			zap.Int("pending", h.buf.Len()),
			zap.Int("capacity", h.capacity),
			zap.String("tolerance", h.tolerance.String()),
		)
		return err
	}
	h.state.Store(int32(StateAccumulating))

	h.logger.Debug("job buffered",
		zap.String("job_id", job.ID.String()),
		zap.String("destination", job.Destination),
		zap.Int("pending", h.buf.Len()),
		zap.Bool("full", full),
	)

	if full {
		return h.flushLocked(ctx)
	}
	return nil
}

// FlushToFile drains and dispatches every pending job.
func (h *Coordinator) FlushToFile(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buf == nil {
		return nil
	}
	return h.flushLocked(ctx)
}

func (h *Coordinator) flushLocked(ctx context.Context) error {
	h.state.Store(int32(StateFlushing))
	defer h.state.Store(int32(StateIdle))

	jobs := h.buf.Flush()
	if len(jobs) == 0 {
		return nil
	}

	if err := h.dispatcher.Dispatch(ctx, jobs); err != nil {
		h.logger.Error("history flush failed, drained jobs dropped",
			zap.Int("jobs", len(jobs)),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("history flushed", zap.Int("jobs", len(jobs)))
	return nil
}

// SetCapacity changes the flush threshold, re-enabling a disabled buffer.
func (h *Coordinator) SetCapacity(capacity int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buf == nil {
		buf, err := h.newBuffer(capacity, h.tolerance)
		if err != nil {
			return err
		}
		h.buf = buf
	} else if err := h.buf.SetCapacity(capacity); err != nil {
		return err
	}

	h.capacity = capacity
	h.logger.Debug("history capacity set", zap.Int("capacity", capacity))
	return nil
}

// DisableCapacity turns buffering off. Pending jobs are discarded unwritten.
func (h *Coordinator) DisableCapacity() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buf == nil {
		return
	}
	if n := h.buf.Len(); n > 0 {
		h.logger.Warn("history disabled, pending jobs discarded", zap.Int("jobs", n))
	}
	h.buf = nil
	h.state.Store(int32(StateIdle))
}

// SetTolerance changes how far past capacity the buffer may grow.
func (h *Coordinator) SetTolerance(t buffer.Tolerance) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buf != nil {
		if err := h.buf.SetTolerance(t); err != nil {
			return err
		}
	}
	h.tolerance = t
	h.logger.Debug("history tolerance set", zap.String("tolerance", t.String()))
	return nil
}

// SetFactory replaces the job factory. A nil factory turns Append into a
// no-op.
func (h *Coordinator) SetFactory(f *dump.Factory) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.factory = f
}

// SetFormatter replaces the formatting hook.
func (h *Coordinator) SetFormatter(kind Formatter, fn FormatFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.setFormatter(kind, fn)
}

func (h *Coordinator) setFormatter(kind Formatter, fn FormatFunc) error {
	switch kind {
	case FormatNone:
		h.format = nil
	case FormatDefault:
		h.format = DefaultFormat
	case FormatCustom:
		if fn == nil {
			return fmt.Errorf("%w: custom formatter without a FormatFunc", dump.ErrValidation)
		}
		h.format = fn
	default:
		return fmt.Errorf("%w: unknown formatter %d", dump.ErrValidation, int(kind))
	}
	h.formatter = kind
	return nil
}

// Pending returns the number of buffered jobs.
func (h *Coordinator) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.buf == nil {
		return 0
	}
	return h.buf.Len()
}

// Capacity returns the flush threshold and whether buffering is enabled.
func (h *Coordinator) Capacity() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.capacity, h.buf != nil
}

// Tolerance returns the configured tolerance.
func (h *Coordinator) Tolerance() buffer.Tolerance {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tolerance
}

// Formatter returns the active formatter kind.
func (h *Coordinator) Formatter() Formatter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.formatter
}

// State is readable while a flush holds the lock.
func (h *Coordinator) State() State {
	return State(h.state.Load())
}

// Close flushes pending jobs and closes the dispatcher's event publisher.
func (h *Coordinator) Close(ctx context.Context) error {
	var result *multierror.Error

	if err := h.FlushToFile(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("final flush: %w", err))
	}

	if pub := h.dispatcher.Publisher(); pub != nil {
		if err := pub.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing event publisher: %w", err))
		}
	}

	return result.ErrorOrNil()
}

func (h *Coordinator) newBuffer(capacity int, tolerance buffer.Tolerance) (*buffer.Bounded[*dump.Job], error) {
	var opts []buffer.Option
	if h.registerer != nil {
		opts = append(opts, buffer.WithMetrics(h.registerer, metricsName))
	}
	return buffer.New[*dump.Job](capacity, tolerance, opts...)
}
