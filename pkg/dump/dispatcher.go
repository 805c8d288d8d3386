package dump

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/spool/pkg/eventstream"
	"github.com/papercomputeco/spool/pkg/merge"
	"github.com/papercomputeco/spool/pkg/value"
	"github.com/papercomputeco/spool/pkg/writer"
)

// Group is the set of jobs sharing one destination, format and key. Its mode
// and strictness come from the first job.
type Group struct {
	Destination string
	Format      writer.Format
	Key         []string
	Mode        merge.Mode
	StrictKeys  bool
	Jobs        []*Job
}

// Request returns the writer request for the whole group.
func (g *Group) Request() writer.Request {
	return writer.Request{
		Path:       g.Destination,
		Mode:       g.Mode,
		Key:        g.Key,
		StrictKeys: g.StrictKeys,
	}
}

// Payloads returns the jobs' payloads in submission order.
func (g *Group) Payloads() []value.Value {
	out := make([]value.Value, len(g.Jobs))
	for i, j := range g.Jobs {
		out[i] = j.Payload
	}
	return out
}

// JobIDs returns the jobs' IDs in submission order.
func (g *Group) JobIDs() []string {
	out := make([]string, len(g.Jobs))
	for i, j := range g.Jobs {
		out[i] = j.ID.String()
	}
	return out
}

type groupKey struct {
	destination string
	format      writer.Format
	key         string
}

// GroupJobs partitions jobs by (destination, format, key), keeping groups in
// order of first appearance and jobs in submission order.
func GroupJobs(jobs []*Job) []*Group {
	index := make(map[groupKey]*Group)
	groups := make([]*Group, 0)

	for _, j := range jobs {
		if j == nil {
			continue
		}
		k := groupKey{
			destination: j.Destination,
			format:      j.Format,
			key:         fmt.Sprintf("%q", j.Key),
		}
		g, ok := index[k]
		if !ok {
			g = &Group{
				Destination: j.Destination,
				Format:      j.Format,
				Key:         j.Key,
				Mode:        j.Mode,
				StrictKeys:  j.StrictKeys,
			}
			index[k] = g
			groups = append(groups, g)
		}
		g.Jobs = append(g.Jobs, j)
	}
	return groups
}

// DispatcherConfig is the configuration for a Dispatcher.
type DispatcherConfig struct {
	// Writers resolves each group's format. Defaults to writer.NewRegistry.
	Writers *writer.Registry

	// Publisher receives one event per written group. Optional.
	Publisher eventstream.Publisher

	// MaxConcurrency bounds concurrently written groups; 0 means unbounded.
	MaxConcurrency int

	// Registerer enables dispatch metrics. Optional.
	Registerer prometheus.Registerer

	// Clock stamps published events. Defaults to time.Now.
	Clock func() time.Time

	Logger *zap.Logger
}

// Dispatcher writes batches of jobs, one writer invocation per group.
type Dispatcher struct {
	writers        *writer.Registry
	publisher      eventstream.Publisher
	maxConcurrency int
	clock          func() time.Time
	metrics        *dispatchMetrics
	logger         *zap.Logger
}

// NewDispatcher creates a Dispatcher from c.
func NewDispatcher(c *DispatcherConfig) (*Dispatcher, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	writers := c.Writers
	if writers == nil {
		writers = writer.NewRegistry(logger)
	}

	clock := c.Clock
	if clock == nil {
		clock = time.Now
	}

	if c.MaxConcurrency < 0 {
		return nil, fmt.Errorf("%w: max concurrency %d", ErrValidation, c.MaxConcurrency)
	}

	d := &Dispatcher{
		writers:        writers,
		publisher:      c.Publisher,
		maxConcurrency: c.MaxConcurrency,
		clock:          clock,
		logger:         logger,
	}

	if c.Registerer != nil {
		m, err := newDispatchMetrics(c.Registerer)
		if err != nil {
			return nil, fmt.Errorf("registering dispatch metrics: %w", err)
		}
		d.metrics = m
	}

	return d, nil
}

// Publisher returns the configured event publisher, or nil.
func (d *Dispatcher) Publisher() eventstream.Publisher { return d.publisher }

// Dispatch groups jobs and writes every group concurrently. It returns once
// every started group has finished, with the first error encountered. Groups
// not yet started when ctx is cancelled are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs []*Job) error {
	groups := GroupJobs(jobs)
	if len(groups) == 0 {
		return nil
	}

	var g errgroup.Group
	if d.maxConcurrency > 0 {
		g.SetLimit(d.maxConcurrency)
	}

	for _, group := range groups {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				d.logger.Debug("group skipped, context done",
					zap.String("destination", group.Destination),
					zap.Int("jobs", len(group.Jobs)),
				)
				return err
			}
			return d.writeGroup(ctx, group)
		})
	}

	return g.Wait()
}

func (d *Dispatcher) writeGroup(ctx context.Context, group *Group) error {
	start := d.clock()

	w, err := d.writers.Get(group.Format)
	if err != nil {
		d.metrics.recordGroup(false, len(group.Jobs), 0)
		return err
	}

	if err := w.WriteBatch(ctx, group.Request(), group.Payloads()); err != nil {
		d.metrics.recordGroup(false, len(group.Jobs), d.clock().Sub(start))
		d.logger.Error("group write failed",
			zap.String("destination", group.Destination),
			zap.String("format", group.Format.String()),
			zap.Int("jobs", len(group.Jobs)),
			zap.Error(err),
		)
		return err
	}

	elapsed := d.clock().Sub(start)
	d.metrics.recordGroup(true, len(group.Jobs), elapsed)
	d.logger.Debug("group written",
		zap.String("destination", group.Destination),
		zap.String("format", group.Format.String()),
		zap.String("mode", group.Mode.String()),
		zap.Int("jobs", len(group.Jobs)),
		zap.Duration("elapsed", elapsed),
	)

	d.publish(ctx, group, elapsed)
	return nil
}

// publish emits a flush event for a written group. Publish failures are
// logged and never fail the dispatch.
func (d *Dispatcher) publish(ctx context.Context, group *Group, elapsed time.Duration) {
	if d.publisher == nil {
		return
	}

	event := eventstream.NewGroupFlushedEvent(eventstream.GroupMeta{
		Destination: group.Destination,
		Format:      group.Format.String(),
		Key:         group.Key,
		Mode:        group.Mode.String(),
		StrictKeys:  group.StrictKeys,
	}, group.JobIDs(), elapsed, d.clock())

	if err := d.publisher.PublishFlush(ctx, event); err != nil {
		d.logger.Warn("failed to publish flush event",
			zap.String("destination", group.Destination),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}
