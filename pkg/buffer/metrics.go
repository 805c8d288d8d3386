package buffer

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// bufferMetrics holds the Prometheus collectors for one named buffer.
type bufferMetrics struct {
	appends   prometheus.Counter
	overflows prometheus.Counter
	flushes   prometheus.Counter
	size      prometheus.Gauge
}

func newBufferMetrics(reg prometheus.Registerer, name string) (*bufferMetrics, error) {
	labels := prometheus.Labels{"buffer": name}

	appends, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "spool",
		Subsystem:   "buffer",
		Name:        "appends_total",
		ConstLabels: labels,
		Help:        "Total number of items accepted by the buffer",
	}))
	if err != nil {
		return nil, err
	}

	overflows, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "spool",
		Subsystem:   "buffer",
		Name:        "overflows_total",
		ConstLabels: labels,
		Help:        "Total number of inserts rejected past capacity plus tolerance",
	}))
	if err != nil {
		return nil, err
	}

	flushes, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "spool",
		Subsystem:   "buffer",
		Name:        "flushes_total",
		ConstLabels: labels,
		Help:        "Total number of drains of the buffer",
	}))
	if err != nil {
		return nil, err
	}

	size := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "spool",
		Subsystem:   "buffer",
		Name:        "size",
		ConstLabels: labels,
		Help:        "Current number of items held by the buffer",
	})
	if err := reg.Register(size); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(prometheus.Gauge)
		if !ok {
			return nil, err
		}
		size = existing
	}

	return &bufferMetrics{
		appends:   appends,
		overflows: overflows,
		flushes:   flushes,
		size:      size,
	}, nil
}

// registerCounter registers c, reusing an identical collector registered by a
// previous buffer with the same name.
func registerCounter(reg prometheus.Registerer, c prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(prometheus.Counter)
		if !ok {
			return nil, err
		}
		return existing, nil
	}
	return c, nil
}

func (m *bufferMetrics) recordAppend(n, size int) {
	if m == nil {
		return
	}
	m.appends.Add(float64(n))
	m.size.Set(float64(size))
}

func (m *bufferMetrics) recordOverflow() {
	if m == nil {
		return
	}
	m.overflows.Inc()
}

func (m *bufferMetrics) recordDrain(size int) {
	if m == nil {
		return
	}
	m.flushes.Inc()
	m.size.Set(float64(size))
}
