package dump

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type dispatchMetrics struct {
	groups   *prometheus.CounterVec
	jobs     prometheus.Counter
	duration prometheus.Histogram
}

func newDispatchMetrics(reg prometheus.Registerer) (*dispatchMetrics, error) {
	groups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spool",
		Subsystem: "dispatch",
		Name:      "groups_total",
		Help:      "Total number of group writes by result",
	}, []string{"result"})

	jobs := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "spool",
		Subsystem: "dispatch",
		Name:      "jobs_written_total",
		Help:      "Total number of jobs persisted by successful group writes",
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "spool",
		Subsystem: "dispatch",
		Name:      "group_duration_seconds",
		Help:      "Time spent writing one group",
		Buckets:   prometheus.DefBuckets,
	})

	m := &dispatchMetrics{}
	for _, c := range []prometheus.Collector{groups, jobs, duration} {
		existing, err := register(reg, c)
		if err != nil {
			return nil, err
		}
		switch v := existing.(type) {
		case *prometheus.CounterVec:
			m.groups = v
		case prometheus.Histogram:
			m.duration = v
		case prometheus.Counter:
			m.jobs = v
		}
	}
	return m, nil
}

// register registers c, returning a previously registered identical
// collector instead when there is one.
func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if errors.As(err, &are) {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

func (m *dispatchMetrics) recordGroup(ok bool, jobs int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if !ok {
		m.groups.WithLabelValues("error").Inc()
		return
	}
	m.groups.WithLabelValues("ok").Inc()
	m.jobs.Add(float64(jobs))
	m.duration.Observe(elapsed.Seconds())
}
