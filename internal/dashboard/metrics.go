package dashboard

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts the cache and mutation activity of the dashboard.
// All methods tolerate a nil receiver so tests can skip registration.
type Metrics struct {
	RemoteFetches  prometheus.Counter
	FetchFailures  prometheus.Counter
	Invalidations  prometheus.Counter
	RemoteDeletes  prometheus.Counter
	LocalMutations *prometheus.CounterVec
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		RemoteFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_remote_fetches_total",
			Help: "Remote catalog fetch attempts",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_remote_fetch_failures_total",
			Help: "Remote catalog fetches that failed",
		}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_cache_invalidations_total",
			Help: "User-triggered cache invalidations",
		}),
		RemoteDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_remote_soft_deletes_total",
			Help: "Remote products hidden for the session",
		}),
		LocalMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_local_mutations_total",
			Help: "Create/update/delete operations on local products",
		}, []string{"op"}),
	}

	reg.MustRegister(m.RemoteFetches, m.FetchFailures, m.Invalidations, m.RemoteDeletes, m.LocalMutations)
	return m
}

func (m *Metrics) fetchAttempt() {
	if m != nil {
		m.RemoteFetches.Inc()
	}
}

func (m *Metrics) fetchFailed() {
	if m != nil {
		m.FetchFailures.Inc()
	}
}

func (m *Metrics) invalidated() {
	if m != nil {
		m.Invalidations.Inc()
	}
}

func (m *Metrics) remoteDeleted() {
	if m != nil {
		m.RemoteDeletes.Inc()
	}
}

func (m *Metrics) localMutation(op string) {
	if m != nil {
		m.LocalMutations.WithLabelValues(op).Inc()
	}
}
