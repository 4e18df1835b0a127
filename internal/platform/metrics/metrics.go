package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the trust resolution service.
// A nil *Metrics is valid and records nothing, which keeps tests quiet.
type Metrics struct {
	ResolutionAttempts  prometheus.Counter
	ResolutionsResolved prometheus.Counter
	ResolutionFailures  *prometheus.CounterVec
	ProofsProven        *prometheus.CounterVec
	EventsProcessed     *prometheus.CounterVec
	ProfilesUpserted    prometheus.Counter
	ScanRuns            prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ResolutionAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgtrust_resolution_attempts_total",
			Help: "Total resolution attempts, including failed ones",
		}),
		ResolutionsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgtrust_resolutions_resolved_total",
			Help: "Total resolutions that completed end to end",
		}),
		ResolutionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtrust_resolution_failures_total",
			Help: "Total failed resolutions by stage",
		}, []string{"stage"}),
		ProofsProven: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtrust_proofs_proven_total",
			Help: "Total proven proof outcomes by channel",
		}, []string{"channel"}),
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orgtrust_events_processed_total",
			Help: "Total registry events processed by kind",
		}, []string{"kind"}),
		ProfilesUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgtrust_profiles_upserted_total",
			Help: "Total profiles written to the profile store",
		}),
		ScanRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "orgtrust_scan_runs_total",
			Help: "Total full registry scan runs",
		}),
	}
}

func (m *Metrics) IncResolutionAttempts() {
	if m == nil {
		return
	}
	m.ResolutionAttempts.Inc()
}

func (m *Metrics) IncResolutionsResolved() {
	if m == nil {
		return
	}
	m.ResolutionsResolved.Inc()
}

func (m *Metrics) IncResolutionFailures(stage string) {
	if m == nil {
		return
	}
	m.ResolutionFailures.WithLabelValues(stage).Inc()
}

// ObserveProofs counts each proven channel of one resolution.
func (m *Metrics) ObserveProofs(website, tls, deposit, social bool) {
	if m == nil {
		return
	}
	channels := map[string]bool{
		"website": website,
		"tls":     tls,
		"deposit": deposit,
		"social":  social,
	}
	for channel, proven := range channels {
		if proven {
			m.ProofsProven.WithLabelValues(channel).Inc()
		}
	}
}

func (m *Metrics) IncEventsProcessed(kind string) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncProfilesUpserted() {
	if m == nil {
		return
	}
	m.ProfilesUpserted.Inc()
}

func (m *Metrics) IncScanRuns() {
	if m == nil {
		return
	}
	m.ScanRuns.Inc()
}
