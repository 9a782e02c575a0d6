// Package metrics exposes Prometheus collectors for the matching core and the RPC layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campus_match"

// Metrics groups every collector. Build one per registry with New.
type Metrics struct {
	registry *prometheus.Registry

	InterestsRecorded *prometheus.CounterVec
	MatchesCreated    prometheus.Counter
	MatchRaces        prometheus.Counter
	CandidatesServed  *prometheus.CounterVec
	ReportsFiled      *prometheus.CounterVec
	Bans              prometheus.Counter
	EventsPublished   *prometheus.CounterVec
	SchedulerRuns     *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		InterestsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interests_recorded_total",
			Help:      "Interest submissions by kind (like, dislike) and outcome (inserted, deduplicated).",
		}, []string{"kind", "outcome"}),

		MatchesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_created_total",
			Help:      "Matches created or reactivated by a fresh reciprocation.",
		}),

		MatchRaces: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_races_recovered_total",
			Help:      "Duplicate-key conflicts on match creation resolved by re-reading.",
		}),

		CandidatesServed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_served_total",
			Help:      "Candidate selections by result (found, exhausted).",
		}, []string{"result"}),

		ReportsFiled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_filed_total",
			Help:      "User reports filed, by reason.",
		}, []string{"reason"}),

		Bans: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bans_total",
			Help:      "Profiles moved into the banned state.",
		}),

		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Outbound events by type and result (ok, error).",
		}, []string{"type", "result"}),

		SchedulerRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_runs_total",
			Help:      "Scheduled job runs by job and result (ok, error).",
		}, []string{"job", "result"}),

		RPCDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "gRPC handler latency by method and status code.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "code"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// NewServer builds the /metrics HTTP server for addr.
func (m *Metrics) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func boolLabel(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

// ObserveInterest counts one interest submission.
func (m *Metrics) ObserveInterest(positive, deduplicated bool) {
	m.InterestsRecorded.WithLabelValues(
		boolLabel(positive, "like", "dislike"),
		boolLabel(deduplicated, "deduplicated", "inserted"),
	).Inc()
}

// ObserveCandidate counts one selection.
func (m *Metrics) ObserveCandidate(found bool) {
	m.CandidatesServed.WithLabelValues(boolLabel(found, "found", "exhausted")).Inc()
}

// ObserveEvent counts one publish attempt.
func (m *Metrics) ObserveEvent(eventType string, err error) {
	m.EventsPublished.WithLabelValues(eventType, boolLabel(err == nil, "ok", "error")).Inc()
}

// ObserveJob counts one scheduled run.
func (m *Metrics) ObserveJob(job string, err error) {
	m.SchedulerRuns.WithLabelValues(job, boolLabel(err == nil, "ok", "error")).Inc()
}
