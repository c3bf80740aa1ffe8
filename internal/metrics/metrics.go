// Package metrics exposes Prometheus counters for the refresh pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsfeed"

// Pipeline holds the refresh pipeline metrics. A nil *Pipeline is valid and
// records nothing.
type Pipeline struct {
	registry *prometheus.Registry

	FetchFailures      *prometheus.CounterVec
	EntriesFetched     prometheus.Counter
	CandidatesAdmitted prometheus.Counter
	EnrichFallbacks    *prometheus.CounterVec
	ArticlesStored     prometheus.Counter
	StorageErrors      prometheus.Counter
	Cycles             *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
}

// New registers every metric on a fresh registry together with the Go and
// process collectors.
func New() *Pipeline {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Pipeline{
		registry: reg,
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Sources whose fetch failed after retries",
		}, []string{"source"}),
		EntriesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_fetched_total",
			Help:      "Raw feed entries returned by fetches",
		}),
		CandidatesAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_admitted_total",
			Help:      "New articles admitted by the parse stage",
		}),
		EnrichFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_fallbacks_total",
			Help:      "Articles stored with degraded enrichment",
		}, []string{"reason"}),
		ArticlesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_stored_total",
			Help:      "Articles written by the store stage",
		}),
		StorageErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Per-article storage failures",
		}),
		Cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Refresh cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a refresh cycle",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Pipeline) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Pipeline) FetchFailed(source string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(source).Inc()
}

func (m *Pipeline) Fetched(n int) {
	if m == nil {
		return
	}
	m.EntriesFetched.Add(float64(n))
}

func (m *Pipeline) Admitted(n int) {
	if m == nil {
		return
	}
	m.CandidatesAdmitted.Add(float64(n))
}

// EnrichFallback counts a degraded enrichment; reason is "error" or "disabled".
func (m *Pipeline) EnrichFallback(reason string) {
	if m == nil {
		return
	}
	m.EnrichFallbacks.WithLabelValues(reason).Inc()
}

func (m *Pipeline) Stored(n int) {
	if m == nil {
		return
	}
	m.ArticlesStored.Add(float64(n))
}

func (m *Pipeline) StorageFailed() {
	if m == nil {
		return
	}
	m.StorageErrors.Inc()
}

// CycleFinished records the outcome label and the elapsed time.
func (m *Pipeline) CycleFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
}
