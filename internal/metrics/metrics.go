// Package metrics provides Prometheus metrics for the readiness workflow.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/devinsights/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the client. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	StatusChecks       *prometheus.CounterVec
	IngestionRequests  *prometheus.CounterVec
	IngestionCoalesced prometheus.Counter
	PollTicks          prometheus.Counter
	JobsTotal          *prometheus.CounterVec
	JobDuration        prometheus.Histogram
	JobsActive         prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		StatusChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devinsights_status_checks_total",
				Help: "Repository status checks by result.",
			},
			[]string{"result"},
		),
		IngestionRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devinsights_ingestion_requests_total",
				Help: "Ingestion trigger calls sent to the backend by result.",
			},
			[]string{"result"},
		),
		IngestionCoalesced: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "devinsights_ingestion_coalesced_total",
				Help: "Ingestion results delivered to more than one concurrent caller.",
			},
		),
		PollTicks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "devinsights_poll_ticks_total",
				Help: "Status polls made while waiting for ingestion.",
			},
		),
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devinsights_readiness_jobs_total",
				Help: "Finished readiness jobs by terminal phase.",
			},
			[]string{"phase"},
		),
		JobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "devinsights_readiness_job_duration_seconds",
				Help:    "Wall time from job start to terminal phase.",
				Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		JobsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "devinsights_readiness_jobs_active",
				Help: "Readiness jobs currently running.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.StatusChecks,
		m.IngestionRequests,
		m.IngestionCoalesced,
		m.PollTicks,
		m.JobsTotal,
		m.JobDuration,
		m.JobsActive,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveStatusCheck(result string) {
	if m == nil {
		return
	}
	m.StatusChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveIngestion(result string) {
	if m == nil {
		return
	}
	m.IngestionRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCoalesced() {
	if m == nil {
		return
	}
	m.IngestionCoalesced.Inc()
}

func (m *Metrics) ObservePollTick() {
	if m == nil {
		return
	}
	m.PollTicks.Inc()
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsActive.Inc()
}

func (m *Metrics) JobFinished(phase string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobsActive.Dec()
	m.JobsTotal.WithLabelValues(phase).Inc()
	m.JobDuration.Observe(elapsed.Seconds())
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	logger := logging.Component("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", ChainMiddleware(m.Handler(), RecoverMiddleware(logger), LoggingMiddleware(logger)))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
