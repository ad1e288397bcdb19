// Package metrics exposes prometheus counters for generation runs.
//
// All methods are safe on a nil *Metrics, so callers that run without an
// endpoint pass nil instead of branching.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "qforge"

// Candidate stages
const (
	StageParsed    = "parsed"
	StageVerified  = "verified"
	StageRejected  = "rejected"
	StageDropped   = "dropped"
	StagePersisted = "persisted"
)

// Unit outcomes
const (
	UnitDone    = "done"
	UnitFailed  = "failed"
	UnitSkipped = "skipped"
)

// Metrics holds the collectors for one process, on a private registry
type Metrics struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	backendTokens   *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	candidates      *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	units           *prometheus.CounterVec
	unitsInFlight   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Generation calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		backendTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "tokens_total",
			Help:      "Tokens reported by the backend, by model",
		}, []string{"model"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Generation call latency",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Question candidates by pipeline stage reached",
		}, []string{"stage"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_attempts_total",
			Help:      "Re-solve attempts by result (match, mismatch, error)",
		}, []string{"result"}),
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_total",
			Help:      "Work units by outcome",
		}, []string{"outcome"}),
		unitsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units_in_flight",
			Help:      "Work units currently running",
		}),
	}

	m.registry.MustRegister(
		m.backendRequests, m.backendTokens, m.backendLatency,
		m.candidates, m.attempts, m.units, m.unitsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry, for tests and custom exporters
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) BackendCall(provider, model string, d time.Duration, tokens int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backendRequests.WithLabelValues(provider, outcome).Inc()
	m.backendLatency.WithLabelValues(provider).Observe(d.Seconds())
	if tokens > 0 {
		m.backendTokens.WithLabelValues(model).Add(float64(tokens))
	}
}

func (m *Metrics) Candidates(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.candidates.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) Attempt(result string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(result).Inc()
}

func (m *Metrics) Unit(outcome string) {
	if m == nil {
		return
	}
	m.units.WithLabelValues(outcome).Inc()
}

// UnitStarted increments the in-flight gauge; the returned func decrements it
func (m *Metrics) UnitStarted() func() {
	if m == nil {
		return func() {}
	}
	m.unitsInFlight.Inc()
	return m.unitsInFlight.Dec
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx ends
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
