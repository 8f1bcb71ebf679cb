package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sms_spam"

// Classification outcomes used as the outcome label
const (
	OutcomeSpam       = "spam"
	OutcomeHam        = "ham"
	OutcomeEmptyInput = "empty_input"
	OutcomeError      = "error"
)

// Metrics owns a private registry with the detector's collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	classifications *prometheus.CounterVec
	duration        prometheus.Histogram
	cacheHits       prometheus.Counter
}

// New creates the collectors and registers them together with the Go and
// process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classification requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_duration_seconds",
			Help:      "Time spent classifying one message.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_cache_hits_total",
			Help:      "Predictions served from the prediction cache.",
		}),
	}

	m.registry.MustRegister(
		m.classifications,
		m.duration,
		m.cacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for _, outcome := range []string{OutcomeSpam, OutcomeHam, OutcomeEmptyInput, OutcomeError} {
		m.classifications.WithLabelValues(outcome)
	}

	return m
}

// Outcome maps the result of a classification onto an outcome label
func Outcome(result *core.PredictionResult, err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		return OutcomeEmptyInput
	case err != nil || result == nil:
		return OutcomeError
	case result.IsSpam():
		return OutcomeSpam
	default:
		return OutcomeHam
	}
}

// ObserveClassification records one classification
func (m *Metrics) ObserveClassification(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(outcome).Inc()
	if outcome != OutcomeEmptyInput {
		m.duration.Observe(elapsed.Seconds())
	}
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InstrumentCache wraps a cache repository so that hits are counted
func InstrumentCache(repo core.CacheRepository, m *Metrics) core.CacheRepository {
	if m == nil {
		return repo
	}
	return &instrumentedCache{CacheRepository: repo, hits: m.cacheHits}
}

type instrumentedCache struct {
	core.CacheRepository
	hits prometheus.Counter
}

func (c *instrumentedCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	entry, err := c.CacheRepository.Get(ctx, key)
	if err == nil {
		c.hits.Inc()
	}
	return entry, err
}

// Stop stops the wrapped repository if it runs background work
func (c *instrumentedCache) Stop() {
	if stopper, ok := c.CacheRepository.(interface{ Stop() }); ok {
		stopper.Stop()
	}
}
