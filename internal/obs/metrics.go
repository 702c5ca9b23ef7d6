package obs

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Export run outcomes used as the "result" label.
const (
	ResultSuccess     = "success"
	ResultConfigError = "config_error"
	ResultError       = "error"
)

// ExportMetrics groups Prometheus collectors describing feed export passes.
type ExportMetrics struct {
	Runs        *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Items       *prometheus.CounterVec
	Discounted  *prometheus.GaugeVec
	LastSuccess *prometheus.GaugeVec
}

// NewExportMetrics registers and returns export collectors. Registering twice
// against the same registry reuses the existing collectors.
func NewExportMetrics(namespace string, reg prometheus.Registerer) *ExportMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &ExportMetrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_runs_total",
			Help:      "Count of feed export passes by outcome.",
		}, []string{"feed", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_ms",
			Help:      "Feed export pass duration in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 300000},
		}, []string{"feed"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_items_total",
			Help:      "Count of items written to committed feeds.",
		}, []string{"feed"}),
		Discounted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "export_discounted_products",
			Help:      "Products published with a pre-discount price in the last committed pass.",
		}, []string{"feed"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "export_last_success_timestamp_seconds",
			Help:      "Unix time of the last committed pass.",
		}, []string{"feed"}),
	}
	mustRegisterCollector(reg, m.Runs, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.Runs = v
		}
	})
	mustRegisterCollector(reg, m.Duration, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			m.Duration = v
		}
	})
	mustRegisterCollector(reg, m.Items, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.Items = v
		}
	})
	mustRegisterCollector(reg, m.Discounted, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.GaugeVec); ok {
			m.Discounted = v
		}
	})
	mustRegisterCollector(reg, m.LastSuccess, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.GaugeVec); ok {
			m.LastSuccess = v
		}
	})
	return m
}

// ObserveRun records the outcome of one pass. A nil receiver is a no-op.
func (m *ExportMetrics) ObserveRun(feed, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(feed, result).Inc()
	m.Duration.WithLabelValues(feed).Observe(DurationMillis(elapsed))
}

// ObserveCommit records a committed feed.
func (m *ExportMetrics) ObserveCommit(feed string, items, discounted int, at time.Time) {
	if m == nil {
		return
	}
	m.Items.WithLabelValues(feed).Add(float64(items))
	m.Discounted.WithLabelValues(feed).Set(float64(discounted))
	m.LastSuccess.WithLabelValues(feed).Set(float64(at.Unix()))
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register export metric: %w", err))
	}
}
