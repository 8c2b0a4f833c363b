// Package prometheus records pipeline metrics with the Prometheus client
// library and exports them in the node_exporter textfile format.
package prometheus

import (
	"time"

	"github.com/fwojciec/mcscrape"
	"github.com/prometheus/client_golang/prometheus"
)

// Ensure Metrics implements mcscrape.Observer at compile time.
var _ mcscrape.Observer = (*Metrics)(nil)

// Metrics is an Observer that counts stage transitions and results.
// Metrics is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	Transitions *prometheus.CounterVec
	Results     *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	ContentSize prometheus.Histogram
	InFlight    prometheus.Gauge
}

// NewMetrics creates Metrics registered on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcscrape",
			Name:      "stage_transitions_total",
			Help:      "Pipeline stage transitions by target stage.",
		}, []string{"stage"}),
		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcscrape",
			Name:      "results_total",
			Help:      "Finished URLs by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mcscrape",
			Name:      "pipeline_duration_seconds",
			Help:      "Time from start to result per URL.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"outcome"}),
		ContentSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mcscrape",
			Name:      "main_content_bytes",
			Help:      "Size of the main-content Markdown of successful URLs.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcscrape",
			Name:      "pipelines_in_flight",
			Help:      "URLs currently being processed.",
		}),
	}
	m.registry.MustRegister(m.Transitions, m.Results, m.Duration, m.ContentSize, m.InFlight)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// StageChanged implements mcscrape.Observer.
func (m *Metrics) StageChanged(url string, from, to mcscrape.Stage) {
	m.Transitions.WithLabelValues(string(to)).Inc()
	if from == mcscrape.StagePending {
		m.InFlight.Inc()
	}
	if to.IsTerminal() {
		m.InFlight.Dec()
	}
}

// ResultReady implements mcscrape.Observer.
func (m *Metrics) ResultReady(result *mcscrape.ScrapeResult, elapsed time.Duration) {
	outcome, kind := "ok", ""
	if result.Error != nil {
		outcome, kind = "failed", result.Error.Kind
	} else {
		m.ContentSize.Observe(float64(len(result.MainContentMarkdown)))
	}
	m.Results.WithLabelValues(outcome, kind).Inc()
	m.Duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// WriteFile writes the current metric values to path in the text
// exposition format, replacing the file atomically.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "writing metrics to %s: %v", path, err)
	}
	return nil
}
