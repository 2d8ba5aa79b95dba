package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "stattic"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg                *prom.Registry
	buildDuration      prom.Histogram
	buildOutcome       *prom.CounterVec
	entityResults      *prom.CounterVec
	imageResults       *prom.CounterVec
	fetchResults       *prom.CounterVec
	conversionDuration *prom.HistogramVec
	workers            prom.Gauge
}

// NewPrometheusRecorder constructs and registers the build metrics on reg,
// or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		entityResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "entity_results_total",
			Help:      "Content entity results by kind and status",
		}, []string{"kind", "status"}),
		imageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "image_results_total",
			Help:      "Image reference outcomes",
		}, []string{"status"}),
		fetchResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_results_total",
			Help:      "Remote fetch outcomes by reason",
		}, []string{"reason"}),
		conversionDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Image conversion duration by strategy",
			Buckets:   prom.DefBuckets,
		}, []string{"strategy"}),
		workers: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "workers",
			Help:      "Worker pool size of the last build",
		}),
	}
	reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.entityResults, pr.imageResults,
		pr.fetchResults, pr.conversionDuration, pr.workers)
	return pr
}

// Registry returns the registry holding the recorder's collectors.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncEntityResult(kind string, status EntityStatus) {
	if p == nil {
		return
	}
	p.entityResults.WithLabelValues(kind, string(status)).Inc()
}

func (p *PrometheusRecorder) IncImageResult(status ImageStatus) {
	if p == nil {
		return
	}
	p.imageResults.WithLabelValues(string(status)).Inc()
}

func (p *PrometheusRecorder) IncFetchResult(reason string) {
	if p == nil {
		return
	}
	p.fetchResults.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) ObserveConversionDuration(strategy string, d time.Duration) {
	if p == nil {
		return
	}
	p.conversionDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetWorkers(n int) {
	if p == nil {
		return
	}
	p.workers.Set(float64(n))
}

// WriteTextfile writes the current metrics to path in the text exposition
// format. The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}
