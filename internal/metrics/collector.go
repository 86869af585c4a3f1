// Package metrics records conversion counters on a private Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Batch outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collector contains all conversion metrics.
type Collector struct {
	registry *prometheus.Registry

	FilesConverted    prometheus.Counter
	FilesFailed       prometheus.Counter
	InputBytes        prometheus.Counter
	SamplesWritten    prometheus.Counter
	Batches           *prometheus.CounterVec
	TranscodeDuration prometheus.Histogram
}

// NewCollector creates and registers all metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		FilesConverted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vr8_files_converted_total",
			Help: "Total number of VR8 files converted to WAV",
		}),
		FilesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vr8_files_failed_total",
			Help: "Total number of VR8 files whose conversion failed",
		}),
		InputBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "vr8_input_bytes_total",
			Help: "Total raw PCM bytes read from converted inputs",
		}),
		SamplesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "vr8_samples_written_total",
			Help: "Total 16-bit samples written into WAV data chunks",
		}),
		Batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vr8_batches_total",
			Help: "Total number of conversion batches by outcome",
		}, []string{"outcome"}),
		TranscodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vr8_transcode_duration_seconds",
			Help:    "Time spent converting a single file",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

// ObserveTranscode records one finished file conversion.
func (c *Collector) ObserveTranscode(elapsed time.Duration, inputBytes, samples int64, err error) {
	c.TranscodeDuration.Observe(elapsed.Seconds())
	if err != nil {
		c.FilesFailed.Inc()
		return
	}
	c.FilesConverted.Inc()
	c.InputBytes.Add(float64(inputBytes))
	c.SamplesWritten.Add(float64(samples))
}

// ObserveBatch records one finished batch.
func (c *Collector) ObserveBatch(err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.Batches.WithLabelValues(outcome).Inc()
}

// Samples returns the total number of samples written so far.
func (c *Collector) Samples() float64 {
	return counterValue(c.SamplesWritten)
}

// Converted returns the total number of files converted so far.
func (c *Collector) Converted() float64 {
	return counterValue(c.FilesConverted)
}

func counterValue(counter prometheus.Counter) float64 {
	var m dto.Metric
	if err := counter.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// Registry exposes the registry for custom gatherers and tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
