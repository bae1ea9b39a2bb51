package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BatchMetrics exposes batch orchestration as Prometheus instruments.
type BatchMetrics struct {
	tasksTotal    *prometheus.CounterVec
	taskDuration  prometheus.Histogram
	activeBatches prometheus.Gauge
	imageDuration *prometheus.HistogramVec
}

// NewBatchMetrics registers the instruments on reg.
func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	f := promauto.With(reg)
	return &BatchMetrics{
		tasksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logoforge",
			Name:      "batch_tasks_total",
			Help:      "Batch tasks processed, by outcome.",
		}, []string{"outcome"}),
		taskDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "logoforge",
			Name:      "batch_task_duration_seconds",
			Help:      "Time to generate and persist one logo.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s to ~2m
		}),
		activeBatches: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "logoforge",
			Name:      "active_batches",
			Help:      "Batches currently running.",
		}),
		imageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "logoforge",
			Name:      "image_generate_duration_seconds",
			Help:      "Image provider call latency, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 9),
		}, []string{"outcome"}),
	}
}

// BatchStarted increments the active batch gauge.
func (m *BatchMetrics) BatchStarted() { m.activeBatches.Inc() }

// BatchFinished decrements the active batch gauge.
func (m *BatchMetrics) BatchFinished() { m.activeBatches.Dec() }

// TaskDone records one task outcome and its duration.
func (m *BatchMetrics) TaskDone(success bool, d time.Duration) {
	m.tasksTotal.WithLabelValues(outcome(success)).Inc()
	m.taskDuration.Observe(d.Seconds())
}

// ImageGenerated records one image provider call.
func (m *BatchMetrics) ImageGenerated(success bool, d time.Duration) {
	m.imageDuration.WithLabelValues(outcome(success)).Observe(d.Seconds())
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// ImageRecorder is implemented by Collector and BatchMetrics.
type ImageRecorder interface {
	ImageGenerated(success bool, d time.Duration)
}

// TaskRecorder is implemented by Collector and BatchMetrics.
type TaskRecorder interface {
	BatchStarted()
	BatchFinished()
	TaskDone(success bool, d time.Duration)
}

type multiRecorder []TaskRecorder

// Multi fans batch events out to every recorder.
func Multi(recorders ...TaskRecorder) TaskRecorder {
	return multiRecorder(recorders)
}

func (m multiRecorder) BatchStarted() {
	for _, r := range m {
		r.BatchStarted()
	}
}

func (m multiRecorder) BatchFinished() {
	for _, r := range m {
		r.BatchFinished()
	}
}

func (m multiRecorder) TaskDone(success bool, d time.Duration) {
	for _, r := range m {
		r.TaskDone(success, d)
	}
}
