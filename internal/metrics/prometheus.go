package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mockapi"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	recordOps   *prometheus.CounterVec
	recordCount prometheus.Gauge
	uploads     *prometheus.CounterVec
	uploadSize  prometheus.Histogram

	webhookDeliveries *prometheus.CounterVec
	webhookDuration   prometheus.Histogram
	webhookQueueDepth prometheus.Gauge
}

// NewPrometheus creates a PrometheusRecorder with Go runtime and process
// collectors registered alongside the application metrics.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	p := &PrometheusRecorder{
		registry: reg,
		recordOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_operations_total",
			Help:      "Record mutations by operation.",
		}, []string{"operation"}),
		recordCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of records currently stored.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload requests by outcome.",
		}, []string{"status"}),
		uploadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of accepted uploaded files.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook delivery outcomes by status.",
		}, []string{"status"}),
		webhookDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_delivery_duration_seconds",
			Help:      "Duration of webhook delivery attempts.",
			Buckets:   prometheus.DefBuckets,
		}),
		webhookQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "webhook_queue_depth",
			Help:      "Record change events waiting for delivery.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.recordOps,
		p.recordCount,
		p.uploads,
		p.uploadSize,
		p.webhookDeliveries,
		p.webhookDuration,
		p.webhookQueueDepth,
	)

	return p
}

// Handler returns the HTTP handler serving the exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the private registry the recorder's collectors live in.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// IncRecordCreated increments the created operation counter.
func (p *PrometheusRecorder) IncRecordCreated() {
	p.recordOps.WithLabelValues("create").Inc()
}

// IncRecordUpdated increments the updated operation counter.
func (p *PrometheusRecorder) IncRecordUpdated() {
	p.recordOps.WithLabelValues("update").Inc()
}

// IncRecordDeleted increments the deleted operation counter.
func (p *PrometheusRecorder) IncRecordDeleted() {
	p.recordOps.WithLabelValues("delete").Inc()
}

// SetRecordCount sets the stored records gauge.
func (p *PrometheusRecorder) SetRecordCount(count int) {
	p.recordCount.Set(float64(count))
}

// IncUpload increments the upload counter for the given status.
func (p *PrometheusRecorder) IncUpload(status string) {
	p.uploads.WithLabelValues(status).Inc()
}

// ObserveUploadSize records the size of an accepted upload.
func (p *PrometheusRecorder) ObserveUploadSize(bytes int64) {
	p.uploadSize.Observe(float64(bytes))
}

// IncWebhookDelivery increments the webhook counter for the given status.
func (p *PrometheusRecorder) IncWebhookDelivery(status string) {
	p.webhookDeliveries.WithLabelValues(status).Inc()
}

// ObserveWebhookDeliveryDuration records one delivery attempt duration.
func (p *PrometheusRecorder) ObserveWebhookDeliveryDuration(d time.Duration) {
	p.webhookDuration.Observe(d.Seconds())
}

// SetWebhookQueueDepth sets the queued events gauge.
func (p *PrometheusRecorder) SetWebhookQueueDepth(depth int) {
	p.webhookQueueDepth.Set(float64(depth))
}
