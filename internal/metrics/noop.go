package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRecordCreated is a no-op.
func (n *NoopRecorder) IncRecordCreated() {}

// IncRecordUpdated is a no-op.
func (n *NoopRecorder) IncRecordUpdated() {}

// IncRecordDeleted is a no-op.
func (n *NoopRecorder) IncRecordDeleted() {}

// SetRecordCount is a no-op.
func (n *NoopRecorder) SetRecordCount(count int) {}

// IncUpload is a no-op.
func (n *NoopRecorder) IncUpload(status string) {}

// ObserveUploadSize is a no-op.
func (n *NoopRecorder) ObserveUploadSize(bytes int64) {}

// IncWebhookDelivery is a no-op.
func (n *NoopRecorder) IncWebhookDelivery(status string) {}

// ObserveWebhookDeliveryDuration is a no-op.
func (n *NoopRecorder) ObserveWebhookDeliveryDuration(d time.Duration) {}

// SetWebhookQueueDepth is a no-op.
func (n *NoopRecorder) SetWebhookQueueDepth(depth int) {}
