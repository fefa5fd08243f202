package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RecordsCreated   uint64
	RecordsUpdated   uint64
	RecordsDeleted   uint64
	RecordCount      int64
	UploadsAccepted  uint64
	UploadsRejected  uint64
	UploadBytesTotal int64

	WebhooksDelivered      uint64
	WebhooksFailed         uint64
	WebhooksExhausted      uint64
	WebhooksDropped        uint64
	WebhookDeliveryCount   uint64
	WebhookDeliveryTotalNs int64
	WebhookQueueDepth      int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	recordsCreated   uint64
	recordsUpdated   uint64
	recordsDeleted   uint64
	recordCount      int64
	uploadsAccepted  uint64
	uploadsRejected  uint64
	uploadBytesTotal int64

	webhooksDelivered      uint64
	webhooksFailed         uint64
	webhooksExhausted      uint64
	webhooksDropped        uint64
	webhookDeliveryCount   uint64
	webhookDeliveryTotalNs int64
	webhookQueueDepth      int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		RecordsCreated:   atomic.LoadUint64(&m.recordsCreated),
		RecordsUpdated:   atomic.LoadUint64(&m.recordsUpdated),
		RecordsDeleted:   atomic.LoadUint64(&m.recordsDeleted),
		RecordCount:      atomic.LoadInt64(&m.recordCount),
		UploadsAccepted:  atomic.LoadUint64(&m.uploadsAccepted),
		UploadsRejected:  atomic.LoadUint64(&m.uploadsRejected),
		UploadBytesTotal: atomic.LoadInt64(&m.uploadBytesTotal),

		WebhooksDelivered:      atomic.LoadUint64(&m.webhooksDelivered),
		WebhooksFailed:         atomic.LoadUint64(&m.webhooksFailed),
		WebhooksExhausted:      atomic.LoadUint64(&m.webhooksExhausted),
		WebhooksDropped:        atomic.LoadUint64(&m.webhooksDropped),
		WebhookDeliveryCount:   atomic.LoadUint64(&m.webhookDeliveryCount),
		WebhookDeliveryTotalNs: atomic.LoadInt64(&m.webhookDeliveryTotalNs),
		WebhookQueueDepth:      atomic.LoadInt64(&m.webhookQueueDepth),
	}
}

// IncRecordCreated increments record created counter.
func (m *InMemoryRecorder) IncRecordCreated() {
	atomic.AddUint64(&m.recordsCreated, 1)
}

// IncRecordUpdated increments record updated counter.
func (m *InMemoryRecorder) IncRecordUpdated() {
	atomic.AddUint64(&m.recordsUpdated, 1)
}

// IncRecordDeleted increments record deleted counter.
func (m *InMemoryRecorder) IncRecordDeleted() {
	atomic.AddUint64(&m.recordsDeleted, 1)
}

// SetRecordCount stores the current number of records.
func (m *InMemoryRecorder) SetRecordCount(count int) {
	atomic.StoreInt64(&m.recordCount, int64(count))
}

// IncUpload increments the upload counter for the given status.
func (m *InMemoryRecorder) IncUpload(status string) {
	if status == UploadAccepted {
		atomic.AddUint64(&m.uploadsAccepted, 1)
		return
	}
	atomic.AddUint64(&m.uploadsRejected, 1)
}

// ObserveUploadSize adds to the uploaded bytes total.
func (m *InMemoryRecorder) ObserveUploadSize(bytes int64) {
	atomic.AddInt64(&m.uploadBytesTotal, bytes)
}

// IncWebhookDelivery increments the webhook counter for the given status.
func (m *InMemoryRecorder) IncWebhookDelivery(status string) {
	switch status {
	case WebhookDelivered:
		atomic.AddUint64(&m.webhooksDelivered, 1)
	case WebhookFailed:
		atomic.AddUint64(&m.webhooksFailed, 1)
	case WebhookExhausted:
		atomic.AddUint64(&m.webhooksExhausted, 1)
	case WebhookDropped:
		atomic.AddUint64(&m.webhooksDropped, 1)
	}
}

// ObserveWebhookDeliveryDuration records one delivery attempt duration.
func (m *InMemoryRecorder) ObserveWebhookDeliveryDuration(d time.Duration) {
	atomic.AddUint64(&m.webhookDeliveryCount, 1)
	atomic.AddInt64(&m.webhookDeliveryTotalNs, d.Nanoseconds())
}

// SetWebhookQueueDepth stores the number of queued events.
func (m *InMemoryRecorder) SetWebhookQueueDepth(depth int) {
	atomic.StoreInt64(&m.webhookQueueDepth, int64(depth))
}
