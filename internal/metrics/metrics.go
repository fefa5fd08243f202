// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Record store metrics
	IncRecordCreated()
	IncRecordUpdated()
	IncRecordDeleted()
	SetRecordCount(count int)

	// Upload metrics
	IncUpload(status string) // status: "accepted" or "rejected"
	ObserveUploadSize(bytes int64)

	// Webhook metrics
	IncWebhookDelivery(status string) // status: "delivered", "failed", "exhausted" or "dropped"
	ObserveWebhookDeliveryDuration(d time.Duration)
	SetWebhookQueueDepth(depth int)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

// Upload statuses.
const (
	UploadAccepted = "accepted"
	UploadRejected = "rejected"
)

// Webhook delivery statuses.
const (
	WebhookDelivered = "delivered"
	WebhookFailed    = "failed"
	WebhookExhausted = "exhausted"
	WebhookDropped   = "dropped"
)
