package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mockapi/mockapi/internal/metrics"
	"github.com/mockapi/mockapi/internal/model"
)

// DefaultQueueSize is the number of events buffered ahead of the worker.
const DefaultQueueSize = 256

// delivery is one serialized event waiting to be sent.
type delivery struct {
	id        string
	eventType model.EventType
	payload   []byte
}

// Publisher turns record changes into queued webhook deliveries. Publishing
// never blocks the request path: when the queue is full the event is dropped.
type Publisher struct {
	mu     sync.RWMutex
	queue  chan *delivery
	closed bool

	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewPublisher creates a new webhook publisher.
func NewPublisher(queueSize int, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		queue:   make(chan *delivery, queueSize),
		logger:  logger.With("component", "webhook.publisher"),
		metrics: recorder,
		now:     time.Now,
	}
}

// Publish enqueues an event for the record. rec may be nil for deletions.
func (p *Publisher) Publish(ctx context.Context, eventType model.EventType, recordID string, rec model.Record) {
	now := p.now()
	event := model.Event{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Type:      eventType,
		Timestamp: now.UnixMilli(),
		RecordID:  recordID,
		Record:    rec,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to marshal event",
			"event_type", eventType,
			"record_id", recordID,
			"error", err,
		)
		p.metrics.IncWebhookDelivery(metrics.WebhookDropped)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.logger.DebugContext(ctx, "publisher closed, event dropped", "event_id", event.ID)
		p.metrics.IncWebhookDelivery(metrics.WebhookDropped)
		return
	}

	select {
	case p.queue <- &delivery{id: event.ID, eventType: eventType, payload: payload}:
		p.metrics.SetWebhookQueueDepth(len(p.queue))
		p.logger.DebugContext(ctx, "webhook event queued",
			"event_id", event.ID,
			"event_type", eventType,
			"record_id", recordID,
		)
	default:
		p.logger.WarnContext(ctx, "webhook queue full, event dropped",
			"event_id", event.ID,
			"event_type", eventType,
			"record_id", recordID,
		)
		p.metrics.IncWebhookDelivery(metrics.WebhookDropped)
	}
}

// Close stops accepting events. Queued events remain for the worker.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.queue)
}

// Len returns the number of queued events.
func (p *Publisher) Len() int {
	return len(p.queue)
}
