package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mockapi/mockapi/internal/metrics"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 10 * time.Second

// Config configures a Worker.
type Config struct {
	TargetURL   string
	Secret      string
	MaxAttempts int
	Timeout     time.Duration
}

// Worker sends queued events to the configured endpoint one at a time,
// retrying failed attempts with backoff.
type Worker struct {
	publisher   *Publisher
	client      *http.Client
	targetURL   string
	signer      *Signer
	maxAttempts int
	logger      *slog.Logger
	metrics     metrics.Recorder
	backoff     func(attempt int) time.Duration

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWorker creates a new webhook delivery worker draining p.
func NewWorker(p *Publisher, cfg Config, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Worker{
		publisher:   p,
		client:      NewHTTPClient(cfg.Timeout),
		targetURL:   cfg.TargetURL,
		signer:      NewSigner(cfg.Secret),
		maxAttempts: cfg.MaxAttempts,
		logger:      logger.With("component", "webhook.worker"),
		metrics:     recorder,
		backoff:     NextRetryDelay,
		done:        make(chan struct{}),
	}
}

// Run delivers events until the publisher is closed and drained or ctx is
// cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.mu.Unlock()
	defer close(w.done)

	w.logger.Info("webhook worker started", "target_host", ExtractHost(w.targetURL))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("webhook worker stopping", "pending", w.publisher.Len())
			return ctx.Err()
		case d, ok := <-w.publisher.queue:
			if !ok {
				w.logger.Info("webhook worker drained")
				return nil
			}
			w.metrics.SetWebhookQueueDepth(w.publisher.Len())
			w.deliverWithRetry(ctx, d)
		}
	}
}

// Start runs the worker in a background goroutine.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("webhook worker error", "error", err)
		}
	}()
}

// Shutdown closes the publisher and waits for queued events to be
// delivered. When ctx expires first the remaining events are abandoned.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.publisher.Close()

	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel == nil {
		return nil
	}
	defer cancel()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		cancel()
		<-w.done
		return fmt.Errorf("webhook queue not drained: %w", ctx.Err())
	}
}

// deliverWithRetry attempts delivery until success, exhaustion or
// cancellation.
func (w *Worker) deliverWithRetry(ctx context.Context, d *delivery) {
	for attempt := 1; ; attempt++ {
		err := w.deliver(ctx, d)
		if err == nil {
			w.metrics.IncWebhookDelivery(metrics.WebhookDelivered)
			return
		}

		if IsExhausted(attempt, w.maxAttempts) {
			w.logger.Error("webhook delivery exhausted",
				"delivery_id", d.id,
				"attempts", attempt,
				"error", err,
			)
			w.metrics.IncWebhookDelivery(metrics.WebhookExhausted)
			return
		}

		delay := w.backoff(attempt - 1)
		w.logger.Warn("webhook delivery failed",
			"delivery_id", d.id,
			"attempt", attempt,
			"retry_in", delay,
			"error", err,
		)
		w.metrics.IncWebhookDelivery(metrics.WebhookFailed)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// deliver attempts to send a single webhook.
func (w *Worker) deliver(ctx context.Context, d *delivery) error {
	start := time.Now()
	req, err := newDeliveryRequest(ctx, w.targetURL, w.signer, d, start)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := w.client.Do(req)
	duration := time.Since(start)

	w.metrics.ObserveWebhookDeliveryDuration(duration)

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	w.logger.Info("webhook delivered",
		"delivery_id", d.id,
		"event_type", d.eventType,
		"target_host", ExtractHost(w.targetURL),
		"http_status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return nil
}
