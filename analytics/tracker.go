package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	models "github.com/tumaini/giving-portal-go/models"
)

// Meta is the per-request context an event is enriched with.
type Meta struct {
	SessionID string
	UserID    string
	PageURL   string
}

// Tracker sends events best-effort: a failed send is queued, never surfaced,
// so tracking can never break the caller's primary flow.
type Tracker struct {
	sink  Sink
	queue *FailedQueue
	log   *zap.Logger

	// Fallback session id for events tracked outside a request (replays,
	// server-emitted donation events). Stable for the process lifetime.
	sessionID string

	retries   int
	baseDelay time.Duration
	factor    int
}

func New(sink Sink, queue *FailedQueue, log *zap.Logger) *Tracker {
	return &Tracker{
		sink:      sink,
		queue:     queue,
		log:       log,
		sessionID: uuid.NewString(),
		retries:   3,
		baseDelay: time.Second,
		factor:    2,
	}
}

// Track enriches and sends one event. On failure the pre-enrichment form is
// queued for replay and the call still returns normally.
func (t *Tracker) Track(ctx context.Context, eventType models.EventType, props map[string]any, meta Meta) {
	ev := t.enrich(eventType, props, meta)

	if err := t.sendWithRetry(ctx, ev); err != nil {
		t.log.Warn("analytics send failed, queuing event",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
		queued := models.QueuedEvent{EventType: eventType, Properties: props, QueuedAt: time.Now()}
		if qErr := t.queue.Push(queued); qErr != nil {
			t.log.Error("failed to persist queued analytics event", zap.Error(qErr))
		}
	}
}

// RetryFailedEvents replays the persisted failed-events queue. Run once at
// process start. Events that fail again go back on the queue; only the ones
// that now succeed stay removed.
func (t *Tracker) RetryFailedEvents(ctx context.Context) {
	events, err := t.queue.Drain()
	if err != nil {
		t.log.Error("failed to drain analytics queue", zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	var sent int
	for _, queued := range events {
		ev := t.enrich(queued.EventType, queued.Properties, Meta{})
		if err := t.sendWithRetry(ctx, ev); err != nil {
			if qErr := t.queue.Push(queued); qErr != nil {
				t.log.Error("failed to requeue analytics event", zap.Error(qErr))
			}
			continue
		}
		sent++
	}
	t.log.Info("replayed failed analytics events",
		zap.Int("sent", sent),
		zap.Int("remaining", t.queue.Len()),
	)
}

func (t *Tracker) enrich(eventType models.EventType, props map[string]any, meta Meta) models.AnalyticsEvent {
	sessionID := meta.SessionID
	if sessionID == "" {
		sessionID = t.sessionID
	}
	return models.AnalyticsEvent{
		EventType:  eventType,
		Properties: props,
		Timestamp:  time.Now().UTC(),
		PageURL:    meta.PageURL,
		SessionID:  sessionID,
		UserID:     meta.UserID,
	}
}

func (t *Tracker) sendWithRetry(ctx context.Context, ev models.AnalyticsEvent) error {
	delay := t.baseDelay
	var err error
	for attempt := 1; attempt <= t.retries; attempt++ {
		if err = t.sink.Send(ctx, ev); err == nil {
			return nil
		}
		if attempt == t.retries {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= time.Duration(t.factor)
	}
	return err
}
