package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "github.com/tumaini/giving-portal-go/models"
)

type mockSink struct {
	mu    sync.Mutex
	fail  bool
	sent  []models.AnalyticsEvent
	calls int
}

func (m *mockSink) Send(_ context.Context, ev models.AnalyticsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return errors.New("collector unreachable")
	}
	m.sent = append(m.sent, ev)
	return nil
}

func (m *mockSink) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func newTestTracker(sink Sink, queue *FailedQueue) *Tracker {
	tr := New(sink, queue, zap.NewNop())
	tr.baseDelay = time.Millisecond
	return tr
}

func mustQueue(t *testing.T, capacity int) *FailedQueue {
	t.Helper()
	q, err := NewFailedQueue(capacity, NewMemoryStore())
	require.NoError(t, err)
	return q
}

func TestTrackSendsEnrichedEvent(t *testing.T) {
	sink := &mockSink{}
	queue := mustQueue(t, 10)
	tr := newTestTracker(sink, queue)

	tr.Track(context.Background(), models.EventPageView, map[string]any{"path": "/donate"}, Meta{
		SessionID: "sess-1",
		UserID:    "user-9",
		PageURL:   "https://giving.test/donate",
	})

	require.Len(t, sink.sent, 1)
	ev := sink.sent[0]
	assert.Equal(t, models.EventPageView, ev.EventType)
	assert.Equal(t, "sess-1", ev.SessionID)
	assert.Equal(t, "user-9", ev.UserID)
	assert.Equal(t, "https://giving.test/donate", ev.PageURL)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, 0, queue.Len())
}

func TestTrackQueuesOnFailureWithoutErroring(t *testing.T) {
	sink := &mockSink{fail: true}
	queue := mustQueue(t, 10)
	tr := newTestTracker(sink, queue)

	// Track never returns an error; a failed send must land on the queue.
	tr.Track(context.Background(), models.EventUserAction, map[string]any{"button": "share"}, Meta{SessionID: "s"})

	assert.Equal(t, 3, sink.calls, "bounded retry: 3 attempts")
	assert.Equal(t, 1, queue.Len())
}

func TestRetryFailedEventsRemovesOnlySucceeded(t *testing.T) {
	sink := &mockSink{fail: true}
	queue := mustQueue(t, 10)
	tr := newTestTracker(sink, queue)

	tr.Track(context.Background(), models.EventUserAction, map[string]any{"n": 1}, Meta{SessionID: "s"})
	tr.Track(context.Background(), models.EventDonation, map[string]any{"n": 2}, Meta{SessionID: "s"})
	require.Equal(t, 2, queue.Len())

	// Replay with the collector healthy again: queue empties.
	sink.setFail(false)
	tr.RetryFailedEvents(context.Background())
	assert.Equal(t, 0, queue.Len())
	assert.Len(t, sink.sent, 2)

	// Replay while still failing: events stay queued.
	sink.setFail(true)
	tr.Track(context.Background(), models.EventPageView, nil, Meta{SessionID: "s"})
	require.Equal(t, 1, queue.Len())
	tr.RetryFailedEvents(context.Background())
	assert.Equal(t, 1, queue.Len())
}

func TestQueueSurvivesRestart(t *testing.T) {
	persist := NewMemoryStore()
	queue, err := NewFailedQueue(10, persist)
	require.NoError(t, err)
	sink := &mockSink{fail: true}
	tr := newTestTracker(sink, queue)

	tr.Track(context.Background(), models.EventDonation, map[string]any{"amount": 50.0}, Meta{SessionID: "s"})
	require.Equal(t, 1, queue.Len())

	// A fresh queue over the same persistence sees the event.
	reloaded, err := NewFailedQueue(10, persist)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
}

func TestQueueDropsOldestAtCapacity(t *testing.T) {
	queue := mustQueue(t, 2)

	require.NoError(t, queue.Push(models.QueuedEvent{EventType: models.EventPageView, Properties: map[string]any{"n": 1}}))
	require.NoError(t, queue.Push(models.QueuedEvent{EventType: models.EventPageView, Properties: map[string]any{"n": 2}}))
	require.NoError(t, queue.Push(models.QueuedEvent{EventType: models.EventPageView, Properties: map[string]any{"n": 3}}))

	assert.Equal(t, 2, queue.Len())
	events, err := queue.Drain()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[0].Properties["n"])
	assert.Equal(t, 3, events[1].Properties["n"])
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := t.TempDir() + "/failed_events.json"
	fs := NewFileStore(path)

	events := []models.QueuedEvent{
		{EventType: models.EventDonation, Properties: map[string]any{"amount": 50.0}, QueuedAt: time.Now().UTC()},
	}
	require.NoError(t, fs.Save(events))

	loaded, err := fs.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, models.EventDonation, loaded[0].EventType)
	assert.Equal(t, 50.0, loaded[0].Properties["amount"])
}
