package models

import "time"

type EventType string

const (
	EventPageView   EventType = "page_view"
	EventDonation   EventType = "donation"
	EventUserAction EventType = "user_action"
)

// AnalyticsEvent is the enriched form sent to the collector.
type AnalyticsEvent struct {
	EventType  EventType      `json:"event_type"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	PageURL    string         `json:"page_url,omitempty"`
	SessionID  string         `json:"session_id"`
	UserID     string         `json:"user_id,omitempty"`
}

// QueuedEvent is the pre-enrichment form kept in the failed-events queue.
// Replayed events are re-enriched at send time, so only the caller's
// arguments are stored.
type QueuedEvent struct {
	EventType  EventType      `json:"event_type"`
	Properties map[string]any `json:"properties,omitempty"`
	QueuedAt   time.Time      `json:"queued_at"`
}
