package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tumaini/giving-portal-go/analytics"
	"github.com/tumaini/giving-portal-go/middleware"
	models "github.com/tumaini/giving-portal-go/models"
)

// AnalyticsController is the ingest endpoint the site's pages post events
// to. Tracking is best-effort: this endpoint always accepts the event, and
// a failed forward is queued for replay rather than surfaced.
type AnalyticsController struct {
	tracker *analytics.Tracker
}

func NewAnalyticsController(tracker *analytics.Tracker) *AnalyticsController {
	return &AnalyticsController{tracker: tracker}
}

// Track handles POST /events.
func (h *AnalyticsController) Track(c *gin.Context) {
	var input struct {
		EventType  string         `json:"event_type" binding:"required"`
		Properties map[string]any `json:"properties"`
		SessionID  string         `json:"session_id" binding:"required"`
		PageURL    string         `json:"page_url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventType := models.EventType(input.EventType)
	switch eventType {
	case models.EventPageView, models.EventDonation, models.EventUserAction:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event_type"})
		return
	}

	meta := analytics.Meta{
		SessionID: input.SessionID,
		UserID:    c.GetString(middleware.ContextUserID),
		PageURL:   input.PageURL,
	}
	// Forwarding retries with backoff before queueing, so it runs off the
	// request path; the caller gets its 202 immediately.
	go h.tracker.Track(context.Background(), eventType, input.Properties, meta)

	c.JSON(http.StatusAccepted, gin.H{"message": "accepted"})
}
