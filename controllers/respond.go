package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	store "github.com/tumaini/giving-portal-go/store"
)

// respNotifier captures the facade's user-facing copy so it can be returned
// as the response message.
type respNotifier struct {
	msg string
}

func (n *respNotifier) Notify(message string) { n.msg = message }

// respondStoreError maps a classified data-layer failure onto an HTTP reply.
// Data-layer errors never escape as panics or raw driver messages.
func respondStoreError(c *gin.Context, ce *store.ClassifiedError, fallback string) {
	status := http.StatusInternalServerError
	switch ce.Class {
	case store.ClassPermission:
		status = http.StatusForbidden
	case store.ClassNotFound:
		status = http.StatusNotFound
	case store.ClassUnavailable:
		status = http.StatusServiceUnavailable
	}

	msg := ce.UserMessage
	if ce.Class == store.ClassUnknown && fallback != "" {
		msg = fallback
	}

	body := gin.H{"error": msg}
	if ce.ActionURL != "" {
		body["action_url"] = ce.ActionURL
	}
	c.JSON(status, body)
}
