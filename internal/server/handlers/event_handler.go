package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

// EventPlugin is a plugin subscribed to host events.
type EventPlugin interface {
	Wants(event string) bool
	Handle(ctx context.Context, event string, payload models.EventPayload)
}

// EventHandler receives host events and dispatches them to subscribed plugins.
type EventHandler struct {
	plugins []EventPlugin
	logger  *zap.Logger
}

// NewEventHandler constructs the event HTTP adapter.
func NewEventHandler(plugins []EventPlugin, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{plugins: plugins, logger: logger}
}

// Receive runs every plugin that wants the event. Plugins handle their own
// failures, so a well formed event is always accepted.
func (h *EventHandler) Receive(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid event payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// The event outlives a client that hangs up.
	ctx := context.WithoutCancel(c.Request.Context())
	payload := models.EventPayload{ID: req.ID}

	dispatched := 0
	for _, p := range h.plugins {
		if !p.Wants(req.Event) {
			continue
		}
		p.Handle(ctx, req.Event, payload)
		dispatched++
	}

	h.logger.Debug("event dispatched",
		zap.String("event", req.Event),
		zap.Int64("id", req.ID),
		zap.Int("plugins", dispatched))

	c.JSON(http.StatusAccepted, gin.H{"event": req.Event, "dispatched": dispatched})
}
