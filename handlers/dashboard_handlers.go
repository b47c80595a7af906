// api/handlers/dashboard_handlers.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkoutlens/api/dashboard"
	"checkoutlens/api/store"
)

type DashboardHandlers struct {
	Assembler *dashboard.Assembler
	Events    store.EventStore
	log       *zap.Logger
}

func NewDashboardHandlers(a *dashboard.Assembler, events store.EventStore, log *zap.Logger) *DashboardHandlers {
	return &DashboardHandlers{Assembler: a, Events: events, log: log}
}

// GetDashboard serves the assembled payload, cached for a few minutes to
// bound query load under dashboard auto-refresh.
func (h *DashboardHandlers) GetDashboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.Assembler.Payload(ctx),
	})
}

// Refresh invalidates the cached payload and rebuilds it. Bound to the
// dashboard's manual refresh button.
func (h *DashboardHandlers) Refresh(c *gin.Context) {
	h.Assembler.Invalidate()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.Assembler.Payload(ctx),
	})
}

// Health reports process liveness and event store reachability.
func (h *DashboardHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.Events.Ping(ctx); err != nil {
		h.log.Warn("Health check: event store unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "event_store": "unreachable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
