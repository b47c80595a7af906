// api/handlers/settings_handlers.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkoutlens/api/models"
	"checkoutlens/api/store"
)

// TeardownConfirmation must be echoed verbatim before the destructive
// teardown path runs. It never runs by default.
const TeardownConfirmation = "DELETE"

type SettingsHandlers struct {
	Settings *store.SettingsStore
	Events   store.EventStore
	log      *zap.Logger
}

func NewSettingsHandlers(settings *store.SettingsStore, events store.EventStore, log *zap.Logger) *SettingsHandlers {
	return &SettingsHandlers{Settings: settings, Events: events, log: log}
}

func (h *SettingsHandlers) GetSettings(c *gin.Context) {
	settings, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandlers) UpdateSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.Settings.Update(c.Request.Context(), settings); err != nil {
		h.log.Error("Failed to update settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated", "settings": settings})
}

type teardownRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}

// Teardown drops the event table and resets settings to install defaults.
// Requires an explicit confirmation string; there is no undo.
func (h *SettingsHandlers) Teardown(c *gin.Context) {
	var req teardownRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Confirm != TeardownConfirmation {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Teardown requires confirm=\"" + TeardownConfirmation + "\"",
		})
		return
	}

	if err := h.Events.Drop(c.Request.Context()); err != nil {
		h.log.Error("Teardown: failed to drop event table", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to drop event data"})
		return
	}

	if err := h.Settings.Reset(c.Request.Context()); err != nil {
		h.log.Error("Teardown: failed to reset settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Event data dropped but settings reset failed"})
		return
	}

	h.log.Warn("Teardown completed: event data dropped, settings reset",
		zap.Any("requested_by", c.GetString("user_email")))
	c.JSON(http.StatusOK, gin.H{"message": "Teardown completed"})
}
