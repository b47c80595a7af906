// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkoutlens/api/middleware"
	"checkoutlens/api/models"
	"checkoutlens/api/recorder"
	"checkoutlens/api/utils"
)

type TrackHandlers struct {
	Recorder *recorder.Recorder
	log      *zap.Logger
}

func NewTrackHandlers(r *recorder.Recorder, log *zap.Logger) *TrackHandlers {
	return &TrackHandlers{Recorder: r, log: log}
}

// StartSession issues a fresh session id plus its anti-forgery token and
// records the session_start event. The token's sid claim is the canonical
// session authority from here on.
func (h *TrackHandlers) StartSession(c *gin.Context) {
	sessionID := utils.GenerateSessionID()

	token, err := utils.GenerateSessionToken(sessionID)
	if err != nil {
		h.log.Error("Failed to mint session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.TrackResponse{
			Success: false,
			Message: "failed to start session",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	// A lost session_start row only skews the first aggregation; the session
	// itself is still usable, so the handshake succeeds regardless.
	if _, err := h.Recorder.Record(ctx, models.EventSessionStart, sessionID, nil); err != nil {
		h.log.Warn("Failed to record session_start", zap.String("session_id", sessionID), zap.Error(err))
	}

	c.JSON(http.StatusOK, models.SessionStartResponse{
		SessionID: sessionID,
		Token:     token,
	})
}

// Track ingests one friction event from the browser instrumentation.
func (h *TrackHandlers) Track(c *gin.Context) {
	var req models.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.TrackResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	claims, ok := c.MustGet(middleware.SessionClaimsKey).(*utils.SessionClaims)
	if !ok || claims.SessionID != req.SessionID {
		c.JSON(http.StatusForbidden, models.TrackResponse{
			Success: false,
			Message: "session_id does not match session token",
			Type:    req.Type,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	id, err := h.Recorder.Record(ctx, req.Type, req.SessionID, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, recorder.ErrMissingSessionID),
			errors.Is(err, recorder.ErrMissingType),
			errors.Is(err, recorder.ErrBadPayload):
			c.JSON(http.StatusBadRequest, models.TrackResponse{
				Success: false,
				Message: err.Error(),
				Type:    req.Type,
			})
		default:
			h.log.Error("Failed to record event", zap.String("type", req.Type), zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.TrackResponse{
				Success: false,
				Message: "failed to record event",
				Type:    req.Type,
			})
		}
		return
	}

	message := "recorded"
	if id == 0 {
		message = "acknowledged"
	}
	c.JSON(http.StatusOK, models.TrackResponse{
		Success: true,
		Message: message,
		Type:    req.Type,
	})
}
