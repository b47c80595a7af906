package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"checkoutlens/api/middleware"
	"checkoutlens/api/models"
	"checkoutlens/api/recorder"
	"checkoutlens/api/store"
)

func newTrackRouter(t *testing.T) (*gin.Engine, *store.MemoryEventStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := store.NewMemoryEventStore()
	rec := recorder.New(mem, nil, nil, zap.NewNop())
	h := NewTrackHandlers(rec, zap.NewNop())

	r := gin.New()
	r.POST("/api/track/session", h.StartSession)
	r.POST("/api/track", middleware.SessionTokenRequired(zap.NewNop()), h.Track)
	return r, mem
}

func startSession(t *testing.T, r *gin.Engine) models.SessionStartResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/track/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.SessionStartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	require.NotEmpty(t, resp.Token)
	return resp
}

func postTrack(r *gin.Engine, token string, body models.TrackRequest) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/track", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Session-Token", token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartSession_IssuesSessionAndRecordsStart(t *testing.T) {
	r, mem := newTrackRouter(t)

	resp := startSession(t, r)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 1, mem.Len())
}

func TestTrack_Success(t *testing.T) {
	r, mem := newTrackRouter(t)
	sess := startSession(t, r)

	w := postTrack(r, sess.Token, models.TrackRequest{
		Type:      models.EventAddToCart,
		SessionID: sess.SessionID,
		Data:      json.RawMessage(`{"product_id": 42, "quantity": 2}`),
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TrackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "recorded", resp.Message)
	assert.Equal(t, models.EventAddToCart, resp.Type)

	// session_start + add_to_cart
	assert.Equal(t, 2, mem.Len())
}

func TestTrack_StringEncodedDataAccepted(t *testing.T) {
	r, _ := newTrackRouter(t)
	sess := startSession(t, r)

	w := postTrack(r, sess.Token, models.TrackRequest{
		Type:      models.EventValidationError,
		SessionID: sess.SessionID,
		Data:      json.RawMessage(`"{\"errors\": [\"Invalid email\"]}"`),
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TrackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestTrack_MissingTokenRejected(t *testing.T) {
	r, mem := newTrackRouter(t)
	sess := startSession(t, r)

	w := postTrack(r, "", models.TrackRequest{
		Type:      models.EventAddToCart,
		SessionID: sess.SessionID,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1, mem.Len())
}

func TestTrack_GarbageTokenRejected(t *testing.T) {
	r, mem := newTrackRouter(t)
	sess := startSession(t, r)

	w := postTrack(r, "not-a-jwt", models.TrackRequest{
		Type:      models.EventAddToCart,
		SessionID: sess.SessionID,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 1, mem.Len())
}

func TestTrack_SessionIDMustMatchToken(t *testing.T) {
	r, mem := newTrackRouter(t)
	sess := startSession(t, r)

	w := postTrack(r, sess.Token, models.TrackRequest{
		Type:      models.EventAddToCart,
		SessionID: "someone-elses-session",
	})

	require.Equal(t, http.StatusForbidden, w.Code)

	var resp models.TrackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, 1, mem.Len())
}

func TestTrack_ScrollAcknowledgedNotStored(t *testing.T) {
	r, mem := newTrackRouter(t)
	sess := startSession(t, r)

	w := postTrack(r, sess.Token, models.TrackRequest{
		Type:      models.EventScroll,
		SessionID: sess.SessionID,
		Data:      json.RawMessage(`{"direction": "down"}`),
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.TrackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "acknowledged", resp.Message)
	assert.Equal(t, 1, mem.Len())
}

func TestTrack_MissingFieldsRejected(t *testing.T) {
	r, mem := newTrackRouter(t)
	sess := startSession(t, r)

	w := postTrack(r, sess.Token, models.TrackRequest{
		Type: models.EventAddToCart,
		// SessionID intentionally empty: fails binding.
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, mem.Len())
}
