package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHealthHandler_HandleHealth(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.HandleHealth(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthHandler_HandleReady_NoChecks(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)
	h.HandleReady(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthHandler_HandleReady_AllPass(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	h.RegisterCheck(NewPingHealthCheck("database", func(ctx context.Context) error { return nil }))
	h.RegisterCheck(NewPingHealthCheck("redis", func(ctx context.Context) error { return nil }))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)
	h.HandleReady(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	require.Len(t, status.Checks, 2)
	assert.Equal(t, "pass", status.Checks["database"].Status)
	assert.Equal(t, "pass", status.Checks["redis"].Status)
}

func TestHealthHandler_HandleReady_OneFails(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	h.RegisterCheck(NewPingHealthCheck("database", func(ctx context.Context) error { return nil }))
	h.RegisterCheck(NewPingHealthCheck("mongo", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ready", nil)
	h.HandleReady(w, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "pass", status.Checks["database"].Status)
	assert.Equal(t, "fail", status.Checks["mongo"].Status)
	assert.Equal(t, "connection refused", status.Checks["mongo"].Message)
}

func TestHealthHandler_HandleVersion(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	handler := h.HandleVersion("1.2.3", "2026-08-30T10:00:00Z", "abc1234")

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/version", nil)
	handler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	info, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "abc1234", info["git_commit"])
}

func TestHealthHandler_RegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(zap.NewNop()).RegisterRoutes(mux)

	for _, path := range []string{"/health", "/healthz", "/ready"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, path, nil)
		mux.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
