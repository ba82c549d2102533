package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpiyush15/pixels-official-sub001/internal/auth"
	"github.com/mpiyush15/pixels-official-sub001/internal/config"
	"github.com/mpiyush15/pixels-official-sub001/internal/models"
)

func testRouter(t *testing.T) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JwtSecret:           "router-test-secret",
		StaffSessionCookie:  "staff_session",
		AllowedOrigins:      []string{"*"},
		RateLimitBucketSize: 100,
		RateLimitRefillRate: 100,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return SetupRouter(ctx, cfg, Services{}), cfg
}

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSetupRouter_Ping(t *testing.T) {
	r, _ := testRouter(t)
	w := serve(r, http.MethodGet, "/v1/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSetupRouter_RequiresAuth(t *testing.T) {
	r, _ := testRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/payments/process"},
		{http.MethodGet, "/v1/salaries"},
		{http.MethodGet, "/v1/admin/notifications"},
		{http.MethodGet, "/v1/staff/notifications"},
		{http.MethodPost, "/v1/uploads"},
	} {
		w := serve(r, tc.method, tc.path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestSetupRouter_ActorKindGates(t *testing.T) {
	r, cfg := testRouter(t)
	staff, err := auth.GenerateJWT("STAFF-1", models.ActorStaff, cfg.JwtSecret, time.Minute)
	require.NoError(t, err)
	client, err := auth.GenerateJWT("0123456789", models.ActorClient, cfg.JwtSecret, time.Minute)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/v1/payments/process", staff).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/v1/salaries", client).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/v1/admin/reconcile", client).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/v1/staff/notifications", client).Code)
}

func TestSetupServiceRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	shutdown := make(chan struct{}, 1)
	r := SetupServiceRouter(nil, shutdown)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)
	assert.Equal(t, http.StatusNotFound, post(`{"method":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"method":"getTestEmail","arguments":["welcome"]}`).Code)

	w := post(`{"method":"shutdown"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case <-shutdown:
	default:
		t.Fatal("shutdown was not signalled")
	}
}
