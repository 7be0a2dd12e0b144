package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SudaisX/DB-Project/internal/domain"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestContentTypeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        int
	}{
		{"json body", `{"a":1}`, "application/json", http.StatusOK},
		{"json with charset", `{"a":1}`, "application/json; charset=utf-8", http.StatusOK},
		{"text body", "a=1", "text/plain", http.StatusUnsupportedMediaType},
		{"missing type", `{"a":1}`, "", http.StatusUnsupportedMediaType},
		{"no body", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(http.MethodPost, "/api/products", nil)
			} else {
				req = httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(tt.body))
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rec := httptest.NewRecorder()
			ContentTypeJSON(okHandler()).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
	assert.False(t, isAdmin(context.Background()))

	ctx := WithIdentity(context.Background(), domain.Identity{ID: adminID, IsAdmin: true})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, adminID, id.ID)
	assert.True(t, isAdmin(ctx))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	live := ts.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, live.Code)

	ready := ts.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, ready.Code)

	metrics := ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "http_requests_total")
}

func TestRouter_CorrelationHeader(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health/live", "", nil)

	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestRouter_PprofDisabledByDefault(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/debug/pprof/", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RateLimitsCredentials(t *testing.T) {
	ts := newTestServerWith(t, RouterConfig{
		AppName:            "storefront-test",
		AuthRateLimitRPS:   0.001,
		AuthRateLimitBurst: 1,
	})

	rec := ts.do(t, http.MethodPost, "/api/users/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/users/login", "", map[string]string{})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorBody(t, rec).Code)

	// Other clients keep their own budget.
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.20:4000"
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
