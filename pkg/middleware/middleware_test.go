package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SudaisX/DB-Project/pkg/logger"
)

func newTestLogger(w *bytes.Buffer) *slog.Logger {
	return logger.NewWithWriter("storefront", "debug", w)
}

// logLines splits JSON log output into decoded records.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// --- RequestLogging ---

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogging(newTestLogger(&buf))(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	id := rec.Header().Get(CorrelationHeader)
	require.NotEmpty(t, id)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, id, lines[0]["correlation_id"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.EqualValues(t, 200, lines[0]["status"])
}

func TestRequestLogging_KeepsIncomingCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := RequestLogging(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products/x", nil)
	req.Header.Set(CorrelationHeader, "corr-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-1", seen)
	assert.Equal(t, "corr-1", rec.Header().Get(CorrelationHeader))
	assert.Equal(t, "WARN", logLines(t, &buf)[0]["level"])
}

// --- RequestLogger ---

func TestRequestLogger_StoresEnrichedLogger(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context(), nil).Info("inside")
	}))

	ctx := logger.WithCorrelationID(context.Background(), "corr-2")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "corr-2", lines[0]["correlation_id"])
	assert.NotContains(t, lines[0], "user_id")
}

// --- Recovery ---

func TestRecovery_ReturnsInternalError(t *testing.T) {
	var buf bytes.Buffer
	h := Recovery(newTestLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic recovered")
}

// --- Authenticate / Require ---

type identityKey struct{}

func resolverFor(valid string) TokenResolver {
	return func(ctx context.Context, token string) (context.Context, string, error) {
		if token != valid {
			return nil, "", errors.New("bad token")
		}
		return context.WithValue(ctx, identityKey{}, "u-1"), "u-1", nil
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		token, ok := BearerToken(req)
		assert.Equal(t, tt.token, token, tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
	}
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "not authorized, no token"},
		{"wrong scheme", "Token good", http.StatusUnauthorized, "not authorized, no token"},
		{"bad token", "Bearer bad", http.StatusUnauthorized, "not authorized, token failed"},
		{"valid", "Bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen any
			h := Authenticate(resolverFor("good"), logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = r.Context().Value(identityKey{})
				assert.Equal(t, "u-1", logger.UserIDFromContext(r.Context()))
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/orders/myorders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.message != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.message, body["message"])
				assert.Nil(t, seen)
			} else {
				assert.Equal(t, "u-1", seen)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	allow := func(ctx context.Context) bool { return ctx.Value(identityKey{}) == "admin" }
	h := Require(allow, "not authorized as an admin", logger.Discard())(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not authorized as an admin")

	ctx := context.WithValue(context.Background(), identityKey{}, "admin")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- CORS ---

func TestCORS_Preflight(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"https://shop.example"}})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_UnknownOrigin(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"https://shop.example"}})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcard(t *testing.T) {
	h := CORS(DefaultCORSConfig())(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://any.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// --- CacheControl ---

func TestCacheControl(t *testing.T) {
	h := CacheControl(time.Minute)(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/top", nil))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

// --- IPAllowlist ---

func TestIPAllowlist(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"10.0.0.0/8", "not-a-cidr"}, logger.Discard())

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "192.168.1.1:5555"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}
