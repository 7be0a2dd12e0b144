package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-count"))
	r.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}

	counter := httpRequestsTotal.WithLabelValues("metrics-count", "GET", "/api/products/{id}", "404")
	assert.Equal(t, float64(3), testutil.ToFloat64(counter))

	hist := httpRequestDuration.WithLabelValues("metrics-count", "GET", "/api/products/{id}")
	assert.Equal(t, 1, testutil.CollectAndCount(hist.(prometheus.Collector)))
}

func TestPrometheusMetrics_DefaultStatusAndInFlight(t *testing.T) {
	var inFlight float64
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-default"))
	r.Get("/api/products/top", func(w http.ResponseWriter, _ *http.Request) {
		inFlight = testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-default"))
		_, _ = w.Write([]byte("[]"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/top", nil))

	assert.Equal(t, float64(1), inFlight)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-default")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		httpRequestsTotal.WithLabelValues("metrics-default", "GET", "/api/products/top", "200")))
}

type flushHijackWriter struct {
	http.ResponseWriter
	flushed  bool
	hijacked bool
}

func (f *flushHijackWriter) Flush() { f.flushed = true }

func (f *flushHijackWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	f.hijacked = true
	return nil, nil, nil
}

type bareWriter struct{ header http.Header }

func (b *bareWriter) Header() http.Header {
	if b.header == nil {
		b.header = http.Header{}
	}
	return b.header
}

func (b *bareWriter) Write(p []byte) (int, error) { return len(p), nil }

func (b *bareWriter) WriteHeader(int) {}

func TestStatusWriter_Delegates(t *testing.T) {
	under := &flushHijackWriter{ResponseWriter: httptest.NewRecorder()}
	sw := newStatusWriter(under)

	sw.Flush()
	_, _, err := sw.Hijack()
	require.NoError(t, err)
	assert.True(t, under.flushed)
	assert.True(t, under.hijacked)

	bare := newStatusWriter(&bareWriter{})
	bare.Flush()
	_, _, err = bare.Hijack()
	assert.ErrorIs(t, err, http.ErrNotSupported)
}

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())
	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusCreated, sw.status)
	assert.Same(t, sw, newStatusWriter(sw))
}
