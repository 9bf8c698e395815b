package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/notes-api/internal/metrics"
)

func newRouter(logger *slog.Logger, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(Logger(logger))
	r.Use(Metrics(m))
	r.Get("/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hello"))
	})
	return r
}

func TestLogger_RecordsRouteAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := newRouter(logger, metrics.New(prometheus.NewRegistry()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes/7", nil))

	line := buf.String()
	assert.Contains(t, line, "path=/notes/7")
	assert.Contains(t, line, "route=/notes/{id}")
	assert.Contains(t, line, "status=418")
	assert.Contains(t, line, "bytes=5")
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	h := newRouter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), m)

	for _, path := range []string{"/notes/1", "/notes/2"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/notes/{id}", "418")))
}
