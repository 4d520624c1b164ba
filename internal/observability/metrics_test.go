package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveDecision(t *testing.T) {
	m := NewMetrics()

	m.ObserveDecision(true, "")
	m.ObserveDecision(true, "")
	m.ObserveDecision(false, "tenant_mismatch")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.decisionsTotal.WithLabelValues("allow", "allowed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.decisionsTotal.WithLabelValues("deny", "tenant_mismatch")))
}

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/projects/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects/p1", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("/projects/{id}", "418")))
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveDecision(false, "x")

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpointExposes(t *testing.T) {
	m := NewMetrics()
	m.ObserveDecision(false, "not_assigned")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "terrena_authz_decisions_total")
}
