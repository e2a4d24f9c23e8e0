package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenauth/internal/config"
	"tokenauth/internal/infrastructure"
)

func TestOTelMiddlewareRecordsRequests(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(config.Default().Telemetry, "test", nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	m, err := NewOTelMiddleware(providers)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/api/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/status", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/status"`)
	assert.Contains(t, body, `status_code="404"`)
	assert.Contains(t, body, "http_request_duration_seconds")
}

func TestOTelMiddlewareTraceIDOverridesRequestID(t *testing.T) {
	telemetry := config.Default().Telemetry
	telemetry.EnableMetrics = false
	telemetry.TraceExporter = "stdout"

	providers, err := infrastructure.InitializeOTel(telemetry, "test", nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	m, err := NewOTelMiddleware(providers)
	require.NoError(t, err)

	var requestID, traceID string
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(m.Handler)
	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		requestID = GetRequestID(r.Context())
		traceID = infrastructure.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-123", requestID)
	assert.Len(t, traceID, 32)
	assert.NotEqual(t, requestID, traceID)
}
