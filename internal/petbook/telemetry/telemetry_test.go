package telemetry_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/internal/petbook/telemetry"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics()
	m.AuthEvent("sign_in", nil)
	m.AuthEvent("sign_in", errors.New("nope"))
	m.RateLimited("sign_in")
	m.Deleted("refresh_tokens", 3)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/pets/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.HTTPMiddleware(mux)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/pets/123", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	require.Contains(t, out, `petbook_auth_events_total{event="sign_in",outcome="error"} 1`)
	require.Contains(t, out, `petbook_auth_events_total{event="sign_in",outcome="ok"} 1`)
	require.Contains(t, out, `petbook_rate_limited_total{action="sign_in"} 1`)
	require.Contains(t, out, `petbook_housekeeping_deleted_total{table="refresh_tokens"} 3`)
	require.Contains(t, out, "go_goroutines")
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *telemetry.Metrics
	m.AuthEvent("sign_in", nil)
	m.RateLimited("reset")
	m.Deleted("x", 1)
}

func TestInitTracingWithoutEndpoint(t *testing.T) {
	t.Parallel()

	shutdown, err := telemetry.InitTracing(t.Context(), "petbook", "test", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(t.Context()))
}
