package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/observability"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	_ "github.com/odyssey-erp/odyssey-books/testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthzReportsDependencies(t *testing.T) {
	router := NewRouter(RouterParams{
		Config:  &Config{AppEnv: "development"},
		Metrics: observability.NewMetrics(),
		Checks: map[string]Pinger{
			"postgres": pingFunc(func(context.Context) error { return nil }),
			"redis":    pingFunc(func(context.Context) error { return errors.New("refused") }),
		},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "up", body["postgres"])
	assert.Equal(t, "down", body["redis"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(RouterParams{Config: &Config{}, Metrics: observability.NewMetrics()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActorMiddleware(t *testing.T) {
	var seen int64
	r := chi.NewRouter()
	r.Use(ActorMiddleware)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		seen = shared.ActorFromContext(r.Context())
	})

	for header, want := range map[string]int64{"17": 17, "": 0, "abc": 0, "-3": 0} {
		seen = -1
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(ActorHeader, header)
		}
		r.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, want, seen, header)
	}
}

func TestBlankTestingImportEnablesTestMode(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())
}

func TestRefreshTestModeParsesBool(t *testing.T) {
	t.Setenv(TestModeEnv, "false")
	assert.False(t, RefreshTestMode())
	assert.False(t, InTestMode())

	t.Setenv(TestModeEnv, "true")
	assert.True(t, RefreshTestMode())
	assert.True(t, InTestMode())
}
