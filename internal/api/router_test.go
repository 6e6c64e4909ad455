package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bouquet-recommender/internal/core/ai/queue"
	"bouquet-recommender/internal/core/bouquet"
	"bouquet-recommender/internal/core/inventory"
	"bouquet-recommender/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStats map[string]interface{}

func (s fixedStats) Stats() map[string]interface{} { return s }

type downCatalog struct{}

func (downCatalog) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, catalog inventory.Gateway) http.Handler {
	t.Helper()
	cfg := config.Default()
	q := queue.NewManager(&cfg.Queue)
	t.Cleanup(q.Close)

	assembler := bouquet.NewAssembler(catalog, nil, bouquet.NewRandom(5), bouquet.OptionsFromConfig(cfg.Recommend))
	router, cleanup := SetupRouter(cfg, Dependencies{
		Recommender: assembler,
		Catalog:     catalog,
		Queue:       q,
		Cache:       fixedStats{"backend": "memory", "size": 0},
	})
	t.Cleanup(cleanup)
	return router
}

func TestRouter_HealthEndpoints(t *testing.T) {
	router := newTestRouter(t, inventory.NewMemoryGateway(inventory.SeedCatalog()))

	for _, path := range []string{"/health", "/ready", "/live", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, w.Body.String(), `"queue"`)
	assert.Contains(t, w.Body.String(), `"cache":{"backend":"memory"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_ReadyFailsWhenCatalogDown(t *testing.T) {
	cfg := config.Default()
	router, cleanup := SetupRouter(cfg, Dependencies{Catalog: downCatalog{}})
	defer cleanup()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestRouter_RecommendStreamsAndDeduplicates(t *testing.T) {
	router := newTestRouter(t, inventory.NewMemoryGateway(inventory.SeedCatalog()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/recommend?situation=hello", nil))
	require.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Contains(t, lines[len(lines)-1], `"type":"result"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/recommend?situation=hello", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
