package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/movie-catalog/internal/api"
	"github.com/Rrens/movie-catalog/internal/api/handler"
	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/identity/local"
	"github.com/Rrens/movie-catalog/internal/metrics"
	"github.com/Rrens/movie-catalog/internal/security"
	"github.com/Rrens/movie-catalog/internal/service"
	"github.com/Rrens/movie-catalog/internal/store/memory"
)

type fakeLimiter struct {
	allowed bool
	err     error
	calls   int
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	f.calls++
	return f.allowed, 0, time.Now().Add(time.Minute), f.err
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Metrics = config.MetricsConfig{Enabled: true, Path: "/metrics"}
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 30, Burst: 10}
	cfg.Catalog = config.CatalogConfig{DefaultLimit: 20, MaxLimit: 100, ScanBatchSize: 10, ScanCeiling: 100}
	return cfg
}

func newRouter(t *testing.T, cfg *config.Config, limiter *fakeLimiter, ready map[string]handler.Pinger) (http.Handler, *metrics.Collector) {
	t.Helper()

	st := memory.New()
	tokens := security.NewJWTManager("test-secret-key-with-32-chars!!", "movie-catalog", time.Hour, time.Hour)
	idp := local.NewProvider(local.NewMemoryAccounts(), tokens, true)
	collector := metrics.NewCollector(prometheus.NewRegistry())

	deps := api.Dependencies{
		AuthService:    service.NewAuthService(idp, st, "users", nil, collector),
		CatalogService: service.NewCatalogService(st, "movies", cfg.Catalog, nil, collector),
		Metrics:        collector,
		Ready:          ready,
	}
	if limiter != nil {
		deps.RateLimiter = limiter
	}
	return api.NewRouter(cfg, deps), collector
}

func TestRouter_Health(t *testing.T) {
	router, _ := newRouter(t, testConfig(), nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Ready(t *testing.T) {
	router, _ := newRouter(t, testConfig(), nil, map[string]handler.Pinger{"store": fakePinger{}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	router, _ = newRouter(t, testConfig(), nil, map[string]handler.Pinger{"store": fakePinger{err: errors.New("down")}})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "store not ready")
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router, _ := newRouter(t, testConfig(), nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "movieapi_http_requests_total")
	assert.Contains(t, rec.Body.String(), `method="GET"`)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, _ := newRouter(t, testConfig(), nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPost, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestRouter_RateLimitOnAuth(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	router, _ := newRouter(t, testConfig(), limiter, nil)

	body := `{"email":"ada@example.com","password":"Secret123"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// catalog routes are not limited
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/movies", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, limiter.calls)
}

func TestRouter_RateLimitFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	router, _ := newRouter(t, testConfig(), limiter, nil)

	body := `{"email":"ada@example.com","password":"Secret123"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

	// reaches the handler: unknown account
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
