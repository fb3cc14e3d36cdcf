package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ikkim/coupang-partners-backend/config"
	"github.com/ikkim/coupang-partners-backend/internal/app/controller"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/internal/middleware"
	"github.com/ikkim/coupang-partners-backend/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routerTestSecret = "router-test-secret"

func setupRouterTest(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: "test"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}

	r := NewRouter(
		controller.NewAuthController(nil),
		controller.NewKeywordController(nil),
		controller.NewProductController(nil),
		controller.NewAffiliateController(nil),
		controller.NewPostController(nil, nil),
		controller.NewMetricsController(nil, nil),
		controller.NewAdminController(nil),
		controller.NewEventsController(nil, nil),
		middleware.NewAuthMiddleware(routerTestSecret, nil),
		metrics.New(reg),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		cfg,
	)
	return r.Setup()
}

func adminToken(t *testing.T) string {
	t.Helper()
	tokens, err := util.GenerateTokenPair("admin", "admin", routerTestSecret, time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func serve(handler http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", "http://localhost:5173")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	handler := setupRouterTest(t)

	w := serve(handler, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_PipelineRoutesRequireAuth(t *testing.T) {
	handler := setupRouterTest(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/keywords/fetch"},
		{http.MethodGet, "/api/v1/products"},
		{http.MethodPost, "/api/v1/posts/publish"},
		{http.MethodGet, "/api/v1/metrics/budget"},
		{http.MethodGet, "/api/v1/admin/ai-config"},
		{http.MethodGet, "/api/v1/events/ws"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := serve(handler, p.method, p.path, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_DestructiveAdminRoutesRequireConfirm(t *testing.T) {
	handler := setupRouterTest(t)
	token := adminToken(t)

	for _, p := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/admin/reset-db"},
		{http.MethodDelete, "/api/v1/admin/keywords?date=2025-10-01"},
		{http.MethodPost, "/api/v1/admin/dedup-keywords"},
	} {
		w := serve(handler, p.method, p.path, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, p.path)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "VALIDATION_CONFIRM_REQUIRED", resp["error"])
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	handler := setupRouterTest(t)

	serve(handler, http.MethodGet, "/health", "")
	w := serve(handler, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "http_requests_total"))
}

func TestRouter_Preflight(t *testing.T) {
	handler := setupRouterTest(t)

	w := serve(handler, http.MethodOptions, "/api/v1/posts", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
