package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeedash/internal/config"
	"coffeedash/internal/shared/testutil"
	"coffeedash/pkg/contracts/domain"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = 5 * time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	app, err := NewApplication(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func serve(app *Application, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}

func uploadRequest(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(config.UploadFormField, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNewApplication(t *testing.T) {
	app := newTestApp(t, testConfig())

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Metrics)
	require.NotNil(t, app.Services)
	assert.NotNil(t, app.Services.Dashboard)
	assert.NotNil(t, app.Services.Health)
}

func TestNewApplication_RequiresConfig(t *testing.T) {
	app, err := NewApplication(nil, nil)
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testConfig())

	tests := []struct {
		name        string
		path        string
		status      int
		contentType string
	}{
		{name: "upload page", path: "/", status: http.StatusOK, contentType: "text/html"},
		{name: "health", path: "/api/health", status: http.StatusOK, contentType: "application/json"},
		{name: "readiness", path: "/api/health/ready", status: http.StatusOK, contentType: "application/json"},
		{name: "liveness", path: "/api/health/live", status: http.StatusOK, contentType: "application/json"},
		{name: "version", path: "/api/version", status: http.StatusOK, contentType: "application/json"},
		{name: "metrics", path: "/metrics", status: http.StatusOK, contentType: "text/plain"},
		{name: "dashboard redirect", path: "/dashboard", status: http.StatusSeeOther},
		{name: "unknown path", path: "/does-not-exist", status: http.StatusNotFound, contentType: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(app, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.contentType != "" {
				assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			}
		})
	}
}

func TestApplication_MethodNotAllowed(t *testing.T) {
	app := newTestApp(t, testConfig())

	w := serve(app, httptest.NewRequest(http.MethodDelete, "/api/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestApplication_Middleware(t *testing.T) {
	app := newTestApp(t, testConfig())

	t.Run("request id is generated", func(t *testing.T) {
		w := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("request id is echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "req-123")
		w := serve(app, req)
		assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("security headers", func(t *testing.T) {
		w := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "script-src 'none'")
	})

	t.Run("compressed when accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := serve(app, req)
		assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	})
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.RPS = 1
	cfg.Security.RateLimit.Burst = 1
	app := newTestApp(t, cfg)

	first := serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	second := serve(app, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// scrapes are outside the limited group
	assert.Equal(t, http.StatusOK, serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestApplication_UploadEndToEnd(t *testing.T) {
	app := newTestApp(t, testConfig())

	w := serve(app, uploadRequest(t, "/api/v1/dashboard", "sales.csv", testutil.EndToEndCSV))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got domain.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.Summary)
	assert.InDelta(t, 8.0, got.Summary.TotalSales, 1e-9)
	assert.Equal(t, 3, got.Summary.TransactionCount)
	assert.Equal(t, "Latte", got.Summary.TopProduct)

	html := serve(app, uploadRequest(t, "/dashboard", "sales.csv", testutil.EndToEndCSV))
	require.Equal(t, http.StatusOK, html.Code)
	assert.Contains(t, html.Body.String(), "Rp 8.00")

	metrics := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(), "uploads_total")
	assert.Contains(t, metrics.Body.String(), "http_requests_total")
}

func TestApplication_UploadSchemaError(t *testing.T) {
	app := newTestApp(t, testConfig())

	w := serve(app, uploadRequest(t, "/api/v1/dashboard", "sales.csv", "coffee_name\nLatte\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "missing_columns")
}

func TestApplication_UploadOverflowingTotals(t *testing.T) {
	app := newTestApp(t, testConfig())

	w := serve(app, uploadRequest(t, "/api/v1/dashboard", "sales.csv", "coffee_name;money\nA;1e308\nB;1e308\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), "too large")
}

func TestApplication_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.MetricsEnabled = false
	app := newTestApp(t, cfg)

	w := serve(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplication_createServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 9090
	app := newTestApp(t, cfg)

	assert.Equal(t, ":9090", app.Server.Addr)
	assert.Equal(t, cfg.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, cfg.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, cfg.Server.IdleTimeout, app.Server.IdleTimeout)
	assert.Equal(t, cfg.Server.MaxHeaderBytes, app.Server.MaxHeaderBytes)
	assert.NotNil(t, app.Server.ErrorLog)
}

func TestApplication_getCORSConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Security.AllowedOrigins = []string{"https://sales.example.com"}

	t.Run("production", func(t *testing.T) {
		t.Setenv("GO_ENV", "production")
		app := newTestApp(t, cfg)

		cors := app.getCORSConfig()
		assert.Equal(t, []string{"https://sales.example.com"}, cors.AllowedOrigins)
		assert.Contains(t, cors.ExposedHeaders, "X-Request-ID")
	})

	t.Run("development", func(t *testing.T) {
		t.Setenv("GO_ENV", "development")
		app := newTestApp(t, cfg)

		cors := app.getCORSConfig()
		assert.Contains(t, cors.AllowedOrigins, "https://sales.example.com")
		assert.Contains(t, cors.AllowedOrigins, "http://localhost:8080")
	})
}

func TestApplication_CORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.Security.EnableCORS = true
	cfg.Security.AllowedOrigins = []string{"https://sales.example.com"}
	app := newTestApp(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/dashboard", nil)
	req.Header.Set("Origin", "https://sales.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(app, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://sales.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestApplication_performStartupHealthCheck(t *testing.T) {
	app := newTestApp(t, testConfig())
	assert.NoError(t, app.performStartupHealthCheck(context.Background()))
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig()
	app := newTestApp(t, cfg)
	app.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	assert.NoError(t, app.Stop(context.Background()))
}
