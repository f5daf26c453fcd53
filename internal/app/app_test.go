package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobstats/internal/config"
	apierrors "lobstats/internal/errors"
	"lobstats/internal/lobstats"
	"lobstats/internal/shared/testutil"
)

// createTestLogger creates a logger that discards output for testing
func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// testConfig returns defaults pointed at a temp copy of the GWP fixture
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Logging.Level = "error"
	cfg.Dataset.FilePath = testutil.WriteDatasetFile(t, "gwp.csv", testutil.GWPDatasetCSV)
	cfg.Dataset.Format = config.FormatAuto
	cfg.Dataset.Preload = false
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.TraceExporter = "none"
	cfg.Telemetry.MetricExporter = "prometheus"
	return cfg
}

func newTestApplication(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()

	cfg := testConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	app, err := NewApplication(cfg, createTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		if app.Services.Cache != nil {
			app.Services.Cache.Stop()
		}
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func doRequest(app *Application, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// TestNewApplication tests the NewApplication function
func TestNewApplication(t *testing.T) {
	tests := []struct {
		name      string
		nilConfig bool
		mutate    func(*config.Config)
		wantErr   string
		wantCache bool
	}{
		{
			name:      "successful initialization with cache",
			wantCache: true,
		},
		{
			name:   "cache disabled",
			mutate: func(c *config.Config) { c.Cache.Enabled = false },
		},
		{
			name:      "nil config",
			nilConfig: true,
			wantErr:   "config is required",
		},
		{
			name:    "unknown trace exporter",
			mutate:  func(c *config.Config) { c.Telemetry.TraceExporter = "zipkin" },
			wantErr: "failed to initialize OpenTelemetry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *config.Config
			if !tt.nilConfig {
				cfg = testConfig(t)
				if tt.mutate != nil {
					tt.mutate(cfg)
				}
			}

			app, err := NewApplication(cfg, createTestLogger())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, app)
				if tt.nilConfig {
					var appErr *apierrors.AppError
					require.ErrorAs(t, err, &appErr)
					assert.Equal(t, apierrors.ErrTypeConfig, appErr.Type)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, app)
			defer app.OTelProviders.Shutdown(context.Background())

			assert.NotNil(t, app.Router)
			assert.NotNil(t, app.Server)
			assert.NotNil(t, app.Metrics)
			assert.NotNil(t, app.ErrorHandler)
			assert.NotNil(t, app.Services.Dataset)
			assert.NotNil(t, app.Services.Facade)
			assert.NotNil(t, app.Services.Stats)
			assert.NotNil(t, app.Services.Health)
			assert.Equal(t, lobstats.StateUninitialized, app.Services.Dataset.State())

			if tt.wantCache {
				require.NotNil(t, app.Services.Cache)
				app.Services.Cache.Stop()
			} else {
				assert.Nil(t, app.Services.Cache)
			}
		})
	}
}

// TestApplication_createServer tests the HTTP server settings
func TestApplication_createServer(t *testing.T) {
	app := newTestApplication(t, func(c *config.Config) {
		c.Server.Port = 9191
		c.Server.MaxHeaderBytes = 4096
	})

	assert.Equal(t, ":9191", app.Server.Addr)
	assert.Equal(t, app.Router, app.Server.Handler)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, app.Config.Server.IdleTimeout, app.Server.IdleTimeout)
	assert.Equal(t, 4096, app.Server.MaxHeaderBytes)
}

// TestApplication_setupAPIRoutes tests the routed endpoints end to end
func TestApplication_setupAPIRoutes(t *testing.T) {
	app := newTestApplication(t, nil)

	t.Run("averages", func(t *testing.T) {
		rec := doRequest(app, http.MethodPost, "/server/api/gwp/avg",
			`{"country":"ae","lob":["transport","freight"]}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"transport":249495209.6625,"freight":234056430.6625}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("missing lob averages to zero", func(t *testing.T) {
		rec := doRequest(app, http.MethodPost, "/server/api/gwp/avg",
			`{"country":"ao","lob":["liability","marine"]}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"liability":8259673.275,"marine":0}`, rec.Body.String())
	})

	t.Run("duplicate lob", func(t *testing.T) {
		rec := doRequest(app, http.MethodPost, "/server/api/gwp/avg",
			`{"country":"ae","lob":["transport","transport"]}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
		body := decodeBody(t, rec)
		assert.Equal(t, "DUPLICATE_LOB", body["error_code"])
	})

	t.Run("invalid country", func(t *testing.T) {
		rec := doRequest(app, http.MethodPost, "/server/api/gwp/avg",
			`{"country":"ARE","lob":["transport"]}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_COUNTRY_CODE", decodeBody(t, rec)["error_code"])
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := doRequest(app, http.MethodPost, "/server/api/gwp/avg", `{"country":`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeBody(t, rec)["error_code"])
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/server/api/gwp/avg", strings.NewReader("country=ae"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := doRequest(app, http.MethodGet, "/server/api/gwp/avg", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := doRequest(app, http.MethodGet, "/server/api/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decodeBody(t, rec)["error_code"])
	})

	t.Run("stats", func(t *testing.T) {
		rec := doRequest(app, http.MethodGet, "/server/api/gwp/stats", "")

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "gwp", body["metric"])
		assert.EqualValues(t, 2008, body["year_from"])
		assert.EqualValues(t, 2015, body["year_to"])
		assert.Contains(t, body, "cache")
	})

	t.Run("version", func(t *testing.T) {
		rec := doRequest(app, http.MethodGet, "/server/api/version", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("liveness", func(t *testing.T) {
		rec := doRequest(app, http.MethodGet, "/server/api/health/live", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

// TestApplication_Readiness tests that readiness follows the dataset state
func TestApplication_Readiness(t *testing.T) {
	app := newTestApplication(t, nil)

	rec := doRequest(app, http.MethodGet, "/server/api/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(app, http.MethodPost, "/server/api/gwp/avg", `{"country":"ao","lob":["property"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(app, http.MethodGet, "/server/api/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, lobstats.StateReady, app.Services.Dataset.State())
}

// TestApplication_MissingDataset tests a dataset path that does not exist
func TestApplication_MissingDataset(t *testing.T) {
	app := newTestApplication(t, func(c *config.Config) {
		c.Dataset.FilePath = "/nonexistent/gwp.csv"
	})

	rec := doRequest(app, http.MethodPost, "/server/api/gwp/avg", `{"country":"ae","lob":["transport"]}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DATASET_UNAVAILABLE", decodeBody(t, rec)["error_code"])
}

// TestApplication_Metrics tests the Prometheus scrape endpoint
func TestApplication_Metrics(t *testing.T) {
	app := newTestApplication(t, nil)

	rec := doRequest(app, http.MethodPost, "/server/api/gwp/avg", `{"country":"ae","lob":["transport"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "average_queries")
	assert.Contains(t, body, "dataset_loads")
	assert.Contains(t, body, "http_requests")
}

// TestApplication_MetricsDisabled tests /metrics without a Prometheus exporter
func TestApplication_MetricsDisabled(t *testing.T) {
	app := newTestApplication(t, func(c *config.Config) {
		c.Telemetry.MetricExporter = "none"
	})

	rec := doRequest(app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestApplication_setupRouter tests the optional middleware
func TestApplication_setupRouter(t *testing.T) {
	t.Run("cors for allowed origin", func(t *testing.T) {
		app := newTestApplication(t, func(c *config.Config) {
			c.Security.EnableCORS = true
			c.Security.AllowedOrigins = []string{"http://allowed.test"}
		})

		req := httptest.NewRequest(http.MethodGet, "/server/api/health", nil)
		req.Header.Set("Origin", "http://allowed.test")
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)

		assert.Equal(t, "http://allowed.test", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rate limit", func(t *testing.T) {
		app := newTestApplication(t, func(c *config.Config) {
			c.Security.RateLimit.Enabled = true
			c.Security.RateLimit.RPS = 0.001
			c.Security.RateLimit.Burst = 1
		})

		first := doRequest(app, http.MethodGet, "/server/api/health", "")
		second := doRequest(app, http.MethodGet, "/server/api/health", "")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.Equal(t, "1", second.Header().Get("Retry-After"))
	})
}

// TestApplication_StartStop tests the server lifecycle with preload enabled
func TestApplication_StartStop(t *testing.T) {
	app := newTestApplication(t, func(c *config.Config) {
		c.Dataset.Preload = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	assert.Equal(t, lobstats.StateReady, app.Services.Dataset.State())
	assert.True(t, app.Services.Stats.Ready())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	assert.NoError(t, app.Stop(shutdownCtx))
}

// TestApplication_StartWithFailedPreload tests that a failed preload is not fatal
func TestApplication_StartWithFailedPreload(t *testing.T) {
	app := newTestApplication(t, func(c *config.Config) {
		c.Dataset.FilePath = "/nonexistent/gwp.csv"
		c.Dataset.Preload = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	assert.False(t, app.Services.Stats.Ready())
	assert.NoError(t, app.Stop(context.Background()))
}

// TestApplication_DatasetDirectory tests that a dataset directory resolves to its newest file
func TestApplication_DatasetDirectory(t *testing.T) {
	path := testutil.WriteDatasetFile(t, "gwp.csv", testutil.GWPDatasetCSV)

	app := newTestApplication(t, func(c *config.Config) {
		c.Dataset.FilePath = filepath.Dir(path)
	})
	assert.Equal(t, path, app.Services.Dataset.Info().Source)

	rec := doRequest(app, http.MethodPost, "/server/api/gwp/avg", `{"country":"ao","lob":["transport"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"transport":16041791.4025}`, rec.Body.String())
}

func TestApplication_EmptyDatasetDirectory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.FilePath = t.TempDir()

	app, err := NewApplication(cfg, createTestLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve dataset")
	assert.Nil(t, app)
}
