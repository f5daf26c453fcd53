package services

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"lobstats/internal/infrastructure"
	"lobstats/internal/lobstats"
	"lobstats/internal/shared/testutil"
)

type statsFixture struct {
	service  *StatsService
	provider *MockAverageProvider
	dataset  *MockDatasetStatus
	reader   *sdkmetric.ManualReader
	spans    *tracetest.SpanRecorder
	logs     *testutil.BufferedSlogHandler
}

func newStatsFixture(t *testing.T, cache CacheStatsProvider) *statsFixture {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() {
		mp.Shutdown(context.Background())
		tp.Shutdown(context.Background())
	})

	metrics, err := infrastructure.CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	logger, logs := testutil.NewTestLogger(t)
	provider := new(MockAverageProvider)
	dataset := new(MockDatasetStatus)

	cfg := StatsServiceConfig{
		Averages: provider,
		Dataset:  dataset,
		Window:   lobstats.Window{From: 2008, To: 2015},
		Metric:   "gwp",
		Tracer:   tp.Tracer("test"),
		Metrics:  metrics,
		Logger:   logger,
	}
	if cache != nil {
		cfg.Cache = cache
	}
	service, err := NewStatsService(cfg)
	require.NoError(t, err)

	return &statsFixture{
		service:  service,
		provider: provider,
		dataset:  dataset,
		reader:   reader,
		spans:    spans,
		logs:     logs,
	}
}

func (f *statsFixture) queryCounts(t *testing.T) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))

	counts := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "average_queries_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				counts[status.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestNewStatsService_RequiresDependencies(t *testing.T) {
	_, err := NewStatsService(StatsServiceConfig{Dataset: new(MockDatasetStatus)})
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = NewStatsService(StatsServiceConfig{Averages: new(MockAverageProvider)})
	assert.ErrorIs(t, err, ErrNilDependency)
}

func TestStatsService_GetAverages(t *testing.T) {
	lobs := []string{"transport", "freight"}
	tests := []struct {
		name       string
		result     lobstats.Averages
		err        error
		wantStatus string
		wantLevel  slog.Level
		wantMsg    string
	}{
		{
			name: "success",
			result: lobstats.Averages{
				"transport": decimal.RequireFromString("249495209.6625"),
				"freight":   decimal.RequireFromString("234056430.6625"),
			},
			wantStatus: infrastructure.StatusSuccess,
			wantLevel:  slog.LevelDebug,
			wantMsg:    "averages computed",
		},
		{
			name:       "validation failure",
			err:        &lobstats.ValidationError{Field: "country", Value: "AE", Err: lobstats.ErrInvalidCountryCode},
			wantStatus: infrastructure.StatusInvalid,
			wantLevel:  slog.LevelInfo,
			wantMsg:    "query rejected",
		},
		{
			name:       "dataset failure",
			err:        &lobstats.MissingSourceError{Source: "data/gwp.csv", Err: fs.ErrNotExist},
			wantStatus: infrastructure.StatusFailure,
			wantLevel:  slog.LevelError,
			wantMsg:    "average query failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStatsFixture(t, nil)
			f.provider.On("GetAverages", mock.Anything, "ae", lobs).Return(tt.result, tt.err).Once()

			got, err := f.service.GetAverages(context.Background(), "ae", lobs)

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.result, got)
			}

			assert.Equal(t, map[string]int64{tt.wantStatus: 1}, f.queryCounts(t))
			testutil.AssertLogContains(t, f.logs, tt.wantLevel, tt.wantMsg)

			spans := f.spans.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "lobstats.get_averages", spans[0].Name())
			assert.Contains(t, spans[0].Attributes(), attribute.String("lobstats.country", "ae"))
			assert.Contains(t, spans[0].Attributes(), attribute.Int("lobstats.lob_count", 2))
			if tt.wantStatus == infrastructure.StatusFailure {
				assert.Equal(t, "Error", spans[0].Status().Code.String())
			}

			f.provider.AssertExpectations(t)
		})
	}
}

func TestStatsService_GetAveragesPassesSpanContext(t *testing.T) {
	f := newStatsFixture(t, nil)
	f.provider.On("GetAverages", mock.MatchedBy(func(ctx context.Context) bool {
		return infrastructure.TraceIDFromContext(ctx) != ""
	}), "ae", []string{"transport"}).Return(lobstats.Averages{"transport": decimal.Zero}, nil)

	_, err := f.service.GetAverages(context.Background(), "ae", []string{"transport"})
	require.NoError(t, err)
	f.provider.AssertExpectations(t)
}

func TestStatsService_Stats(t *testing.T) {
	info := lobstats.DatasetInfo{
		Source:   "data/gwp.csv",
		State:    lobstats.StateReady.String(),
		Records:  6,
		LoadedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("without cache", func(t *testing.T) {
		f := newStatsFixture(t, nil)
		f.dataset.On("Info").Return(info)

		snapshot := f.service.Stats(context.Background())

		assert.Equal(t, StatsSnapshot{Dataset: info, Metric: "gwp", YearFrom: 2008, YearTo: 2015}, snapshot)
	})

	t.Run("with cache", func(t *testing.T) {
		cache := new(MockCacheStats)
		cacheStats := lobstats.CacheStats{Entries: 2, MaxEntries: 10, Hits: 3, Misses: 2, HitRatio: 0.6, TTLSeconds: 3600}
		cache.On("Stats").Return(cacheStats)

		f := newStatsFixture(t, cache)
		f.dataset.On("Info").Return(info)

		snapshot := f.service.Stats(context.Background())

		require.NotNil(t, snapshot.Cache)
		assert.Equal(t, cacheStats, *snapshot.Cache)
	})
}

func TestStatsService_PreloadAndReady(t *testing.T) {
	t.Run("load failure", func(t *testing.T) {
		f := newStatsFixture(t, nil)
		missing := &lobstats.MissingSourceError{Source: "data/gwp.csv", Err: fs.ErrNotExist}
		f.dataset.On("EnsureLoaded", mock.Anything).Return(nil, missing).Once()
		f.dataset.On("State").Return(lobstats.StateUninitialized)

		err := f.service.Preload(context.Background())

		var target *lobstats.MissingSourceError
		assert.ErrorAs(t, err, &target)
		assert.False(t, f.service.Ready())
		testutil.AssertLogContains(t, f.logs, slog.LevelWarn, "dataset source unavailable")
	})

	t.Run("loaded", func(t *testing.T) {
		f := newStatsFixture(t, nil)
		f.dataset.On("EnsureLoaded", mock.Anything).Return([]lobstats.StatRecord{}, nil).Once()
		f.dataset.On("State").Return(lobstats.StateReady)

		require.NoError(t, f.service.Preload(context.Background()))
		assert.True(t, f.service.Ready())
	})

	t.Run("parse failure is returned unchanged", func(t *testing.T) {
		f := newStatsFixture(t, nil)
		parseErr := &lobstats.ParseError{Row: 3, Column: "Y2009", Value: "n/a", Err: errors.New("not a number")}
		f.dataset.On("EnsureLoaded", mock.Anything).Return(nil, parseErr).Once()

		err := f.service.Preload(context.Background())
		assert.ErrorIs(t, err, parseErr)
	})
}
