package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lobstats/internal/infrastructure"
	"lobstats/internal/lobstats"
)

// DatasetStatus is the part of the dataset cache the services depend on
type DatasetStatus interface {
	EnsureLoaded(ctx context.Context) ([]lobstats.StatRecord, error)
	State() lobstats.State
	Info() lobstats.DatasetInfo
}

// CacheStatsProvider reports result cache counters
type CacheStatsProvider interface {
	Stats() lobstats.CacheStats
}

// StatsServiceConfig wires a StatsService. Cache, Tracer, Metrics and Logger
// are optional.
type StatsServiceConfig struct {
	Averages lobstats.AverageProvider
	Dataset  DatasetStatus
	Cache    CacheStatsProvider
	Window   lobstats.Window
	Metric   string
	Tracer   trace.Tracer
	Metrics  *infrastructure.BusinessMetrics
	Logger   *slog.Logger
}

// StatsService answers GWP average queries
type StatsService struct {
	averages lobstats.AverageProvider
	dataset  DatasetStatus
	cache    CacheStatsProvider
	window   lobstats.Window
	metric   string
	tracer   trace.Tracer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// StatsSnapshot describes the dataset and query configuration
type StatsSnapshot struct {
	Dataset  lobstats.DatasetInfo `json:"dataset"`
	Metric   string               `json:"metric"`
	YearFrom int                  `json:"year_from"`
	YearTo   int                  `json:"year_to"`
	Cache    *lobstats.CacheStats `json:"cache,omitempty"`
}

// NewStatsService creates a stats service
func NewStatsService(cfg StatsServiceConfig) (*StatsService, error) {
	if cfg.Averages == nil {
		return nil, fmt.Errorf("average provider: %w", ErrNilDependency)
	}
	if cfg.Dataset == nil {
		return nil, fmt.Errorf("dataset: %w", ErrNilDependency)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}

	return &StatsService{
		averages: cfg.Averages,
		dataset:  cfg.Dataset,
		cache:    cfg.Cache,
		window:   cfg.Window,
		metric:   cfg.Metric,
		tracer:   tracer,
		metrics:  cfg.Metrics,
		logger:   infrastructure.WithComponent(logger, "stats_service"),
	}, nil
}

// GetAverages returns one average per requested lob
func (s *StatsService) GetAverages(ctx context.Context, country string, lobs []string) (lobstats.Averages, error) {
	ctx, span := s.tracer.Start(ctx, "lobstats.get_averages",
		trace.WithAttributes(
			attribute.String("lobstats.country", country),
			attribute.Int("lobstats.lob_count", len(lobs)),
		),
	)
	defer span.End()

	start := time.Now()
	averages, err := s.averages.GetAverages(ctx, country, lobs)
	duration := time.Since(start)

	switch {
	case err == nil:
		infrastructure.RecordAverageQuery(ctx, s.metrics, infrastructure.StatusSuccess, duration)
		s.logger.DebugContext(ctx, "averages computed",
			slog.String("country", country),
			slog.Int("lobs", len(lobs)),
			slog.Duration("duration", duration),
			slog.String("trace_id", infrastructure.GetTraceID(ctx)),
		)
		return averages, nil

	case lobstats.IsValidationError(err):
		infrastructure.RecordAverageQuery(ctx, s.metrics, infrastructure.StatusInvalid, duration)
		s.logger.InfoContext(ctx, "query rejected",
			slog.String("country", country),
			slog.String("error", err.Error()),
			slog.String("trace_id", infrastructure.GetTraceID(ctx)),
		)
		return nil, err

	default:
		infrastructure.RecordAverageQuery(ctx, s.metrics, infrastructure.StatusFailure, duration)
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "average query failed",
			slog.String("country", country),
			slog.Any("lobs", lobs),
			slog.String("error", err.Error()),
			slog.String("trace_id", infrastructure.GetTraceID(ctx)),
		)
		return nil, err
	}
}

// Stats returns the current dataset and cache state
func (s *StatsService) Stats(ctx context.Context) StatsSnapshot {
	snapshot := StatsSnapshot{
		Dataset:  s.dataset.Info(),
		Metric:   s.metric,
		YearFrom: s.window.From,
		YearTo:   s.window.To,
	}
	if s.cache != nil {
		stats := s.cache.Stats()
		snapshot.Cache = &stats
	}
	return snapshot
}

// Preload loads the dataset ahead of the first query
func (s *StatsService) Preload(ctx context.Context) error {
	if _, err := s.dataset.EnsureLoaded(ctx); err != nil {
		var missing *lobstats.MissingSourceError
		if errors.As(err, &missing) {
			s.logger.WarnContext(ctx, "dataset source unavailable",
				slog.String("source", missing.Source),
				slog.String("error", err.Error()))
		}
		return fmt.Errorf("preload dataset: %w", err)
	}
	return nil
}

// Ready reports whether the dataset is loaded
func (s *StatsService) Ready() bool {
	return s.dataset.State() == lobstats.StateReady
}
