package http

import (
	"context"

	"lobstats/internal/lobstats"
	"lobstats/internal/services"
)

// StatsServiceInterface defines the average query operations
type StatsServiceInterface interface {
	GetAverages(ctx context.Context, country string, lobs []string) (lobstats.Averages, error)
	Stats(ctx context.Context) services.StatsSnapshot
}

// HealthServiceInterface defines the health check operations
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
