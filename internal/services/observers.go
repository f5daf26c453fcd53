package services

import (
	"context"
	"time"

	"lobstats/internal/infrastructure"
	"lobstats/internal/lobstats"
)

// MetricsObserver forwards dataset and result cache events to the business
// metrics. A nil metrics set turns every call into a no-op.
type MetricsObserver struct {
	metrics *infrastructure.BusinessMetrics
}

var (
	_ lobstats.LoadObserver  = (*MetricsObserver)(nil)
	_ lobstats.CacheObserver = (*MetricsObserver)(nil)
)

// NewMetricsObserver creates an observer backed by metrics
func NewMetricsObserver(metrics *infrastructure.BusinessMetrics) *MetricsObserver {
	return &MetricsObserver{metrics: metrics}
}

// DatasetLoaded implements lobstats.LoadObserver
func (o *MetricsObserver) DatasetLoaded(ctx context.Context, source string, records int, duration time.Duration, err error) {
	infrastructure.RecordDatasetLoad(ctx, o.metrics, source, records, duration, err)
}

// CacheHit implements lobstats.CacheObserver
func (o *MetricsObserver) CacheHit(ctx context.Context) {
	infrastructure.RecordCacheLookup(ctx, o.metrics, true)
}

// CacheMiss implements lobstats.CacheObserver
func (o *MetricsObserver) CacheMiss(ctx context.Context) {
	infrastructure.RecordCacheLookup(ctx, o.metrics, false)
}
