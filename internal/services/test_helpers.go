package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lobstats/internal/lobstats"
)

// MockAverageProvider is a mock for lobstats.AverageProvider
type MockAverageProvider struct {
	mock.Mock
}

func (m *MockAverageProvider) GetAverages(ctx context.Context, country string, lobs []string) (lobstats.Averages, error) {
	args := m.Called(ctx, country, lobs)
	averages, _ := args.Get(0).(lobstats.Averages)
	return averages, args.Error(1)
}

// MockDatasetStatus is a mock for DatasetStatus
type MockDatasetStatus struct {
	mock.Mock
}

func (m *MockDatasetStatus) EnsureLoaded(ctx context.Context) ([]lobstats.StatRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]lobstats.StatRecord)
	return records, args.Error(1)
}

func (m *MockDatasetStatus) State() lobstats.State {
	return m.Called().Get(0).(lobstats.State)
}

func (m *MockDatasetStatus) Info() lobstats.DatasetInfo {
	return m.Called().Get(0).(lobstats.DatasetInfo)
}

// MockCacheStats is a mock for CacheStatsProvider
type MockCacheStats struct {
	mock.Mock
}

func (m *MockCacheStats) Stats() lobstats.CacheStats {
	return m.Called().Get(0).(lobstats.CacheStats)
}
