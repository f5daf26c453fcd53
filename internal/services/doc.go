// Package services sits between the HTTP handlers and the lobstats domain
// package. It adds tracing, metrics and logging around average queries and
// reports dataset readiness for the health endpoints.
//
// # Available Services
//
//	- StatsService: answers GWP average queries and reports dataset/cache state
//	- HealthService: liveness, readiness and version information
//	- MetricsObserver: feeds dataset loads and cache lookups into BusinessMetrics
//
// # Error Handling
//
// StatsService returns lobstats errors unchanged so handlers can map them
// with errors.As:
//
//	- *lobstats.ValidationError for rejected queries
//	- *lobstats.MissingSourceError and *lobstats.ParseError for dataset failures
//	- *lobstats.InvalidRangeError for a misconfigured year window
//
// # Testing
//
// Services are tested by mocking dependencies:
//
//	provider := new(MockAverageProvider)
//	provider.On("GetAverages", mock.Anything, "ae", lobs).Return(averages, nil)
package services
