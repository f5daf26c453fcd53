// Package lobstats computes year-windowed metric averages per country and line
// of business from a wide-format statistics table.
//
// Each source row holds one (country, variable, line of business) tuple and one
// column per year. The package covers the whole query path:
//
//   - loader.go: CSV and XLSX readers producing StatRecord values
//   - dataset.go: one-time, retryable dataset load shared by all queries
//   - validator.go: query validation (country code, lob list)
//   - engine.go: windowed averaging over decimal values
//   - facade.go: validate, load, average and backfill missing lobs with zero
//   - result_cache.go: memoization of facade results per normalized query
//
// # Averaging Rule
//
// The average over [yearFrom, yearTo] is the sum of the yearly values divided
// by the full window length. A year without a value contributes zero to the sum
// and still counts in the denominator:
//
//	avg = (v[yearFrom] + ... + v[yearTo]) / (yearTo - yearFrom + 1)
//
// # Usage
//
//	dataset := lobstats.NewDatasetCache(lobstats.FileSource{Path: "data/gwpByCountry.csv"}, logger)
//	facade := lobstats.NewFacade(dataset, lobstats.Window{From: 2008, To: 2015}, "gwp")
//	cache := lobstats.NewResultCache(facade, lobstats.CacheOptions{TTL: time.Hour})
//	defer cache.Stop()
//
//	averages, err := cache.GetAverages(ctx, "ae", []string{"transport", "freight"})
//
// All values use github.com/shopspring/decimal so sums of many small yearly
// figures do not drift.
package lobstats
