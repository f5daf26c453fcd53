// Package shared holds helpers used across lobstats packages.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - GWP dataset fixtures and a helper that writes them to a temp file
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    path := testutil.WriteDatasetFile(t, "gwp.csv", testutil.GWPDatasetCSV)
//	    // ...
//	    testutil.AssertLogContains(t, handler, slog.LevelInfo, "dataset loaded")
//	}
package shared
