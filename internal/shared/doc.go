// Package shared holds helpers used by more than one layer of the dashboard.
//
// The testutil subpackage provides:
//
//	- a buffered slog handler for asserting on log output
//	- sales upload fixtures: canned CSV bodies plus CSV and
//	  excelize workbook builders
//
// Example usage:
//
//	func TestUpload(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    body := testutil.NewSalesCSV().Row("Latte", "3,5", "01/02/2024").Bytes()
//	    // ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "upload received")
//	}
//
// Nothing in this package may import business packages.
package shared
