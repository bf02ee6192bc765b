// Package dataprocessing turns an uploaded sales file into dashboard views.
// It is a strictly linear pipeline of three stages, each a value-in,
// value-out step with no package-level state.
//
// # Architecture
//
//  1. Loader: decodes a semicolon CSV or the first sheet of an XLSX workbook
//     into a domain.RawTable of text cells
//  2. Cleaner: checks that money and coffee_name exist, normalizes
//     decimal-comma money and day-first dates, and drops rows that fail
//  3. Aggregator: computes totals and grouped views concurrently
//
// # Usage
//
//	raw, err := dataprocessing.NewLoader(logger).Load(ctx, file, "sales.csv")
//	if err != nil {
//	    return err // LOAD AppError
//	}
//	table, report, err := dataprocessing.NewCleaner(logger).Clean(ctx, raw)
//	if err != nil {
//	    return err // SCHEMA AppError
//	}
//	summary, err := dataprocessing.NewAggregator(logger).Aggregate(ctx, table)
//
// # Data Flow
//
//	bytes → Loader → RawTable → Cleaner → Table + CleanReport → Aggregator → Summary
//
// # Error Handling
//
// Only whole-file problems are errors: an unreadable stream is a LOAD
// AppError and missing required columns a SCHEMA AppError. Cells that fail
// to parse never fail the upload; their rows are dropped and counted in
// domain.CleanReport.
//
// Optional columns that are absent produce views with Available set to
// false rather than errors.
package dataprocessing
