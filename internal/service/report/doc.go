// Package report manages saved report definitions and their schedule.
// Building and exporting the report itself lives in internal/reporting.
package report
