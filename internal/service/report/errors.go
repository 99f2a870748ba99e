package report

import "errors"

// Sentinel errors for the report service layer.
var (
	ErrNotFound     = errors.New("report not found")
	ErrDeleteFailed = errors.New("report could not be deleted")
)
