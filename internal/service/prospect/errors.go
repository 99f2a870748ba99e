package prospect

import "errors"

// Sentinel errors for the prospect service layer.
var (
	ErrNotFound = errors.New("prospect not found")
	// ErrDeleteFailed hides the storage failure behind a generic 500.
	ErrDeleteFailed = errors.New("prospect could not be deleted")
)
