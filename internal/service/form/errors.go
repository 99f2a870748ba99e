package form

import "errors"

// Sentinel errors for the form service layer.
var (
	ErrNotFound     = errors.New("form not found")
	ErrSlugTaken    = errors.New("form link already in use")
	ErrDeleteFailed = errors.New("form could not be deleted")
)
