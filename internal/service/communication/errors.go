package communication

import "errors"

// Sentinel errors for the communication service layer.
var (
	ErrNotFound     = errors.New("communication not found")
	ErrDeleteFailed = errors.New("communication could not be deleted")
)
