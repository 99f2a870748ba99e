package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound      = errors.New("campaign not found")
	ErrLinkNotFound  = errors.New("prospect is not linked to campaign")
	ErrAlreadyLinked = errors.New("prospect already linked to campaign")
	ErrDeleteFailed  = errors.New("campaign could not be deleted")
)
