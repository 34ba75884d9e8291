package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoRecipients      = errors.New("campaign has no recipients")
	ErrAlreadySent       = errors.New("campaign has already been sent")
	ErrScheduleInPast    = errors.New("scheduled time must be in the future")
	ErrMissingName       = errors.New("campaign name is required")
	ErrMissingSubject    = errors.New("campaign subject is required")
)
