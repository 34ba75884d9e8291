package survey

import "errors"

// Sentinel errors for the survey service layer.
var (
	ErrNotFound     = errors.New("survey not found")
	ErrInactive     = errors.New("survey is not accepting responses")
	ErrInvalidScore = errors.New("score must be between 0 and 10")
	ErrMissingTitle = errors.New("survey title is required")
)
