package ledger

import "errors"

// Sentinel errors for the ledger service layer.
var (
	ErrNotFound         = errors.New("recipient not found")
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrCampaignNotDraft = errors.New("recipients can only be added while campaign is draft")
	ErrMissingEmail     = errors.New("recipient email is required")
	ErrUnknownEvent     = errors.New("unknown tracking event type")
)
