package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignScheduled CampaignStatus = "scheduled"
	CampaignSending   CampaignStatus = "sending"
	CampaignSent      CampaignStatus = "sent"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Campaign represents an email campaign with its content and lifecycle state.
//
// The count fields are derived projections of the recipient ledger and the
// tracking event log. They are populated on read by the analytics service;
// the ledger and event log remain the source of truth.
type Campaign struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Subject     string         `json:"subject" db:"subject"`
	FromName    string         `json:"from_name" db:"from_name"`
	FromEmail   string         `json:"from_email" db:"from_email"`
	HTMLContent string         `json:"html_content" db:"html_content"`
	TextContent string         `json:"text_content" db:"text_content"`
	Status      CampaignStatus `json:"status" db:"status"`
	ScheduledAt *time.Time     `json:"scheduled_at" db:"scheduled_at"`
	SentAt      *time.Time     `json:"sent_at" db:"sent_at"`

	RecipientCount int `json:"recipient_count" db:"recipient_count"`
	DeliveredCount int `json:"delivered_count" db:"delivered_count"`
	OpenedCount    int `json:"opened_count" db:"opened_count"`
	ClickedCount   int `json:"clicked_count" db:"clicked_count"`
	BouncedCount   int `json:"bounced_count" db:"bounced_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignSent || c.Status == CampaignCancelled
}

// CanTransition reports whether the lifecycle allows moving to the target
// state. It encodes the transition table only; preconditions that need data
// beyond the status field (recipient counts, schedule times) are enforced by
// the campaign service.
func (c *Campaign) CanTransition(to CampaignStatus) bool {
	switch to {
	case CampaignScheduled:
		return c.Status == CampaignDraft || c.Status == CampaignScheduled
	case CampaignSending:
		return c.Status == CampaignDraft || c.Status == CampaignScheduled ||
			c.Status == CampaignSending || c.Status == CampaignPaused
	case CampaignSent:
		return c.Status == CampaignSending
	case CampaignPaused:
		return c.Status == CampaignSending
	case CampaignCancelled:
		return !c.IsTerminal()
	default:
		return false
	}
}
