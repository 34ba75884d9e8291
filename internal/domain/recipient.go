package domain

import "time"

// RecipientStatus enumerates the per-recipient delivery/engagement states.
//
// Engagement states form a lattice ordered
// pending < sent < delivered < opened < clicked, with bounced and failed as
// absorbing states. Status only ever moves up the lattice; out-of-order
// provider callbacks are normalized by taking the join (maximum) of the
// current and incoming states.
type RecipientStatus string

const (
	RecipientPending   RecipientStatus = "pending"
	RecipientSent      RecipientStatus = "sent"
	RecipientDelivered RecipientStatus = "delivered"
	RecipientOpened    RecipientStatus = "opened"
	RecipientClicked   RecipientStatus = "clicked"
	RecipientBounced   RecipientStatus = "bounced"
	RecipientFailed    RecipientStatus = "failed"
)

// statusRank orders engagement states for the lattice join. Absorbing states
// rank above everything so that no later callback can dislodge them.
var statusRank = map[RecipientStatus]int{
	RecipientPending:   0,
	RecipientSent:      1,
	RecipientDelivered: 2,
	RecipientOpened:    3,
	RecipientClicked:   4,
	RecipientBounced:   5,
	RecipientFailed:    5,
}

// IsAbsorbing reports whether the status can never be left once entered.
func (s RecipientStatus) IsAbsorbing() bool {
	return s == RecipientBounced || s == RecipientFailed
}

// Join returns the lattice join of two recipient statuses: the further of
// the two along the engagement ordering. When both are absorbing the current
// status wins (first absorbing state recorded is kept).
func (s RecipientStatus) Join(other RecipientStatus) RecipientStatus {
	if s.IsAbsorbing() {
		return s
	}
	if statusRank[other] > statusRank[s] {
		return other
	}
	return s
}

// Recipient is one entry in a campaign's recipient ledger.
type Recipient struct {
	ID         string          `json:"id" db:"id"`
	CampaignID string          `json:"campaign_id" db:"campaign_id"`
	Email      string          `json:"email" db:"email"`
	FirstName  string          `json:"first_name,omitempty" db:"first_name"`
	LastName   string          `json:"last_name,omitempty" db:"last_name"`
	Status     RecipientStatus `json:"status" db:"status"`

	SentAt       *time.Time `json:"sent_at" db:"sent_at"`
	OpenedAt     *time.Time `json:"opened_at" db:"opened_at"`
	ClickedAt    *time.Time `json:"clicked_at" db:"clicked_at"`
	BounceReason string     `json:"bounce_reason,omitempty" db:"bounce_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
