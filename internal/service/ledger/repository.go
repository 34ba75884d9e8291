package ledger

import (
	"context"

	"github.com/ignite/nps-engine/internal/domain"
)

// Repository defines the data access contract for recipients and their
// tracking events. Implementations must be safe for concurrent use.
type Repository interface {
	// InsertRecipients bulk-inserts ledger entries for a campaign.
	InsertRecipients(ctx context.Context, rs []domain.Recipient) error

	// GetRecipient returns one recipient. Returns ErrNotFound if absent.
	GetRecipient(ctx context.Context, id string) (*domain.Recipient, error)

	// ListRecipients returns a campaign's recipients in insertion order.
	// An empty status filter returns all of them.
	ListRecipients(ctx context.Context, campaignID string, status domain.RecipientStatus) ([]domain.Recipient, error)

	// RecipientEmails returns the set of emails already in a campaign's
	// ledger, for cross-batch de-duplication.
	RecipientEmails(ctx context.Context, campaignID string) (map[string]bool, error)

	// UpdateRecipient runs mutate on the recipient under per-recipient
	// mutual exclusion and persists the result. Concurrent callbacks for
	// the same recipient must serialize here. Returns ErrNotFound if the
	// recipient does not exist; errors from mutate abort the update.
	UpdateRecipient(ctx context.Context, id string, mutate func(*domain.Recipient) error) (*domain.Recipient, error)

	// AppendEvent appends one immutable tracking event.
	AppendEvent(ctx context.Context, ev *domain.TrackingEvent) error
}

// CampaignGetter is the slice of the campaign repository the ledger needs:
// just enough to check lifecycle state before mutating the recipient list.
type CampaignGetter interface {
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)
}
