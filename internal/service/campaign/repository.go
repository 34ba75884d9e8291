package campaign

import (
	"context"
	"time"

	"github.com/ignite/nps-engine/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetCampaign returns a single campaign. Returns ErrNotFound if absent.
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)

	// ListCampaigns returns campaigns matching the filter, newest first.
	ListCampaigns(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error)

	// CreateCampaign inserts a new campaign and returns its ID.
	CreateCampaign(ctx context.Context, c *domain.Campaign) (string, error)

	// TransitionStatus atomically moves a campaign to the target status,
	// checking the lifecycle table under the same lock/row guard. Returns
	// ErrInvalidTransition when the move is not allowed from the current
	// state. Moving to the current state is a no-op success where the
	// table allows it (scheduled→scheduled, sending→sending).
	TransitionStatus(ctx context.Context, id string, to domain.CampaignStatus) error

	// SetSchedule stores the scheduled_at timestamp.
	SetSchedule(ctx context.Context, id string, at *time.Time) error

	// MarkCampaignSent finalizes a sending campaign: status sent + sent_at.
	MarkCampaignSent(ctx context.Context, id string, at time.Time) error

	// ListDueScheduled returns scheduled campaigns whose scheduled_at has
	// passed, for the scheduler loop to promote.
	ListDueScheduled(ctx context.Context, now time.Time) ([]domain.Campaign, error)
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
