package campaign

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/ledger"
)

// Dispatcher starts and stops the asynchronous per-campaign send run.
// The sending package provides the production implementation.
type Dispatcher interface {
	Start(campaignID string)
	Stop(campaignID string)
}

// Locker guards the scheduler tick so only one instance promotes due
// campaigns when several servers share a database.
type Locker interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Service implements the campaign state machine. It coordinates the
// repository, the recipient ledger, and the dispatch worker pool. All
// public methods are safe for concurrent use if the underlying repository
// is concurrency-safe.
type Service struct {
	repo          Repository
	ledger        *ledger.Service
	dispatcher    Dispatcher
	schedulerLock Locker
}

// NewService creates a campaign service backed by the given repository and
// recipient ledger. The dispatcher is wired later via SetDispatcher because
// it depends on this service for completion callbacks.
func NewService(repo Repository, led *ledger.Service) *Service {
	return &Service{repo: repo, ledger: led}
}

// SetDispatcher connects the send worker pool.
func (s *Service) SetDispatcher(d Dispatcher) { s.dispatcher = d }

// SetSchedulerLock installs a distributed lock for the scheduler loop.
// Without one, every instance promotes due campaigns; the guarded status
// transition keeps that correct, the lock just avoids wasted work.
func (s *Service) SetSchedulerLock(l Locker) { s.schedulerLock = l }

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.GetCampaign(ctx, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error) {
	return s.repo.ListCampaigns(ctx, f)
}

// Create validates and persists a new campaign in draft status, seeds its
// recipient ledger, and schedules it when a future scheduled_at is given.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Campaign, error) {
	if input.Name == "" {
		return nil, ErrMissingName
	}
	if input.Subject == "" {
		return nil, ErrMissingSubject
	}

	now := time.Now().UTC()
	c := &domain.Campaign{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Subject:     input.Subject,
		FromName:    input.FromName,
		FromEmail:   input.FromEmail,
		HTMLContent: input.HTMLContent,
		TextContent: input.TextContent,
		Status:      domain.CampaignDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := s.repo.CreateCampaign(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id

	if len(input.Recipients) > 0 {
		n, err := s.ledger.AddRecipients(ctx, c.ID, input.Recipients)
		if err != nil {
			return nil, fmt.Errorf("add recipients: %w", err)
		}
		c.RecipientCount = n
	}

	if input.ScheduledAt != nil {
		if err := s.Schedule(ctx, c.ID, *input.ScheduledAt); err != nil {
			return nil, err
		}
		c.Status = domain.CampaignScheduled
		c.ScheduledAt = input.ScheduledAt
	}
	return c, nil
}

// AddRecipients appends recipients to a draft campaign's ledger.
func (s *Service) AddRecipients(ctx context.Context, id string, rs []ledger.RecipientInput) (int, error) {
	return s.ledger.AddRecipients(ctx, id, rs)
}

// Schedule moves a draft campaign to scheduled with a future send time.
// Re-scheduling an already-scheduled campaign just updates the time.
func (s *Service) Schedule(ctx context.Context, id string, at time.Time) error {
	if !at.After(time.Now()) {
		return ErrScheduleInPast
	}
	if err := s.repo.TransitionStatus(ctx, id, domain.CampaignScheduled); err != nil {
		return err
	}
	return s.repo.SetSchedule(ctx, id, &at)
}

// Send initiates (or retries) campaign dispatch. The transition to sending
// requires at least one recipient; a campaign that already completed fails
// with ErrAlreadySent. Dispatch runs asynchronously: Send returns as soon
// as the work is queued, reporting how many recipients await dispatch.
//
// Re-invoking Send while sending is the retry path for a transport outage:
// recipients already past pending are skipped, so the operation is
// idempotent.
func (s *Service) Send(ctx context.Context, id string) (int, error) {
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return 0, err
	}
	switch c.Status {
	case domain.CampaignSent:
		return 0, ErrAlreadySent
	case domain.CampaignPaused, domain.CampaignCancelled:
		return 0, fmt.Errorf("%w: cannot send from %s", ErrInvalidTransition, c.Status)
	}

	all, err := s.ledger.Recipients(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, ErrNoRecipients
	}

	if err := s.repo.TransitionStatus(ctx, id, domain.CampaignSending); err != nil {
		return 0, err
	}

	pending, err := s.ledger.PendingRecipients(ctx, id)
	if err != nil {
		return 0, err
	}

	if s.dispatcher != nil {
		s.dispatcher.Start(id)
	}
	log.Printf("[campaign.Service] campaign %s: queued %d of %d recipients", id, len(pending), len(all))
	return len(pending), nil
}

// Pause halts a sending campaign. Dispatches already handed to the
// transport are not recalled; their callbacks still land in the ledger.
func (s *Service) Pause(ctx context.Context, id string) error {
	if err := s.repo.TransitionStatus(ctx, id, domain.CampaignPaused); err != nil {
		return err
	}
	if s.dispatcher != nil {
		s.dispatcher.Stop(id)
	}
	return nil
}

// Resume restarts dispatch for a paused campaign.
func (s *Service) Resume(ctx context.Context, id string) error {
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != domain.CampaignPaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, c.Status)
	}
	if err := s.repo.TransitionStatus(ctx, id, domain.CampaignSending); err != nil {
		return err
	}
	if s.dispatcher != nil {
		s.dispatcher.Start(id)
	}
	return nil
}

// Cancel terminates a non-terminal campaign. No further dispatch occurs;
// already-dispatched recipients keep whatever status their eventual
// callback reports.
func (s *Service) Cancel(ctx context.Context, id string) error {
	if err := s.repo.TransitionStatus(ctx, id, domain.CampaignCancelled); err != nil {
		return err
	}
	if s.dispatcher != nil {
		s.dispatcher.Stop(id)
	}
	return nil
}

// MarkSent finalizes a campaign once dispatch has been attempted for every
// recipient in the ledger. Called by the dispatcher; individual failures do
// not prevent completion, they show up in the recipient breakdown instead.
func (s *Service) MarkSent(ctx context.Context, id string) error {
	return s.repo.MarkCampaignSent(ctx, id, time.Now().UTC())
}

// RunScheduler promotes due scheduled campaigns to sending at the given
// interval until ctx is cancelled. Intended to run in its own goroutine
// from main.
func (s *Service) RunScheduler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[campaign.Service] scheduler started (interval=%s)", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.promoteDue(ctx)
		}
	}
}

func (s *Service) promoteDue(ctx context.Context) {
	if s.schedulerLock != nil {
		ok, err := s.schedulerLock.Acquire(ctx)
		if err != nil {
			log.Printf("[campaign.Service] scheduler lock: %v", err)
			return
		}
		if !ok {
			return // another instance holds the tick
		}
		defer s.schedulerLock.Release(ctx)
	}

	due, err := s.repo.ListDueScheduled(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[campaign.Service] scheduler list due: %v", err)
		return
	}
	for _, c := range due {
		if _, err := s.Send(ctx, c.ID); err != nil {
			// A scheduled campaign whose recipients were never added
			// cannot send; leave it for the operator to fix.
			if errors.Is(err, ErrNoRecipients) {
				log.Printf("[campaign.Service] scheduled campaign %s has no recipients, skipping", c.ID)
				continue
			}
			log.Printf("[campaign.Service] scheduled send %s: %v", c.ID, err)
		}
	}
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name        string                  `json:"name"`
	Subject     string                  `json:"subject"`
	FromName    string                  `json:"from_name"`
	FromEmail   string                  `json:"from_email"`
	HTMLContent string                  `json:"html_content"`
	TextContent string                  `json:"text_content"`
	Recipients  []ledger.RecipientInput `json:"recipients"`
	ScheduledAt *time.Time              `json:"scheduled_at"`
}
