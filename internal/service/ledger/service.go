package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/nps-engine/internal/domain"
)

// Service implements the recipient ledger operations.
type Service struct {
	repo      Repository
	campaigns CampaignGetter
}

// NewService creates a ledger service backed by the given repository.
func NewService(repo Repository, campaigns CampaignGetter) *Service {
	return &Service{repo: repo, campaigns: campaigns}
}

// RecipientInput holds one recipient to be added to a campaign.
type RecipientInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// EventInput holds one provider callback to record.
type EventInput struct {
	RecipientID string
	Type        domain.TrackingEventType
	OccurredAt  time.Time
	Payload     json.RawMessage
	Reason      string // bounce/failure reason, if the provider supplied one
}

// AddRecipients seeds the ledger for a draft campaign. Recipients are
// de-duplicated by email within the campaign; later duplicates are dropped
// and the first occurrence wins, both inside the batch and against entries
// from earlier batches. Returns the number of recipients actually added.
//
// Fails with ErrCampaignNotDraft once sending has been initiated: the
// recipient list is frozen from that point on.
func (s *Service) AddRecipients(ctx context.Context, campaignID string, inputs []RecipientInput) (int, error) {
	c, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return 0, ErrCampaignNotFound
	}
	if c.Status != domain.CampaignDraft {
		return 0, ErrCampaignNotDraft
	}

	seen, err := s.repo.RecipientEmails(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("load existing emails: %w", err)
	}

	now := time.Now().UTC()
	var batch []domain.Recipient
	for _, in := range inputs {
		email := normalizeEmail(in.Email)
		if email == "" {
			return 0, ErrMissingEmail
		}
		if seen[email] {
			continue // duplicate, first occurrence wins
		}
		seen[email] = true
		batch = append(batch, domain.Recipient{
			ID:         uuid.New().String(),
			CampaignID: campaignID,
			Email:      email,
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			Status:     domain.RecipientPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}
	if err := s.repo.InsertRecipients(ctx, batch); err != nil {
		return 0, fmt.Errorf("insert recipients: %w", err)
	}
	return len(batch), nil
}

// RecordEvent appends a tracking event and advances the recipient's status
// to the join of its current state and the state the event implies. The
// event row is always appended, even when the status does not move: re-opens
// and duplicate delivery callbacks are history, not errors.
func (s *Service) RecordEvent(ctx context.Context, in EventInput) (*domain.Recipient, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, in.Type)
	}
	at := in.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	rec, err := s.repo.UpdateRecipient(ctx, in.RecipientID, func(r *domain.Recipient) error {
		next := r.Status.Join(in.Type.StatusFor())
		if next != r.Status {
			r.Status = next
		}
		switch in.Type {
		case domain.EventOpened:
			if r.OpenedAt == nil {
				t := at
				r.OpenedAt = &t
			}
		case domain.EventClicked:
			if r.ClickedAt == nil {
				t := at
				r.ClickedAt = &t
			}
		case domain.EventBounced:
			if r.BounceReason == "" && in.Reason != "" {
				r.BounceReason = in.Reason
			}
		}
		r.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := &domain.TrackingEvent{
		ID:          uuid.New().String(),
		RecipientID: rec.ID,
		CampaignID:  rec.CampaignID,
		EventType:   in.Type,
		OccurredAt:  at,
		Payload:     in.Payload,
	}
	if err := s.repo.AppendEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	log.Printf("[ledger.Service] %s event for recipient %s (status=%s)", in.Type, rec.ID, rec.Status)
	return rec, nil
}

// MarkDispatched records the outcome of one dispatch attempt. Only pending
// recipients move; anything else is a retry replay and is left untouched,
// which is what makes campaign send re-invocation idempotent. No tracking
// event is appended here: delivery confirmation is asynchronous and arrives
// via provider callback, not from the act of dispatching.
func (s *Service) MarkDispatched(ctx context.Context, recipientID string, ok bool, reason string) error {
	_, err := s.repo.UpdateRecipient(ctx, recipientID, func(r *domain.Recipient) error {
		if r.Status != domain.RecipientPending {
			return nil
		}
		now := time.Now().UTC()
		if ok {
			r.Status = domain.RecipientSent
			r.SentAt = &now
		} else {
			r.Status = domain.RecipientFailed
			r.BounceReason = reason
		}
		r.UpdatedAt = now
		return nil
	})
	return err
}

// RecipientStatus returns a read-only snapshot of one recipient.
func (s *Service) RecipientStatus(ctx context.Context, recipientID string) (*domain.Recipient, error) {
	return s.repo.GetRecipient(ctx, recipientID)
}

// Recipients returns a campaign's full ledger.
func (s *Service) Recipients(ctx context.Context, campaignID string) ([]domain.Recipient, error) {
	return s.repo.ListRecipients(ctx, campaignID, "")
}

// PendingRecipients returns the recipients still awaiting dispatch.
func (s *Service) PendingRecipients(ctx context.Context, campaignID string) ([]domain.Recipient, error) {
	return s.repo.ListRecipients(ctx, campaignID, domain.RecipientPending)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
