package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/repository/memory"
	"github.com/ignite/nps-engine/internal/service/ledger"
)

func newTestLedger(t *testing.T) (*ledger.Service, *memory.Store, string) {
	t.Helper()
	store := memory.NewStore()
	svc := ledger.NewService(store, store)

	now := time.Now().UTC()
	c := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      "launch announcement",
		Subject:   "We launched",
		Status:    domain.CampaignDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := store.CreateCampaign(context.Background(), c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	return svc, store, c.ID
}

func addOne(t *testing.T, svc *ledger.Service, campaignID, email string) domain.Recipient {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.AddRecipients(ctx, campaignID, []ledger.RecipientInput{{Email: email}}); err != nil {
		t.Fatalf("add recipient: %v", err)
	}
	rs, err := svc.Recipients(ctx, campaignID)
	if err != nil {
		t.Fatalf("list recipients: %v", err)
	}
	return rs[len(rs)-1]
}

func TestAddRecipientsDeduplicates(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	ctx := context.Background()

	n, err := svc.AddRecipients(ctx, campaignID, []ledger.RecipientInput{
		{Email: "a@example.com"},
		{Email: "A@Example.com "}, // same address after normalization
		{Email: "b@example.com"},
	})
	if err != nil {
		t.Fatalf("AddRecipients: %v", err)
	}
	if n != 2 {
		t.Errorf("added = %d, want 2", n)
	}

	// Cross-batch dedup too.
	n, err = svc.AddRecipients(ctx, campaignID, []ledger.RecipientInput{
		{Email: "b@example.com"},
		{Email: "c@example.com"},
	})
	if err != nil {
		t.Fatalf("AddRecipients second batch: %v", err)
	}
	if n != 1 {
		t.Errorf("second batch added = %d, want 1", n)
	}

	rs, _ := svc.Recipients(ctx, campaignID)
	if len(rs) != 3 {
		t.Errorf("ledger size = %d, want 3", len(rs))
	}
}

func TestAddRecipientsRejectsMissingEmail(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	_, err := svc.AddRecipients(context.Background(), campaignID, []ledger.RecipientInput{{Email: "   "}})
	if err != ledger.ErrMissingEmail {
		t.Errorf("err = %v, want ErrMissingEmail", err)
	}
}

func TestAddRecipientsOnlyInDraft(t *testing.T) {
	svc, store, campaignID := newTestLedger(t)
	ctx := context.Background()

	addOne(t, svc, campaignID, "a@example.com")
	if err := store.TransitionStatus(ctx, campaignID, domain.CampaignSending); err != nil {
		t.Fatalf("transition: %v", err)
	}

	_, err := svc.AddRecipients(ctx, campaignID, []ledger.RecipientInput{{Email: "late@example.com"}})
	if err != ledger.ErrCampaignNotDraft {
		t.Errorf("err = %v, want ErrCampaignNotDraft", err)
	}
}

func TestAddRecipientsUnknownCampaign(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	_, err := svc.AddRecipients(context.Background(), "nope", []ledger.RecipientInput{{Email: "a@example.com"}})
	if err != ledger.ErrCampaignNotFound {
		t.Errorf("err = %v, want ErrCampaignNotFound", err)
	}
}

func TestRecordEventAdvancesStatus(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	ctx := context.Background()
	r := addOne(t, svc, campaignID, "a@example.com")

	for _, step := range []struct {
		event domain.TrackingEventType
		want  domain.RecipientStatus
	}{
		{domain.EventDelivered, domain.RecipientDelivered},
		{domain.EventOpened, domain.RecipientOpened},
		{domain.EventClicked, domain.RecipientClicked},
	} {
		rec, err := svc.RecordEvent(ctx, ledger.EventInput{RecipientID: r.ID, Type: step.event})
		if err != nil {
			t.Fatalf("RecordEvent(%s): %v", step.event, err)
		}
		if rec.Status != step.want {
			t.Errorf("after %s: status = %s, want %s", step.event, rec.Status, step.want)
		}
	}
}

func TestRecordEventOutOfOrderNormalized(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	ctx := context.Background()
	r := addOne(t, svc, campaignID, "a@example.com")

	// Click arrives before the delivery callback.
	rec, err := svc.RecordEvent(ctx, ledger.EventInput{RecipientID: r.ID, Type: domain.EventClicked})
	if err != nil {
		t.Fatalf("clicked: %v", err)
	}
	if rec.Status != domain.RecipientClicked {
		t.Fatalf("status = %s, want clicked", rec.Status)
	}

	// The late delivery must not regress the status.
	rec, err = svc.RecordEvent(ctx, ledger.EventInput{RecipientID: r.ID, Type: domain.EventDelivered})
	if err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if rec.Status != domain.RecipientClicked {
		t.Errorf("status after late delivery = %s, want clicked", rec.Status)
	}
}

func TestRecordEventBounceIsAbsorbing(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	ctx := context.Background()
	r := addOne(t, svc, campaignID, "a@example.com")

	rec, err := svc.RecordEvent(ctx, ledger.EventInput{
		RecipientID: r.ID,
		Type:        domain.EventBounced,
		Reason:      "mailbox full",
	})
	if err != nil {
		t.Fatalf("bounced: %v", err)
	}
	if rec.Status != domain.RecipientBounced {
		t.Fatalf("status = %s, want bounced", rec.Status)
	}
	if rec.BounceReason != "mailbox full" {
		t.Errorf("bounce reason = %q, want %q", rec.BounceReason, "mailbox full")
	}

	// Nothing dislodges a bounce, not even a click.
	rec, err = svc.RecordEvent(ctx, ledger.EventInput{RecipientID: r.ID, Type: domain.EventClicked})
	if err != nil {
		t.Fatalf("clicked after bounce: %v", err)
	}
	if rec.Status != domain.RecipientBounced {
		t.Errorf("status = %s, want bounced to stick", rec.Status)
	}
}

func TestRecordEventFirstOccurrenceTimestamps(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	ctx := context.Background()
	r := addOne(t, svc, campaignID, "a@example.com")

	first := time.Date(2026, 8, 1, 10, 15, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	if _, err := svc.RecordEvent(ctx, ledger.EventInput{RecipientID: r.ID, Type: domain.EventOpened, OccurredAt: first}); err != nil {
		t.Fatalf("first open: %v", err)
	}
	rec, err := svc.RecordEvent(ctx, ledger.EventInput{RecipientID: r.ID, Type: domain.EventOpened, OccurredAt: second})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	if rec.OpenedAt == nil || !rec.OpenedAt.Equal(first) {
		t.Errorf("OpenedAt = %v, want first occurrence %v", rec.OpenedAt, first)
	}
}

func TestRecordEventRejectsUnknownType(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	r := addOne(t, svc, campaignID, "a@example.com")

	_, err := svc.RecordEvent(context.Background(), ledger.EventInput{RecipientID: r.ID, Type: "unsubscribed"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestRecordEventUnknownRecipient(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	_, err := svc.RecordEvent(context.Background(), ledger.EventInput{RecipientID: "nope", Type: domain.EventOpened})
	if err != ledger.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkDispatchedOnlyMovesPending(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	ctx := context.Background()
	r := addOne(t, svc, campaignID, "a@example.com")

	if err := svc.MarkDispatched(ctx, r.ID, true, ""); err != nil {
		t.Fatalf("MarkDispatched: %v", err)
	}
	rec, _ := svc.RecipientStatus(ctx, r.ID)
	if rec.Status != domain.RecipientSent {
		t.Fatalf("status = %s, want sent", rec.Status)
	}
	if rec.SentAt == nil {
		t.Fatal("SentAt not stamped")
	}

	// A replay must not overwrite a later state.
	if _, err := svc.RecordEvent(ctx, ledger.EventInput{RecipientID: r.ID, Type: domain.EventDelivered}); err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if err := svc.MarkDispatched(ctx, r.ID, false, "smtp timeout"); err != nil {
		t.Fatalf("replay: %v", err)
	}
	rec, _ = svc.RecipientStatus(ctx, r.ID)
	if rec.Status != domain.RecipientDelivered {
		t.Errorf("status after replay = %s, want delivered", rec.Status)
	}
}

func TestMarkDispatchedFailure(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	ctx := context.Background()
	r := addOne(t, svc, campaignID, "a@example.com")

	if err := svc.MarkDispatched(ctx, r.ID, false, "address rejected"); err != nil {
		t.Fatalf("MarkDispatched: %v", err)
	}
	rec, _ := svc.RecipientStatus(ctx, r.ID)
	if rec.Status != domain.RecipientFailed {
		t.Errorf("status = %s, want failed", rec.Status)
	}
	if rec.BounceReason != "address rejected" {
		t.Errorf("reason = %q", rec.BounceReason)
	}
}

func TestPendingRecipients(t *testing.T) {
	svc, _, campaignID := newTestLedger(t)
	ctx := context.Background()

	a := addOne(t, svc, campaignID, "a@example.com")
	addOne(t, svc, campaignID, "b@example.com")

	if err := svc.MarkDispatched(ctx, a.ID, true, ""); err != nil {
		t.Fatalf("MarkDispatched: %v", err)
	}

	pending, err := svc.PendingRecipients(ctx, campaignID)
	if err != nil {
		t.Fatalf("PendingRecipients: %v", err)
	}
	if len(pending) != 1 || pending[0].Email != "b@example.com" {
		t.Errorf("pending = %+v, want just b@example.com", pending)
	}
}
