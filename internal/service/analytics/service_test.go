package analytics_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/repository/memory"
	"github.com/ignite/nps-engine/internal/service/analytics"
	"github.com/ignite/nps-engine/internal/service/ledger"
)

type fixture struct {
	store      *memory.Store
	ledger     *ledger.Service
	analytics  *analytics.Service
	campaignID string
	recipients []domain.Recipient
}

func newFixture(t *testing.T, recipientCount int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	led := ledger.NewService(store, store)

	now := time.Now().UTC()
	c := &domain.Campaign{
		ID:        uuid.New().String(),
		Name:      "metrics test",
		Subject:   "s",
		Status:    domain.CampaignDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := store.CreateCampaign(ctx, c); err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	var inputs []ledger.RecipientInput
	for i := 0; i < recipientCount; i++ {
		inputs = append(inputs, ledger.RecipientInput{Email: fmt.Sprintf("r%03d@example.com", i)})
	}
	if len(inputs) > 0 {
		if _, err := led.AddRecipients(ctx, c.ID, inputs); err != nil {
			t.Fatalf("add recipients: %v", err)
		}
	}
	rs, err := led.Recipients(ctx, c.ID)
	if err != nil {
		t.Fatalf("list recipients: %v", err)
	}

	return &fixture{
		store:      store,
		ledger:     led,
		analytics:  analytics.NewService(store),
		campaignID: c.ID,
		recipients: rs,
	}
}

func (f *fixture) record(t *testing.T, idx int, typ domain.TrackingEventType, at time.Time) {
	t.Helper()
	_, err := f.ledger.RecordEvent(context.Background(), ledger.EventInput{
		RecipientID: f.recipients[idx].ID,
		Type:        typ,
		OccurredAt:  at,
	})
	if err != nil {
		t.Fatalf("record %s for #%d: %v", typ, idx, err)
	}
}

func TestCampaignCountersAndRates(t *testing.T) {
	f := newFixture(t, 100)
	at := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)

	// 90 delivered, 30 opened, 10 clicked, 5 bounced.
	for i := 0; i < 90; i++ {
		f.record(t, i, domain.EventDelivered, at)
	}
	for i := 0; i < 30; i++ {
		f.record(t, i, domain.EventOpened, at)
	}
	for i := 0; i < 10; i++ {
		f.record(t, i, domain.EventClicked, at)
	}
	for i := 90; i < 95; i++ {
		f.record(t, i, domain.EventBounced, at)
	}

	report, err := f.analytics.Campaign(context.Background(), f.campaignID)
	if err != nil {
		t.Fatalf("Campaign: %v", err)
	}

	c := report.Counters
	if c.RecipientCount != 100 || c.DeliveredCount != 90 || c.OpenedCount != 30 ||
		c.ClickedCount != 10 || c.BouncedCount != 5 {
		t.Errorf("counters = %+v", c)
	}

	p := report.Rates.Percents()
	if p.Delivery != 90 {
		t.Errorf("delivery = %d%%, want 90", p.Delivery)
	}
	if p.Open != 33 { // 30/90 rounds to 33
		t.Errorf("open = %d%%, want 33", p.Open)
	}
	if p.Click != 11 { // 10/90 rounds to 11
		t.Errorf("click = %d%%, want 11", p.Click)
	}
	if p.Bounce != 5 {
		t.Errorf("bounce = %d%%, want 5", p.Bounce)
	}
}

func TestCountersAreDistinctPerRecipient(t *testing.T) {
	f := newFixture(t, 3)
	at := time.Now().UTC()

	// One recipient opening three times still counts once.
	f.record(t, 0, domain.EventDelivered, at)
	f.record(t, 0, domain.EventOpened, at)
	f.record(t, 0, domain.EventOpened, at.Add(time.Minute))
	f.record(t, 0, domain.EventOpened, at.Add(2*time.Minute))

	counters, err := f.analytics.Counters(context.Background(), f.campaignID)
	if err != nil {
		t.Fatalf("Counters: %v", err)
	}
	if counters.OpenedCount != 1 {
		t.Errorf("opened = %d, want 1", counters.OpenedCount)
	}
}

func TestRatesZeroDenominators(t *testing.T) {
	// No recipients at all: every rate is 0, no division by zero.
	r := analytics.ComputeRates(analytics.Counters{})
	if r.Delivery != 0 || r.Open != 0 || r.Click != 0 || r.Bounce != 0 {
		t.Errorf("rates = %+v, want all zero", r)
	}

	// Recipients but nothing delivered: open/click denominators are zero.
	r = analytics.ComputeRates(analytics.Counters{RecipientCount: 10, BouncedCount: 10})
	if r.Open != 0 || r.Click != 0 {
		t.Errorf("open/click = %v/%v, want 0/0", r.Open, r.Click)
	}
	if r.Bounce != 1 {
		t.Errorf("bounce = %v, want 1", r.Bounce)
	}
}

func TestCampaignNotFound(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.analytics.Campaign(context.Background(), "missing")
	if err != analytics.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStatusBreakdown(t *testing.T) {
	f := newFixture(t, 4)
	at := time.Now().UTC()

	f.record(t, 0, domain.EventDelivered, at)
	f.record(t, 1, domain.EventOpened, at)
	f.record(t, 2, domain.EventBounced, at)

	report, err := f.analytics.Campaign(context.Background(), f.campaignID)
	if err != nil {
		t.Fatalf("Campaign: %v", err)
	}

	want := map[domain.RecipientStatus]int{
		domain.RecipientPending:   1,
		domain.RecipientDelivered: 1,
		domain.RecipientOpened:    1,
		domain.RecipientBounced:   1,
	}
	if len(report.StatusBreakdown) != len(want) {
		t.Fatalf("breakdown = %+v", report.StatusBreakdown)
	}
	for _, sc := range report.StatusBreakdown {
		if want[sc.Status] != sc.Count {
			t.Errorf("status %s = %d, want %d", sc.Status, sc.Count, want[sc.Status])
		}
	}
}

func TestTimelineBucketsByHour(t *testing.T) {
	f := newFixture(t, 3)
	h1 := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

	// Two opens inside hour one, one inside hour three. Hour two stays empty.
	f.record(t, 0, domain.EventOpened, h1.Add(5*time.Minute))
	f.record(t, 1, domain.EventOpened, h1.Add(50*time.Minute))
	f.record(t, 2, domain.EventOpened, h1.Add(2*time.Hour+10*time.Minute))

	series, err := f.analytics.Series(context.Background(), f.campaignID, domain.EventOpened)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("series len = %d, want 2 (sparse, empty hour absent)", series.Len())
	}

	b1, ok := series.Next()
	if !ok || !b1.Hour.Equal(h1) || b1.Count != 2 {
		t.Errorf("first bucket = %+v, want hour %v count 2", b1, h1)
	}
	b2, ok := series.Next()
	if !ok || !b2.Hour.Equal(h1.Add(2*time.Hour)) || b2.Count != 1 {
		t.Errorf("second bucket = %+v", b2)
	}
	if _, ok := series.Next(); ok {
		t.Error("series should be exhausted")
	}

	// Restartable.
	series.Reset()
	b, ok := series.Next()
	if !ok || !b.Hour.Equal(h1) {
		t.Errorf("after reset: %+v", b)
	}
}
