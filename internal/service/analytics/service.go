package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/ignite/nps-engine/internal/domain"
)

// Counters are unique-recipient counts derived from the event log.
type Counters struct {
	RecipientCount int `json:"recipient_count"`
	DeliveredCount int `json:"delivered_count"`
	OpenedCount    int `json:"opened_count"`
	ClickedCount   int `json:"clicked_count"`
	BouncedCount   int `json:"bounced_count"`
}

// Rates are engagement ratios kept at full precision as fractions in [0,1].
// Every rate degrades to 0 when its denominator is 0.
type Rates struct {
	Delivery float64 `json:"delivery_rate"`
	Open     float64 `json:"open_rate"`
	Click    float64 `json:"click_rate"`
	Bounce   float64 `json:"bounce_rate"`
}

// RatePercents are the display form: whole percentages rounded to nearest.
type RatePercents struct {
	Delivery int `json:"delivery_rate"`
	Open     int `json:"open_rate"`
	Click    int `json:"click_rate"`
	Bounce   int `json:"bounce_rate"`
}

// Percents rounds each rate to the nearest whole percent for display.
func (r Rates) Percents() RatePercents {
	return RatePercents{
		Delivery: roundPercent(r.Delivery),
		Open:     roundPercent(r.Open),
		Click:    roundPercent(r.Click),
		Bounce:   roundPercent(r.Bounce),
	}
}

func roundPercent(fraction float64) int {
	return int(math.Round(fraction * 100))
}

// StatusCount is one row of the live status breakdown.
type StatusCount struct {
	Status domain.RecipientStatus `json:"status"`
	Count  int                    `json:"count"`
}

// CampaignAnalytics is the full engagement report for one campaign.
type CampaignAnalytics struct {
	Counters        Counters
	Rates           Rates
	Timeline        []HourBucket
	StatusBreakdown []StatusCount
}

// Service is the engagement aggregator.
type Service struct {
	repo Repository
}

// NewService creates an aggregator backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Counters computes unique-recipient engagement counters for a campaign.
func (s *Service) Counters(ctx context.Context, campaignID string) (Counters, error) {
	total, err := s.repo.CampaignRecipientCount(ctx, campaignID)
	if err != nil {
		return Counters{}, err
	}
	byType, err := s.repo.DistinctEventRecipientCounts(ctx, campaignID)
	if err != nil {
		return Counters{}, fmt.Errorf("event counts: %w", err)
	}
	return Counters{
		RecipientCount: total,
		DeliveredCount: byType[domain.EventDelivered],
		OpenedCount:    byType[domain.EventOpened],
		ClickedCount:   byType[domain.EventClicked],
		BouncedCount:   byType[domain.EventBounced],
	}, nil
}

// ComputeRates derives the four engagement rates from counters. Division by
// zero never occurs: a zero denominator yields a zero rate.
func ComputeRates(c Counters) Rates {
	return Rates{
		Delivery: ratio(c.DeliveredCount, c.RecipientCount),
		Open:     ratio(c.OpenedCount, c.DeliveredCount),
		Click:    ratio(c.ClickedCount, c.DeliveredCount),
		Bounce:   ratio(c.BouncedCount, c.RecipientCount),
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Campaign assembles the full analytics report: counters, rates, the sparse
// hourly timeline, and a live status breakdown read at query time.
func (s *Service) Campaign(ctx context.Context, campaignID string) (*CampaignAnalytics, error) {
	counters, err := s.Counters(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	timeline, err := s.repo.HourlyEventCounts(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}

	statusCounts, err := s.repo.RecipientStatusCounts(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}
	breakdown := make([]StatusCount, 0, len(statusCounts))
	for _, st := range statusOrder {
		if n, ok := statusCounts[st]; ok && n > 0 {
			breakdown = append(breakdown, StatusCount{Status: st, Count: n})
		}
	}

	return &CampaignAnalytics{
		Counters:        counters,
		Rates:           ComputeRates(counters),
		Timeline:        timeline,
		StatusBreakdown: breakdown,
	}, nil
}

// Series returns a restartable iterator over the hourly buckets of one
// event type, ascending by hour. Hours without events are simply absent;
// consumers wanting a dense series zero-fill themselves.
func (s *Service) Series(ctx context.Context, campaignID string, eventType domain.TrackingEventType) (*Series, error) {
	buckets, err := s.repo.HourlyEventCounts(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	var filtered []HourBucket
	for _, b := range buckets {
		if b.EventType == eventType {
			filtered = append(filtered, b)
		}
	}
	return &Series{buckets: filtered}, nil
}

// statusOrder fixes the breakdown presentation order along the engagement
// lattice, terminal failure states last.
var statusOrder = []domain.RecipientStatus{
	domain.RecipientPending,
	domain.RecipientSent,
	domain.RecipientDelivered,
	domain.RecipientOpened,
	domain.RecipientClicked,
	domain.RecipientBounced,
	domain.RecipientFailed,
}

// Series is a finite, restartable pull iterator over (hour, count) pairs.
type Series struct {
	buckets []HourBucket
	pos     int
}

// Next returns the next bucket in ascending hour order. The second return
// is false once the series is exhausted.
func (s *Series) Next() (HourBucket, bool) {
	if s.pos >= len(s.buckets) {
		return HourBucket{}, false
	}
	b := s.buckets[s.pos]
	s.pos++
	return b, true
}

// Reset restarts the series from the beginning.
func (s *Series) Reset() { s.pos = 0 }

// Len returns the number of non-empty hours in the series.
func (s *Series) Len() int { return len(s.buckets) }
