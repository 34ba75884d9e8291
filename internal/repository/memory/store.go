// Package memory provides in-memory repository implementations.
//
// The store backs the dev-mode server and the service/API tests. Semantics
// match the postgres implementations: per-recipient mutual exclusion for
// status updates, append-only events, atomic campaign status transitions.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ignite/nps-engine/internal/domain"
	"github.com/ignite/nps-engine/internal/service/analytics"
	"github.com/ignite/nps-engine/internal/service/campaign"
	"github.com/ignite/nps-engine/internal/service/ledger"
	"github.com/ignite/nps-engine/internal/service/survey"
)

// Store is an in-memory implementation of the survey, campaign, ledger, and
// analytics repository interfaces. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	surveys   map[string]*domain.Survey
	responses map[string][]domain.SurveyResponse // survey id → responses

	campaigns     map[string]*domain.Campaign
	campaignOrder []string // insertion order, oldest first

	recipients        map[string]*recipientEntry
	campaignRecipient map[string][]string // campaign id → recipient ids, insertion order

	events map[string][]domain.TrackingEvent // campaign id → append-only log
}

// recipientEntry carries its own lock so concurrent callbacks for the same
// recipient serialize without contending on the whole store.
type recipientEntry struct {
	mu sync.Mutex
	r  domain.Recipient
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		surveys:           make(map[string]*domain.Survey),
		responses:         make(map[string][]domain.SurveyResponse),
		campaigns:         make(map[string]*domain.Campaign),
		recipients:        make(map[string]*recipientEntry),
		campaignRecipient: make(map[string][]string),
		events:            make(map[string][]domain.TrackingEvent),
	}
}

// ---------------------------------------------------------------------------
// survey.Repository
// ---------------------------------------------------------------------------

func (s *Store) GetSurvey(_ context.Context, id string) (*domain.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sv, ok := s.surveys[id]
	if !ok {
		return nil, survey.ErrNotFound
	}
	cp := *sv
	return &cp, nil
}

func (s *Store) ListSurveys(_ context.Context) ([]domain.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		out = append(out, *sv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateSurvey(_ context.Context, sv *domain.Survey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sv
	s.surveys[cp.ID] = &cp
	return cp.ID, nil
}

func (s *Store) SetSurveyActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[id]
	if !ok {
		return survey.ErrNotFound
	}
	sv.IsActive = active
	sv.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) AddResponse(_ context.Context, r *domain.SurveyResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[r.SurveyID] = append(s.responses[r.SurveyID], *r)
	return nil
}

func (s *Store) ListResponses(_ context.Context, surveyID string, limit, offset int) ([]domain.SurveyResponse, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.responses[surveyID]
	// Newest first.
	rs := make([]domain.SurveyResponse, len(all))
	for i, r := range all {
		rs[len(all)-1-i] = r
	}
	total := len(rs)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return rs[offset:end], total, nil
}

func (s *Store) ResponseScores(_ context.Context, surveyID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var scores []int
	for _, r := range s.responses[surveyID] {
		scores = append(scores, r.Score)
	}
	return scores, nil
}

// ---------------------------------------------------------------------------
// campaign.Repository (and ledger.CampaignGetter)
// ---------------------------------------------------------------------------

func (s *Store) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	cp.RecipientCount = len(s.campaignRecipient[id])
	return &cp, nil
}

func (s *Store) ListCampaigns(_ context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Campaign
	for i := len(s.campaignOrder) - 1; i >= 0; i-- { // newest first
		c := s.campaigns[s.campaignOrder[i]]
		if f.Status != "" && string(c.Status) != f.Status {
			continue
		}
		cp := *c
		cp.RecipientCount = len(s.campaignRecipient[c.ID])
		out = append(out, cp)
	}
	total := len(out)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if f.Limit <= 0 || end > total {
		end = total
	}
	return out[f.Offset:end], total, nil
}

func (s *Store) CreateCampaign(_ context.Context, c *domain.Campaign) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.campaigns[cp.ID] = &cp
	s.campaignOrder = append(s.campaignOrder, cp.ID)
	return cp.ID, nil
}

func (s *Store) TransitionStatus(_ context.Context, id string, to domain.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	if !c.CanTransition(to) {
		return campaign.ErrInvalidTransition
	}
	c.Status = to
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SetSchedule(_ context.Context, id string, at *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	c.ScheduledAt = at
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) MarkCampaignSent(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	if !c.CanTransition(domain.CampaignSent) {
		return campaign.ErrInvalidTransition
	}
	c.Status = domain.CampaignSent
	c.SentAt = &at
	c.UpdatedAt = at
	return nil
}

func (s *Store) ListDueScheduled(_ context.Context, now time.Time) ([]domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []domain.Campaign
	for _, id := range s.campaignOrder {
		c := s.campaigns[id]
		if c.Status == domain.CampaignScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now) {
			due = append(due, *c)
		}
	}
	return due, nil
}

// ---------------------------------------------------------------------------
// ledger.Repository
// ---------------------------------------------------------------------------

func (s *Store) InsertRecipients(_ context.Context, rs []domain.Recipient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		cp := r
		s.recipients[cp.ID] = &recipientEntry{r: cp}
		s.campaignRecipient[cp.CampaignID] = append(s.campaignRecipient[cp.CampaignID], cp.ID)
	}
	return nil
}

func (s *Store) GetRecipient(_ context.Context, id string) (*domain.Recipient, error) {
	s.mu.RLock()
	entry, ok := s.recipients[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	entry.mu.Lock()
	cp := entry.r
	entry.mu.Unlock()
	return &cp, nil
}

func (s *Store) ListRecipients(_ context.Context, campaignID string, status domain.RecipientStatus) ([]domain.Recipient, error) {
	s.mu.RLock()
	ids := append([]string(nil), s.campaignRecipient[campaignID]...)
	s.mu.RUnlock()

	var out []domain.Recipient
	for _, id := range ids {
		s.mu.RLock()
		entry := s.recipients[id]
		s.mu.RUnlock()
		entry.mu.Lock()
		cp := entry.r
		entry.mu.Unlock()
		if status == "" || cp.Status == status {
			out = append(out, cp)
		}
	}
	return out, nil
}

func (s *Store) RecipientEmails(_ context.Context, campaignID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	for _, id := range s.campaignRecipient[campaignID] {
		seen[s.recipients[id].r.Email] = true
	}
	return seen, nil
}

func (s *Store) UpdateRecipient(_ context.Context, id string, mutate func(*domain.Recipient) error) (*domain.Recipient, error) {
	s.mu.RLock()
	entry, ok := s.recipients[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if err := mutate(&entry.r); err != nil {
		return nil, err
	}
	cp := entry.r
	return &cp, nil
}

func (s *Store) AppendEvent(_ context.Context, ev *domain.TrackingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.CampaignID] = append(s.events[ev.CampaignID], *ev)
	return nil
}

// ---------------------------------------------------------------------------
// analytics.Repository
// ---------------------------------------------------------------------------

func (s *Store) CampaignRecipientCount(_ context.Context, campaignID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.campaigns[campaignID]; !ok {
		return 0, analytics.ErrNotFound
	}
	return len(s.campaignRecipient[campaignID]), nil
}

func (s *Store) DistinctEventRecipientCounts(_ context.Context, campaignID string) (map[domain.TrackingEventType]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.TrackingEventType]map[string]bool)
	for _, ev := range s.events[campaignID] {
		if seen[ev.EventType] == nil {
			seen[ev.EventType] = make(map[string]bool)
		}
		seen[ev.EventType][ev.RecipientID] = true
	}
	out := make(map[domain.TrackingEventType]int, len(seen))
	for t, recips := range seen {
		out[t] = len(recips)
	}
	return out, nil
}

func (s *Store) HourlyEventCounts(_ context.Context, campaignID string) ([]analytics.HourBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct {
		hour time.Time
		typ  domain.TrackingEventType
	}
	counts := make(map[key]int)
	for _, ev := range s.events[campaignID] {
		counts[key{ev.OccurredAt.UTC().Truncate(time.Hour), ev.EventType}]++
	}

	out := make([]analytics.HourBucket, 0, len(counts))
	for k, n := range counts {
		out = append(out, analytics.HourBucket{Hour: k.hour, EventType: k.typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Hour.Equal(out[j].Hour) {
			return out[i].Hour.Before(out[j].Hour)
		}
		return out[i].EventType < out[j].EventType
	})
	return out, nil
}

func (s *Store) RecipientStatusCounts(_ context.Context, campaignID string) (map[domain.RecipientStatus]int, error) {
	s.mu.RLock()
	ids := append([]string(nil), s.campaignRecipient[campaignID]...)
	s.mu.RUnlock()

	out := make(map[domain.RecipientStatus]int)
	for _, id := range ids {
		s.mu.RLock()
		entry := s.recipients[id]
		s.mu.RUnlock()
		entry.mu.Lock()
		out[entry.r.Status]++
		entry.mu.Unlock()
	}
	return out, nil
}
