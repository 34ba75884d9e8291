package sending

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/nps-engine/internal/domain"
)

// Ledger is the slice of the recipient ledger the dispatcher needs.
type Ledger interface {
	PendingRecipients(ctx context.Context, campaignID string) ([]domain.Recipient, error)
	MarkDispatched(ctx context.Context, recipientID string, ok bool, reason string) error
}

// Campaigns provides campaign content and receives the completion signal.
// The campaign service satisfies this.
type Campaigns interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	MarkSent(ctx context.Context, id string) error
}

// Options tunes the dispatcher.
type Options struct {
	Workers         int
	TrackingBaseURL string
}

// Dispatcher runs one bounded worker pool per sending campaign. Start is
// asynchronous and idempotent per campaign: a second Start while a run is in
// flight is ignored. Stop cancels a campaign's run; recipients already handed
// to the transport are not recalled.
type Dispatcher struct {
	transport Transport
	limiter   Limiter
	ledger    Ledger
	campaigns Campaigns
	opts      Options

	mu   sync.Mutex
	runs map[string]context.CancelFunc
	wg   sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Workers defaults to 10 when not set.
func NewDispatcher(transport Transport, limiter Limiter, led Ledger, campaigns Campaigns, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 10
	}
	if limiter == nil {
		limiter = NopLimiter{}
	}
	return &Dispatcher{
		transport: transport,
		limiter:   limiter,
		ledger:    led,
		campaigns: campaigns,
		opts:      opts,
		runs:      make(map[string]context.CancelFunc),
	}
}

// Start launches a dispatch run for the campaign unless one is in flight.
func (d *Dispatcher) Start(campaignID string) {
	d.mu.Lock()
	if _, running := d.runs[campaignID]; running {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.runs[campaignID] = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(ctx, campaignID)
}

// Stop cancels the campaign's dispatch run, if any.
func (d *Dispatcher) Stop(campaignID string) {
	d.mu.Lock()
	cancel, ok := d.runs[campaignID]
	if ok {
		delete(d.runs, campaignID)
	}
	d.mu.Unlock()
	if ok {
		cancel()
	}
}

// Shutdown cancels every run and waits for the workers to drain.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	for id, cancel := range d.runs {
		cancel()
		delete(d.runs, id)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, campaignID string) {
	defer d.wg.Done()
	defer func() {
		d.mu.Lock()
		delete(d.runs, campaignID)
		d.mu.Unlock()
	}()

	c, err := d.campaigns.Get(ctx, campaignID)
	if err != nil {
		log.Printf("[sending.Dispatcher] campaign %s: %v", campaignID, err)
		return
	}
	pending, err := d.ledger.PendingRecipients(ctx, campaignID)
	if err != nil {
		log.Printf("[sending.Dispatcher] campaign %s: list pending: %v", campaignID, err)
		return
	}
	if len(pending) == 0 {
		d.finish(campaignID)
		return
	}

	log.Printf("[sending.Dispatcher] campaign %s: dispatching %d recipients with %d workers",
		campaignID, len(pending), d.opts.Workers)

	workers := d.opts.Workers
	if workers > len(pending) {
		workers = len(pending)
	}

	jobs := make(chan domain.Recipient)
	var transportDown atomic.Bool
	var workerWG sync.WaitGroup

	for i := 0; i < workers; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for r := range jobs {
				if ctx.Err() != nil || transportDown.Load() {
					continue // drain; these recipients stay pending
				}
				d.dispatchOne(ctx, c, r, &transportDown)
			}
		}()
	}

feed:
	for _, r := range pending {
		select {
		case jobs <- r:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	workerWG.Wait()

	if ctx.Err() != nil {
		log.Printf("[sending.Dispatcher] campaign %s: run stopped", campaignID)
		return
	}
	if transportDown.Load() {
		// Campaign stays in sending; a later Send retries the remainder.
		log.Printf("[sending.Dispatcher] campaign %s: transport unavailable, leaving remainder pending", campaignID)
		return
	}

	remaining, err := d.ledger.PendingRecipients(context.Background(), campaignID)
	if err != nil {
		log.Printf("[sending.Dispatcher] campaign %s: recheck pending: %v", campaignID, err)
		return
	}
	if len(remaining) == 0 {
		d.finish(campaignID)
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, c *domain.Campaign, r domain.Recipient, transportDown *atomic.Bool) {
	for {
		allowed, wait, err := d.limiter.Allow(ctx, 1)
		if err != nil || allowed {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	msg := &Message{
		CampaignID:  c.ID,
		RecipientID: r.ID,
		Email:       r.Email,
		FromName:    c.FromName,
		FromEmail:   c.FromEmail,
		Subject:     c.Subject,
		HTMLContent: instrumentHTML(c.HTMLContent, d.opts.TrackingBaseURL, c.ID, r.ID),
		TextContent: c.TextContent,
	}

	res, err := d.transport.Send(ctx, msg)
	if err != nil {
		transportDown.Store(true)
		log.Printf("[sending.Dispatcher] campaign %s: transport error: %v", c.ID, err)
		return
	}
	if err := d.ledger.MarkDispatched(ctx, r.ID, res.Accepted, res.Reason); err != nil {
		log.Printf("[sending.Dispatcher] campaign %s: mark dispatched %s: %v", c.ID, r.ID, err)
	}
}

func (d *Dispatcher) finish(campaignID string) {
	if err := d.campaigns.MarkSent(context.Background(), campaignID); err != nil {
		log.Printf("[sending.Dispatcher] campaign %s: mark sent: %v", campaignID, err)
		return
	}
	log.Printf("[sending.Dispatcher] campaign %s: dispatch complete", campaignID)
}
