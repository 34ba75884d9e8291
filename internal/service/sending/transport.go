package sending

import (
	"context"
	"time"
)

// Message is one email handed to the transport.
type Message struct {
	CampaignID  string
	RecipientID string
	Email       string
	FromName    string
	FromEmail   string
	Subject     string
	HTMLContent string
	TextContent string
}

// Result is the provider's verdict on a single message. Accepted=false means
// the provider took the request but rejected this message; that recipient
// will not be retried.
type Result struct {
	Accepted  bool
	MessageID string
	Reason    string
	SentAt    time.Time
}

// Transport delivers email to a provider. A non-nil error means the provider
// could not be reached at all and the attempt may be retried later; a Result
// with Accepted=false is a permanent per-message rejection.
type Transport interface {
	Send(ctx context.Context, msg *Message) (*Result, error)
}
