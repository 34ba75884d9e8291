package sending

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ignite/nps-engine/internal/config"
	"github.com/ignite/nps-engine/internal/pkg/logger"
)

// SESTransport delivers email through AWS SES using the SDK v2.
type SESTransport struct {
	client *sesv2.Client
}

// NewSESTransport creates an SES transport from static credentials.
func NewSESTransport(ctx context.Context, cfg config.SESConfig) (*SESTransport, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESTransport{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// Send delivers one message. Provider-side rejections (bad address, content
// rejected) come back as a non-accepted Result; anything else is a transport
// error and the caller may retry.
func (t *SESTransport) Send(ctx context.Context, msg *Message) (*Result, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)),
		Destination:      &types.Destination{ToAddresses: []string{msg.Email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTMLContent), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("campaign_id"), Value: aws.String(msg.CampaignID)},
			{Name: aws.String("recipient_id"), Value: aws.String(msg.RecipientID)},
		},
	}
	if msg.TextContent != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.TextContent), Charset: aws.String("UTF-8")}
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		var rejected *types.MessageRejected
		var badReq *types.BadRequestException
		if errors.As(err, &rejected) || errors.As(err, &badReq) {
			log.Printf("[sending.SES] rejected %s: %v", logger.RedactEmail(msg.Email), err)
			return &Result{Accepted: false, Reason: err.Error()}, nil
		}
		return nil, fmt.Errorf("ses send: %w", err)
	}

	messageID := ""
	if out.MessageId != nil {
		messageID = *out.MessageId
	}
	log.Printf("[sending.SES] sent to %s (id: %s)", logger.RedactEmail(msg.Email), messageID)

	return &Result{Accepted: true, MessageID: messageID, SentAt: time.Now().UTC()}, nil
}
