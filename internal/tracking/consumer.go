package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/ignite/nps-engine/internal/service/ledger"
)

// Consumer drains the tracking queue into the recipient ledger.
type Consumer struct {
	sqsClient *sqs.Client
	queueURL  string
	recorder  Recorder
	done      chan struct{}
}

func NewConsumer(sqsClient *sqs.Client, queueURL string, recorder Recorder) *Consumer {
	return &Consumer{
		sqsClient: sqsClient,
		queueURL:  queueURL,
		recorder:  recorder,
		done:      make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	log.Printf("[tracking.Consumer] started (queue=%s)", c.queueURL)
	go c.poll(ctx)
}

func (c *Consumer) Stop() {
	close(c.done)
}

func (c *Consumer) poll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		out, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[tracking.Consumer] receive: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, msg := range out.Messages {
			var evt Event
			if err := json.Unmarshal([]byte(*msg.Body), &evt); err != nil {
				log.Printf("[tracking.Consumer] bad message, dropping: %v", err)
				c.deleteMessage(ctx, msg.ReceiptHandle)
				continue
			}

			if err := c.process(ctx, evt); err != nil {
				// Unknown recipients are dropped: replaying them would
				// poison the queue. Everything else stays for redelivery.
				if errors.Is(err, ledger.ErrNotFound) {
					log.Printf("[tracking.Consumer] unknown recipient %s, dropping", evt.RecipientID)
					c.deleteMessage(ctx, msg.ReceiptHandle)
					continue
				}
				log.Printf("[tracking.Consumer] process %s: %v", evt.EventType, err)
				continue
			}
			c.deleteMessage(ctx, msg.ReceiptHandle)
		}
	}
}

func (c *Consumer) process(ctx context.Context, evt Event) error {
	if !evt.EventType.Valid() {
		log.Printf("[tracking.Consumer] unknown event type %q, dropping", evt.EventType)
		return nil
	}
	_, err := c.recorder.RecordEvent(ctx, evt.input())
	return err
}

func (c *Consumer) deleteMessage(ctx context.Context, handle *string) {
	c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: handle,
	})
}
