// Package ingest feeds rig events from an SQS queue into the lot service,
// for rigs that publish through AWS IoT rules instead of calling /update.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Cuongtutrinh/smart-parking-server/internal/config"
	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

var errRejected = errors.New("message rejected")

// SQSAPI is the subset of the SQS client the consumer uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Applier is satisfied by *lot.Service.
type Applier interface {
	Apply(ev lot.Event) (lot.Snapshot, lot.Outcome, error)
}

// Recorder receives one status per handled message: "applied", "rejected"
// or "failed".
type Recorder interface {
	IngestResult(status string)
}

// NewSQSClient builds a client from the default AWS credential chain.
func NewSQSClient(ctx context.Context, region string) (*sqs.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sqs.NewFromConfig(cfg), nil
}

type Consumer struct {
	client      SQSAPI
	svc         Applier
	recorder    Recorder
	queueURL    string
	waitTime    time.Duration
	maxMessages int32
	retryDelay  time.Duration
	threshold   int
	health      *sourceHealth
}

func NewConsumer(client SQSAPI, svc Applier, cfg config.SQSConfig) *Consumer {
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 3
	}
	maxMessages := cfg.MaxMessages
	if maxMessages <= 0 || maxMessages > 10 {
		maxMessages = 10
	}
	return &Consumer{
		client:      client,
		svc:         svc,
		queueURL:    cfg.QueueURL,
		waitTime:    cfg.WaitTime,
		maxMessages: maxMessages,
		retryDelay:  cfg.RetryDelay,
		threshold:   threshold,
		health:      newSourceHealth(),
	}
}

// SetRecorder reports per-message results to r.
func (c *Consumer) SetRecorder(r Recorder) {
	c.recorder = r
}

// Health returns the current source health.
func (c *Consumer) Health() Health {
	return c.health.snapshot("sqs", c.threshold)
}

// Start polls the queue until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	log.Printf("sqs: consuming %s", c.queueURL)
	for {
		if ctx.Err() != nil {
			log.Printf("sqs: stopped")
			return
		}
		if err := c.poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.health.recordReceiveFailure(err)
			log.Printf("sqs: receive error (%s): %v", c.health.status(c.threshold), err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
			}
		}
	}
}

// poll runs one long-poll receive and handles every returned message.
func (c *Consumer) poll(ctx context.Context) error {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: c.maxMessages,
		WaitTimeSeconds:     int32(c.waitTime / time.Second),
	})
	if err != nil {
		return err
	}
	c.health.recordReceiveSuccess()

	for _, msg := range out.Messages {
		c.handle(ctx, msg)
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg types.Message) {
	err := c.process(msg)
	switch {
	case err == nil:
		c.health.recordApplied()
		c.record("applied")
	case errors.Is(err, errRejected):
		// Malformed messages would be redelivered forever, so drop them.
		c.health.recordRejected(err)
		c.record("rejected")
		log.Printf("sqs: %s: %v", aws.ToString(msg.MessageId), err)
	default:
		// Leave it on the queue; it reappears after the visibility timeout.
		c.record("failed")
		log.Printf("sqs: %s: %v, will retry", aws.ToString(msg.MessageId), err)
		return
	}
	c.delete(ctx, msg.ReceiptHandle)
}

func (c *Consumer) process(msg types.Message) error {
	body := strings.TrimSpace(aws.ToString(msg.Body))
	if body == "" {
		return fmt.Errorf("%w: empty body", errRejected)
	}
	var ev lot.Event
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		return fmt.Errorf("%w: %v", errRejected, err)
	}
	ev.Kind = lot.Kind(strings.TrimSpace(string(ev.Kind)))
	if ev.Kind == "" {
		return fmt.Errorf("%w: missing type", errRejected)
	}
	if _, _, err := c.svc.Apply(ev); err != nil {
		return fmt.Errorf("apply %s: %w", ev.Kind, err)
	}
	return nil
}

func (c *Consumer) delete(ctx context.Context, receipt *string) {
	if receipt == nil {
		log.Printf("sqs: message without receipt handle, cannot delete")
		return
	}
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receipt,
	})
	if err != nil {
		log.Printf("sqs: delete error: %v", err)
	}
}

func (c *Consumer) record(status string) {
	if c.recorder != nil {
		c.recorder.IngestResult(status)
	}
}
