package sampleapp

import (
	"context"
	"encoding/json"

	"github.com/advdv/sutest/di"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// EventItemAdded is the type of the event published for a new item.
const EventItemAdded = "item.added"

// ItemEvents publishes changes to items.
type ItemEvents interface {
	ItemAdded(ctx context.Context, it Item) error
}

// QueueAPI is the part of the SQS client that sends messages.
type QueueAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// EventOptions configures where item events go.
type EventOptions struct {
	QueueURL string `validate:"required,url"`
}

// SQSItemEvents sends item events to an SQS queue.
type SQSItemEvents struct {
	api  QueueAPI
	opts *di.Options[EventOptions]
}

// NewSQSItemEvents inits the publisher.
func NewSQSItemEvents(api QueueAPI, opts *di.Options[EventOptions]) *SQSItemEvents {
	return &SQSItemEvents{api: api, opts: opts}
}

// ItemAdded implements [ItemEvents].
func (e *SQSItemEvents) ItemAdded(ctx context.Context, it Item) error {
	opts, err := e.opts.Value()
	if err != nil {
		return err
	}

	body, err := json.Marshal(it)
	if err != nil {
		return errors.Wrap(err, "failed to encode item")
	}

	if _, err := e.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(opts.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(EventItemAdded)},
		},
	}); err != nil {
		return errors.Wrapf(err, "failed to publish %s", EventItemAdded)
	}

	return nil
}

// LogItemEvents writes item events to the log.
type LogItemEvents struct {
	logs *zap.Logger
}

// NewLogItemEvents inits the publisher.
func NewLogItemEvents(logs *zap.Logger) *LogItemEvents {
	return &LogItemEvents{logs: logs}
}

// ItemAdded implements [ItemEvents].
func (e *LogItemEvents) ItemAdded(_ context.Context, it Item) error {
	e.logs.Info(EventItemAdded, zap.String("id", it.ID), zap.String("name", it.Name))
	return nil
}
