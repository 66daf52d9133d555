// Package eventbridge publishes domain events to an AWS EventBridge bus.
package eventbridge

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"careerlens/application/ports"
	"careerlens/domain/events"
	pkgerrors "careerlens/pkg/errors"
)

// putEventsLimit is the EventBridge PutEvents batch ceiling
const putEventsLimit = 10

// Publisher implements ports.EventBus on EventBridge. Subscriptions are
// managed externally through EventBridge rules, not in-process.
type Publisher struct {
	client       *awseventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher creates an EventBridge publisher
func NewPublisher(client *awseventbridge.Client, eventBusName string, logger *zap.Logger) ports.EventBus {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in batches of up to 10 entries per request
func (p *Publisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for start := 0; start < len(batch); start += putEventsLimit {
		end := start + putEventsLimit
		if end > len(batch) {
			end = len(batch)
		}

		entries := make([]types.PutEventsRequestEntry, 0, end-start)
		for _, event := range batch[start:end] {
			detail, err := json.Marshal(event)
			if err != nil {
				return pkgerrors.NewExternalError("eventbridge", err)
			}
			entries = append(entries, types.PutEventsRequestEntry{
				EventBusName: aws.String(p.eventBusName),
				Source:       aws.String(events.SourceBackend),
				DetailType:   aws.String(event.GetEventType()),
				Detail:       aws.String(string(detail)),
			})
		}

		out, err := p.client.PutEvents(ctx, &awseventbridge.PutEventsInput{
			Entries: entries,
		})
		if err != nil {
			return pkgerrors.NewExternalError("eventbridge", err)
		}
		if out.FailedEntryCount > 0 {
			for _, entry := range out.Entries {
				if entry.ErrorCode != nil {
					p.logger.Error("event entry failed",
						zap.String("errorCode", aws.ToString(entry.ErrorCode)),
						zap.String("errorMessage", aws.ToString(entry.ErrorMessage)))
				}
			}
			return pkgerrors.NewExternalError("eventbridge",
				pkgerrors.NewInternalError("some events failed to publish"))
		}
	}
	return nil
}

// Subscribe is a no-op: EventBridge subscriptions are rules configured in
// infrastructure, not registered at runtime
func (p *Publisher) Subscribe(eventType string, handler ports.EventHandler) error {
	p.logger.Warn("Subscribe called on EventBridge publisher; subscriptions are managed externally",
		zap.String("eventType", eventType))
	return nil
}

// Unsubscribe is a no-op for the same reason as Subscribe
func (p *Publisher) Unsubscribe(eventType string, handler ports.EventHandler) error {
	return nil
}
