package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"sweetshop-backend/internal/models"
	"sweetshop-backend/internal/util"
)

// EventLog records which events have been handled locally so the relay
// worker does not duplicate side effects the HTTP path already performed.
type EventLog interface {
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// EventPublisher handles publishing order lifecycle events. Events published
// here had their notifications dispatched inline by the caller, so each is
// pre-marked in the event log before the relay worker can see it.
type EventPublisher struct {
	producer *Producer
	eventLog EventLog
}

// NewEventPublisher creates a new event publisher. eventLog may be nil.
func NewEventPublisher(producer *Producer, eventLog EventLog) *EventPublisher {
	return &EventPublisher{producer: producer, eventLog: eventLog}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	ep.claimLocal(ctx, event.EventID, event.EventType)
	return ep.producer.PublishEvent(ctx, event.Order.OrderNumber, event)
}

// PublishOrderPaid publishes OrderPaid event
func (ep *EventPublisher) PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	ep.claimLocal(ctx, event.EventID, event.EventType)
	return ep.producer.PublishEvent(ctx, event.Order.OrderNumber, event)
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	ep.claimLocal(ctx, event.EventID, event.EventType)
	return ep.producer.PublishEvent(ctx, event.OrderNumber, event)
}

func (ep *EventPublisher) claimLocal(ctx context.Context, eventID, eventType string) {
	if ep.eventLog == nil {
		return
	}
	if err := ep.eventLog.MarkEventProcessed(ctx, eventID, eventType); err != nil {
		util.GetLogger().Warn("Failed to pre-mark event as processed",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}

// EventHandler routes incoming order events to registered callbacks
type EventHandler struct {
	onOrderCreated       func(context.Context, *models.OrderCreatedEvent) error
	onOrderPaid          func(context.Context, *models.OrderPaidEvent) error
	onOrderStatusChanged func(context.Context, *models.OrderStatusChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderCreated registers a handler for OrderCreated events
func (eh *EventHandler) OnOrderCreated(handler func(context.Context, *models.OrderCreatedEvent) error) {
	eh.onOrderCreated = handler
}

// OnOrderPaid registers a handler for OrderPaid events
func (eh *EventHandler) OnOrderPaid(handler func(context.Context, *models.OrderPaidEvent) error) {
	eh.onOrderPaid = handler
}

// OnOrderStatusChanged registers a handler for OrderStatusChanged events
func (eh *EventHandler) OnOrderStatusChanged(handler func(context.Context, *models.OrderStatusChangedEvent) error) {
	eh.onOrderStatusChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderCreated:
		if eh.onOrderCreated != nil {
			var event models.OrderCreatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderCreated event: %w", err)
			}
			return eh.onOrderCreated(ctx, &event)
		}

	case models.EventTypeOrderPaid:
		if eh.onOrderPaid != nil {
			var event models.OrderPaidEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderPaid event: %w", err)
			}
			return eh.onOrderPaid(ctx, &event)
		}

	case models.EventTypeOrderStatusChanged:
		if eh.onOrderStatusChanged != nil {
			var event models.OrderStatusChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderStatusChanged event: %w", err)
			}
			return eh.onOrderStatusChanged(ctx, &event)
		}

	default:
		logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
