package worker

import (
	"context"

	"go.uber.org/zap"

	"sweetshop-backend/internal/broker"
	"sweetshop-backend/internal/models"
	"sweetshop-backend/internal/service"
	"sweetshop-backend/internal/util"
)

// EventLog tracks which broker events have already been relayed so the
// at-least-once consumer does not duplicate notifications.
type EventLog interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// NotificationWorker drains order lifecycle events from the broker and relays
// them to the notification dispatcher. Events the HTTP path already handled
// inline are deduplicated through the event log.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	notifier     service.Notifier
	eventLog     EventLog
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	consumer *broker.Consumer,
	notifier service.Notifier,
	eventLog EventLog,
) *NotificationWorker {
	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		notifier:     notifier,
		eventLog:     eventLog,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnOrderCreated(w.handleOrderCreated)
	w.eventHandler.OnOrderPaid(w.handleOrderPaid)
	w.eventHandler.OnOrderStatusChanged(w.handleStatusChanged)

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	fresh, err := w.claim(ctx, event.EventID, event.EventType)
	if err != nil || !fresh {
		return err
	}
	w.notifier.SendOrderConfirmation(event.Order)
	return nil
}

func (w *NotificationWorker) handleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	fresh, err := w.claim(ctx, event.EventID, event.EventType)
	if err != nil || !fresh {
		return err
	}
	w.notifier.SendPaymentConfirmation(event.Order)
	return nil
}

func (w *NotificationWorker) handleStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	fresh, err := w.claim(ctx, event.EventID, event.EventType)
	if err != nil || !fresh {
		return err
	}
	if event.Phone != "" {
		w.notifier.SendStatusUpdate(event.Phone, event.OrderNumber, event.NewStatus)
	}
	return nil
}

// claim marks the event processed and reports whether this worker is the
// first to see it.
func (w *NotificationWorker) claim(ctx context.Context, eventID, eventType string) (bool, error) {
	processed, err := w.eventLog.IsEventProcessed(ctx, eventID)
	if err != nil {
		return false, err
	}
	if processed {
		w.logger.Debug("Event already processed", zap.String("event_id", eventID))
		return false, nil
	}
	if err := w.eventLog.MarkEventProcessed(ctx, eventID, eventType); err != nil {
		return false, err
	}
	return true, nil
}
