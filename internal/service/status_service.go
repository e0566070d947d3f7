package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sweetshop-backend/internal/models"
	"sweetshop-backend/internal/util"
)

// TransitionTable lists, per current status, the statuses an administrator
// may move an order to. The table is explicit configuration so the business
// decides which transitions are legal.
type TransitionTable map[string][]string

// Allowed reports whether the table permits from -> to.
func (t TransitionTable) Allowed(from, to string) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DefaultTransitions is the forward-only table: orders progress
// pending -> processing -> shipped -> delivered, cancellation is reachable
// from every non-terminal status, and delivered/cancelled are terminal.
func DefaultTransitions() TransitionTable {
	return TransitionTable{
		models.OrderStatusPending: {
			models.OrderStatusProcessing,
			models.OrderStatusShipped,
			models.OrderStatusDelivered,
			models.OrderStatusCancelled,
		},
		models.OrderStatusProcessing: {
			models.OrderStatusShipped,
			models.OrderStatusDelivered,
			models.OrderStatusCancelled,
		},
		models.OrderStatusShipped: {
			models.OrderStatusDelivered,
			models.OrderStatusCancelled,
		},
		models.OrderStatusDelivered: {},
		models.OrderStatusCancelled: {},
	}
}

// statusRank orders the forward progression for regression detection.
var statusRank = map[string]int{
	models.OrderStatusPending:    0,
	models.OrderStatusProcessing: 1,
	models.OrderStatusShipped:    2,
	models.OrderStatusDelivered:  3,
}

// StatusService applies administrator-driven order status transitions.
type StatusService struct {
	store            OrderStore
	notifier         Notifier
	events           EventPublisher
	transitions      TransitionTable
	allowRegressions bool
	logger           *zap.Logger
	now              func() time.Time
}

// NewStatusService creates a status service. When allowRegressions is set the
// transition table is bypassed and any status can be set from any status;
// regressive moves are logged for review either way.
func NewStatusService(
	store OrderStore,
	notifier Notifier,
	events EventPublisher,
	transitions TransitionTable,
	allowRegressions bool,
) *StatusService {
	if transitions == nil {
		transitions = DefaultTransitions()
	}
	return &StatusService{
		store:            store,
		notifier:         notifier,
		events:           events,
		transitions:      transitions,
		allowRegressions: allowRegressions,
		logger:           util.GetLogger(),
		now:              time.Now,
	}
}

// statusUpdateRetries bounds re-reads when a concurrent transition moves the
// order between our read and our conditional write.
const statusUpdateRetries = 3

// Transition moves an order to newStatus. A no-op transition persists nothing
// and sends nothing. On a real change with a shipping phone present, exactly
// one best-effort status SMS is attempted. The write is conditional on the
// status it was checked against, so concurrent duplicate requests collapse to
// one applied change and one no-op.
func (s *StatusService) Transition(ctx context.Context, orderNumber, newStatus string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "StatusService.Transition")
	defer span.End()

	if !models.IsValidStatus(newStatus) {
		return nil, invalid("status", "%q is not a known order status", newStatus)
	}

	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < statusUpdateRetries; attempt++ {
		oldStatus := order.Status
		if oldStatus == newStatus {
			return order, nil
		}

		if regressive(oldStatus, newStatus) {
			s.logger.Warn("Regressive status transition requested",
				zap.String("order_number", orderNumber),
				zap.String("from", oldStatus),
				zap.String("to", newStatus))
		}
		if !s.allowRegressions && !s.transitions.Allowed(oldStatus, newStatus) {
			util.StatusTransitionsRejected.Inc()
			return nil, &TransitionError{From: oldStatus, To: newStatus}
		}

		updated, err := s.store.UpdateOrderStatus(ctx, orderNumber, oldStatus, newStatus)
		if err != nil {
			return nil, err
		}
		if !updated {
			// Lost the race; re-read and re-evaluate against the fresh status.
			order, err = s.store.GetOrderByNumber(ctx, orderNumber)
			if err != nil {
				return nil, err
			}
			continue
		}
		order.Status = newStatus
		order.UpdatedAt = s.now()

		util.StatusTransitionsTotal.WithLabelValues(oldStatus, newStatus).Inc()
		s.logger.Info("Order status changed",
			zap.String("order_number", orderNumber),
			zap.String("from", oldStatus),
			zap.String("to", newStatus))

		if order.ShippingAddress.Phone != "" {
			s.notifier.SendStatusUpdate(order.ShippingAddress.Phone, orderNumber, newStatus)
		}
		s.publishStatusChanged(ctx, order, oldStatus, newStatus)

		return order, nil
	}
	return nil, fmt.Errorf("order %s status kept changing concurrently, giving up after %d attempts",
		orderNumber, statusUpdateRetries)
}

// regressive reports whether the move walks the forward progression
// backwards, e.g. delivered -> processing. Cancellation is not a regression.
func regressive(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank < fromRank
}

func (s *StatusService) publishStatusChanged(ctx context.Context, order *models.Order, oldStatus, newStatus string) {
	if s.events == nil {
		return
	}
	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: s.now(),
		},
		OrderNumber: order.OrderNumber,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		Phone:       order.ShippingAddress.Phone,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
}
