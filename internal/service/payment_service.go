package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sweetshop-backend/internal/gateway"
	"sweetshop-backend/internal/models"
	"sweetshop-backend/internal/store"
	"sweetshop-backend/internal/util"
)

// PaymentService reconciles payment gateway callbacks against persisted
// orders.
type PaymentService struct {
	store    OrderStore
	verifier gateway.Verifier
	notifier Notifier
	events   EventPublisher
	locker   SettleLocker
	lockTTL  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService creates a new payment service. events and locker may be
// nil.
func NewPaymentService(
	store OrderStore,
	verifier gateway.Verifier,
	notifier Notifier,
	events EventPublisher,
	locker SettleLocker,
	lockTTL time.Duration,
) *PaymentService {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &PaymentService{
		store:    store,
		verifier: verifier,
		notifier: notifier,
		events:   events,
		locker:   locker,
		lockTTL:  lockTTL,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// VerifyAndSettle validates the gateway signature and marks the order paid
// exactly once. A bad signature returns ErrVerificationFailed without
// touching the order; an unknown order number returns store.ErrOrderNotFound.
// Repeat callbacks for an already-settled order are acknowledged without
// re-firing confirmation side effects.
func (s *PaymentService) VerifyAndSettle(ctx context.Context, orderNumber, paymentID, signature, gatewayOrderID string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyAndSettle")
	defer span.End()

	if !s.verifier.VerifySignature(gatewayOrderID, paymentID, signature) {
		util.PaymentVerificationsFailed.WithLabelValues("bad_signature").Inc()
		s.logger.Warn("Payment signature verification failed",
			zap.String("order_number", orderNumber),
			zap.String("payment_id", paymentID))
		return nil, ErrVerificationFailed
	}

	if s.locker != nil {
		acquired, err := s.locker.AcquireSettleLock(ctx, orderNumber, s.lockTTL)
		if err != nil {
			s.logger.Warn("Settle lock unavailable, relying on conditional update",
				zap.String("order_number", orderNumber),
				zap.Error(err))
		} else if acquired {
			defer func() {
				if err := s.locker.ReleaseSettleLock(context.Background(), orderNumber); err != nil {
					s.logger.Warn("Failed to release settle lock", zap.Error(err))
				}
			}()
		}
	}

	settled, order, err := s.store.SettlePayment(ctx, orderNumber, paymentID, gatewayOrderID)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			util.PaymentVerificationsFailed.WithLabelValues("order_missing").Inc()
		} else {
			util.PaymentVerificationsFailed.WithLabelValues("store_error").Inc()
		}
		return nil, err
	}

	if !settled {
		util.DuplicateSettleCallbacks.Inc()
		s.logger.Info("Repeat payment callback for settled order",
			zap.String("order_number", orderNumber),
			zap.String("payment_id", order.PaymentID))
		return order, nil
	}

	util.OrdersSettledTotal.Inc()
	s.logger.Info("Payment settled",
		zap.String("order_number", orderNumber),
		zap.String("payment_id", paymentID))

	s.notifier.SendPaymentConfirmation(models.SnapshotOf(order))
	s.publishPaid(ctx, order)

	return order, nil
}

func (s *PaymentService) publishPaid(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}
	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPaid,
			Timestamp: s.now(),
		},
		Order:     models.SnapshotOf(order),
		PaymentID: order.PaymentID,
	}
	if err := s.events.PublishOrderPaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPaid event", zap.Error(err))
	}
}
