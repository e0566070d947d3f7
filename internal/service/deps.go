package service

import (
	"context"
	"time"

	"sweetshop-backend/internal/models"
)

// OrderStore is the persistence surface the order services depend on.
// *store.Store implements it; tests substitute an in-memory fake.
type OrderStore interface {
	NextOrderSeq(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	SettlePayment(ctx context.Context, orderNumber, paymentID, gatewayOrderID string) (bool, *models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderNumber, fromStatus, toStatus string) (bool, error)
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementCouponUsage(ctx context.Context, code string) error
}

// Notifier is the fire-and-forget notification collaborator. Implementations
// must never block the caller on delivery.
type Notifier interface {
	SendOrderConfirmation(snap models.OrderSnapshot)
	SendPaymentConfirmation(snap models.OrderSnapshot)
	SendStatusUpdate(phone, orderNumber, newStatus string)
}

// EventPublisher publishes order lifecycle events. Publishing is best-effort
// from the services' point of view; errors are logged, never surfaced.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// SettleLocker serializes concurrent payment callbacks for one order.
type SettleLocker interface {
	AcquireSettleLock(ctx context.Context, orderNumber string, ttl time.Duration) (bool, error)
	ReleaseSettleLock(ctx context.Context, orderNumber string) error
}

// IdempotencyCache short-circuits repeat checkout submissions before the
// database lookup.
type IdempotencyCache interface {
	CacheOrderNumber(ctx context.Context, idempotencyKey, orderNumber string, ttl time.Duration) error
	LookupOrderNumber(ctx context.Context, idempotencyKey string) (string, error)
}
