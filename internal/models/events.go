package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderPaid          = "ORDER_PAID"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderSnapshot is the slice of an order that notification sinks need.
type OrderSnapshot struct {
	OrderNumber   string      `json:"order_number"`
	CustomerName  string      `json:"customer_name"`
	Email         string      `json:"email,omitempty"`
	Phone         string      `json:"phone,omitempty"`
	Total         int64       `json:"total"`
	PaymentMethod string      `json:"payment_method"`
	Items         []OrderItem `json:"items,omitempty"`
}

// SnapshotOf extracts the notification snapshot from a persisted order.
func SnapshotOf(o *Order) OrderSnapshot {
	return OrderSnapshot{
		OrderNumber:   o.OrderNumber,
		CustomerName:  o.ShippingAddress.Name,
		Email:         o.ShippingAddress.Email,
		Phone:         o.ShippingAddress.Phone,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Items:         o.Items,
	}
}

// OrderCreatedEvent published when an order is persisted
type OrderCreatedEvent struct {
	BaseEvent
	Order OrderSnapshot `json:"order"`
}

// OrderPaidEvent published when a payment callback settles an order
type OrderPaidEvent struct {
	BaseEvent
	Order     OrderSnapshot `json:"order"`
	PaymentID string        `json:"payment_id"`
}

// OrderStatusChangedEvent published on an admin status transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
	Phone       string `json:"phone,omitempty"`
}
