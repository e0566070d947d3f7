package models

import "time"

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment statuses
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Payment methods
const (
	PaymentMethodCOD  = "cod"
	PaymentMethodCard = "card"
	PaymentMethodUPI  = "upi"
)

// ValidStatuses lists every order status the state machine knows about.
var ValidStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidPaymentMethod reports whether m is an accepted payment method.
func IsValidPaymentMethod(m string) bool {
	return m == PaymentMethodCOD || m == PaymentMethodCard || m == PaymentMethodUPI
}

// Address is a shipping or billing address snapshot stored with the order.
type Address struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Order is the persisted order aggregate. All money amounts are in the
// smallest currency unit. Item data is snapshotted at creation time and is
// never re-derived from the live catalog.
type Order struct {
	ID             int64     `db:"id" json:"id"`
	OrderNumber    string    `db:"order_number" json:"order_number"`
	Subtotal       int64     `db:"subtotal" json:"subtotal"`
	Discount       int64     `db:"discount" json:"discount"`
	ShippingCost   int64     `db:"shipping_cost" json:"shipping_cost"`
	Tax            int64     `db:"tax" json:"tax"`
	Total          int64     `db:"total" json:"total"`
	CouponCode     string    `db:"coupon_code" json:"coupon_code,omitempty"`
	PaymentMethod  string    `db:"payment_method" json:"payment_method"`
	PaymentStatus  string    `db:"payment_status" json:"payment_status"`
	PaymentID      string    `db:"payment_id" json:"payment_id,omitempty"`
	GatewayOrderID string    `db:"gateway_order_id" json:"gateway_order_id,omitempty"`
	Status         string    `db:"status" json:"status"`
	IdempotencyKey string    `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	ShippingAddress Address     `db:"shipping_address" json:"shipping_address"`
	BillingAddress  Address     `db:"billing_address" json:"billing_address"`
	Items           []OrderItem `json:"items"`
}

// OrderItem is a line item snapshot within an order.
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   int64  `db:"order_id" json:"order_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
	Quantity  int    `db:"quantity" json:"quantity"`
	ImageURL  string `db:"image_url" json:"image_url,omitempty"`
	Variant   string `db:"variant" json:"variant,omitempty"`
}

// Coupon discount types
const (
	DiscountTypePercent = "percent"
	DiscountTypeFlat    = "flat"
)

// Coupon is a promotional code the order total calculation consults.
type Coupon struct {
	ID            int64      `db:"id" json:"id"`
	Code          string     `db:"code" json:"code"`
	DiscountType  string     `db:"discount_type" json:"discount_type"`
	DiscountValue int64      `db:"discount_value" json:"discount_value"`
	MinOrderValue int64      `db:"min_order_value" json:"min_order_value"`
	ValidFrom     *time.Time `db:"valid_from" json:"valid_from,omitempty"`
	ValidTo       *time.Time `db:"valid_to" json:"valid_to,omitempty"`
	UsageLimit    int        `db:"usage_limit" json:"usage_limit"`
	UsedCount     int        `db:"used_count" json:"used_count"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// DiscountFor returns the discount the coupon grants on the given subtotal.
func (c *Coupon) DiscountFor(subtotal int64) int64 {
	switch c.DiscountType {
	case DiscountTypePercent:
		return subtotal * c.DiscountValue / 100
	case DiscountTypeFlat:
		if c.DiscountValue > subtotal {
			return subtotal
		}
		return c.DiscountValue
	}
	return 0
}

// ValidAt reports whether the coupon's validity window covers t.
func (c *Coupon) ValidAt(t time.Time) bool {
	if c.ValidFrom != nil && t.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && t.After(*c.ValidTo) {
		return false
	}
	return true
}

// Exhausted reports whether the coupon's usage cap has been reached.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}

// ProcessedEvent for notification-worker idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
