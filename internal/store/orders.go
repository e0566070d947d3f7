package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sweetshop-backend/internal/models"
)

// ErrOrderNotFound is returned when no order exists for the given number.
var ErrOrderNotFound = errors.New("order not found")

// ErrDuplicateOrderNumber is returned when the unique constraint on
// order_number rejects an insert. The caller regenerates the number and
// retries.
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

// NextOrderSeq returns the next value of the order number sequence. The
// sequence is database-atomic, so concurrent creations never observe the
// same value.
func (s *Store) NextOrderSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.GetContext(ctx, &seq, "SELECT nextval('order_number_seq')")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch order sequence: %w", err)
	}
	return seq, nil
}

// CreateOrder persists an order and its items in a single transaction.
// Either the full aggregate is durable or nothing is.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (order_number, subtotal, discount, shipping_cost, tax, total,
			coupon_code, payment_method, payment_status, status, idempotency_key,
			shipping_address, billing_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	row := tx.QueryRowxContext(ctx, query,
		order.OrderNumber, order.Subtotal, order.Discount, order.ShippingCost,
		order.Tax, order.Total, order.CouponCode, order.PaymentMethod,
		order.PaymentStatus, order.Status, order.IdempotencyKey,
		order.ShippingAddress, order.BillingAddress)
	if err := row.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "orders_order_number_key" {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, unit_price, quantity, image_url, variant)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.GetContext(ctx, &item.ID, itemQuery,
			item.OrderID, item.ProductID, item.Name, item.UnitPrice,
			item.Quantity, item.ImageURL, item.Variant); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByNumber retrieves an order with its items
func (s *Store) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE order_number = $1", orderNumber)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves a previously created order for the key,
// or nil when none exists.
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SettlePayment marks an order paid if and only if it is still unpaid.
// Returns (true, order) on the first settle and (false, order) when the order
// was already paid, so repeat gateway callbacks do not re-fire side effects.
func (s *Store) SettlePayment(ctx context.Context, orderNumber, paymentID, gatewayOrderID string) (bool, *models.Order, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1, payment_id = $2, gateway_order_id = $3, updated_at = NOW()
		WHERE order_number = $4 AND payment_status = $5`,
		models.PaymentStatusPaid, paymentID, gatewayOrderID,
		orderNumber, models.PaymentStatusUnpaid)
	if err != nil {
		return false, nil, fmt.Errorf("failed to settle payment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, nil, err
	}

	order, err := s.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		return false, nil, err
	}
	return affected == 1, order, nil
}

// UpdateOrderStatus moves an order to toStatus if and only if it is still in
// fromStatus. Returns false when the row exists but its status moved in the
// meantime, so the caller re-reads and re-evaluates against the fresh status.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderNumber, fromStatus, toStatus string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE order_number = $2 AND status = $3`,
		toStatus, orderNumber, fromStatus)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// GetOrdersByStatus lists orders in a given status, newest first.
func (s *Store) GetOrdersByStatus(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC", status)
	return orders, err
}

func (s *Store) loadItems(ctx context.Context, order *models.Order) error {
	return s.db.SelectContext(ctx, &order.Items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", order.ID)
}
