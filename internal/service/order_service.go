package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sweetshop-backend/internal/delivery"
	"sweetshop-backend/internal/models"
	"sweetshop-backend/internal/store"
	"sweetshop-backend/internal/util"
)

// orderNumberRetries bounds regeneration attempts after a duplicate
// order-number collision.
const orderNumberRetries = 3

// OrderService validates order drafts and assembles persisted orders.
type OrderService struct {
	store    OrderStore
	resolver *delivery.Resolver
	notifier Notifier
	events   EventPublisher
	cache    IdempotencyCache
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service. events and cache may be nil.
func NewOrderService(
	store OrderStore,
	resolver *delivery.Resolver,
	notifier Notifier,
	events EventPublisher,
	cache IdempotencyCache,
) *OrderService {
	return &OrderService{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		events:   events,
		cache:    cache,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// ItemDraft is one line item of an order draft.
type ItemDraft struct {
	ProductID string `json:"product_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	UnitPrice int64  `json:"unit_price" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	ImageURL  string `json:"image_url"`
	Variant   string `json:"variant"`
}

// OrderDraft carries the checkout payload: the order shape without order
// number, timestamps, or payment fields.
type OrderDraft struct {
	Items           []ItemDraft    `json:"items" binding:"required,min=1"`
	ShippingAddress models.Address `json:"shipping" binding:"required"`
	BillingAddress  models.Address `json:"billing"`
	Subtotal        int64          `json:"subtotal" binding:"required"`
	ShippingCost    int64          `json:"shipping_cost"`
	Total           int64          `json:"total" binding:"required"`
	PaymentMethod   string         `json:"payment_method" binding:"required"`
	CouponCode      string         `json:"coupon_code"`
	OrderNumber     string         `json:"order_number"`
	IdempotencyKey  string         `json:"idempotency_key"`
}

// CreateOrder validates the draft, assembles the order aggregate, assigns an
// order number and persists everything atomically. Confirmation email/SMS and
// the OrderCreated event fire after commit, best-effort; their failures never
// surface here.
func (s *OrderService) CreateOrder(ctx context.Context, draft *OrderDraft) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if draft.IdempotencyKey != "" {
		if existing, err := s.lookupExisting(ctx, draft.IdempotencyKey); err != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		} else if existing != nil {
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", draft.IdempotencyKey),
				zap.String("order_number", existing.OrderNumber))
			return existing, nil
		}
	}

	if err := s.validateDraft(draft); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	quote := s.resolver.Quote(draft.ShippingAddress.Pincode, draft.Subtotal)
	if !quote.IsServiceable {
		util.OrdersFailedTotal.WithLabelValues("unserviceable").Inc()
		return nil, invalid("shipping.pincode", "pincode %s is not serviceable: %s",
			draft.ShippingAddress.Pincode, quote.Message)
	}
	if draft.ShippingCost != quote.DeliveryCharge {
		util.OrdersFailedTotal.WithLabelValues("shipping_mismatch").Inc()
		return nil, invalid("shipping_cost", "expected %d for zone %s, got %d",
			quote.DeliveryCharge, quote.Zone, draft.ShippingCost)
	}

	discount, err := s.resolveDiscount(ctx, draft)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("coupon").Inc()
		return nil, err
	}

	tax := draft.Total - (draft.Subtotal - discount) - draft.ShippingCost
	if tax < 0 {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, invalid("total", "total %d is less than subtotal - discount + shipping", draft.Total)
	}

	billing := draft.BillingAddress
	if billing == (models.Address{}) {
		billing = draft.ShippingAddress
	}

	order := &models.Order{
		Subtotal:        draft.Subtotal,
		Discount:        discount,
		ShippingCost:    draft.ShippingCost,
		Tax:             tax,
		Total:           draft.Total,
		CouponCode:      draft.CouponCode,
		PaymentMethod:   draft.PaymentMethod,
		PaymentStatus:   models.PaymentStatusUnpaid,
		Status:          models.OrderStatusPending,
		IdempotencyKey:  draft.IdempotencyKey,
		ShippingAddress: draft.ShippingAddress,
		BillingAddress:  billing,
	}
	order.Items = make([]models.OrderItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
			Variant:   item.Variant,
		})
	}

	if err := s.persistWithOrderNumber(ctx, order, draft.OrderNumber); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total", order.Total))

	if order.CouponCode != "" {
		if err := s.store.IncrementCouponUsage(ctx, order.CouponCode); err != nil {
			s.logger.Error("Failed to increment coupon usage",
				zap.String("coupon", order.CouponCode),
				zap.Error(err))
		}
	}

	if s.cache != nil && order.IdempotencyKey != "" {
		if err := s.cache.CacheOrderNumber(ctx, order.IdempotencyKey, order.OrderNumber, 24*time.Hour); err != nil {
			s.logger.Warn("Failed to cache idempotency key", zap.Error(err))
		}
	}

	s.notifier.SendOrderConfirmation(models.SnapshotOf(order))
	s.publishCreated(ctx, order)

	return order, nil
}

// GetOrder retrieves an order by its order number.
func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.store.GetOrderByNumber(ctx, orderNumber)
}

func (s *OrderService) lookupExisting(ctx context.Context, key string) (*models.Order, error) {
	if s.cache != nil {
		orderNumber, err := s.cache.LookupOrderNumber(ctx, key)
		if err != nil {
			s.logger.Warn("Idempotency cache lookup failed", zap.Error(err))
		} else if orderNumber != "" {
			return s.store.GetOrderByNumber(ctx, orderNumber)
		}
	}
	return s.store.GetOrderByIdempotencyKey(ctx, key)
}

func (s *OrderService) validateDraft(draft *OrderDraft) error {
	if len(draft.Items) == 0 {
		return invalid("items", "order must contain at least one item")
	}
	var itemsTotal int64
	for i, item := range draft.Items {
		if item.ProductID == "" {
			return invalid(fmt.Sprintf("items[%d].product_id", i), "product id is required")
		}
		if item.Name == "" {
			return invalid(fmt.Sprintf("items[%d].name", i), "name is required")
		}
		if item.UnitPrice <= 0 {
			return invalid(fmt.Sprintf("items[%d].unit_price", i), "unit price must be positive")
		}
		if item.Quantity <= 0 {
			return invalid(fmt.Sprintf("items[%d].quantity", i), "quantity must be positive")
		}
		itemsTotal += item.UnitPrice * int64(item.Quantity)
	}

	if draft.Subtotal <= 0 {
		return invalid("subtotal", "subtotal must be positive")
	}
	if draft.Subtotal != itemsTotal {
		return invalid("subtotal", "subtotal %d does not match item total %d", draft.Subtotal, itemsTotal)
	}
	if draft.ShippingCost < 0 {
		return invalid("shipping_cost", "shipping cost must not be negative")
	}
	if draft.Total <= 0 {
		return invalid("total", "total must be positive")
	}
	if !models.IsValidPaymentMethod(draft.PaymentMethod) {
		return invalid("payment_method", "%q is not an accepted payment method", draft.PaymentMethod)
	}

	ship := draft.ShippingAddress
	switch {
	case ship.Name == "":
		return invalid("shipping.name", "name is required")
	case ship.Line1 == "":
		return invalid("shipping.line1", "address line is required")
	case ship.City == "":
		return invalid("shipping.city", "city is required")
	case ship.State == "":
		return invalid("shipping.state", "state is required")
	}
	if ship.Phone == "" && ship.Email == "" {
		return invalid("shipping.phone", "a phone number or email is required")
	}
	return nil
}

func (s *OrderService) resolveDiscount(ctx context.Context, draft *OrderDraft) (int64, error) {
	if draft.CouponCode == "" {
		return 0, nil
	}

	coupon, err := s.store.GetCouponByCode(ctx, draft.CouponCode)
	if errors.Is(err, store.ErrCouponNotFound) {
		return 0, invalid("coupon_code", "coupon %q does not exist", draft.CouponCode)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up coupon: %w", err)
	}

	now := s.now()
	if !coupon.ValidAt(now) {
		return 0, invalid("coupon_code", "coupon %q is not valid right now", draft.CouponCode)
	}
	if coupon.Exhausted() {
		return 0, invalid("coupon_code", "coupon %q has reached its usage limit", draft.CouponCode)
	}
	if draft.Subtotal < coupon.MinOrderValue {
		return 0, invalid("coupon_code", "coupon %q needs a minimum order of %d", draft.CouponCode, coupon.MinOrderValue)
	}
	return coupon.DiscountFor(draft.Subtotal), nil
}

// persistWithOrderNumber assigns ORD-<epochMillis>-<seq> and stores the
// aggregate, regenerating the number on the rare unique-constraint collision.
func (s *OrderService) persistWithOrderNumber(ctx context.Context, order *models.Order, presetNumber string) error {
	if presetNumber != "" {
		order.OrderNumber = presetNumber
		if err := s.store.CreateOrder(ctx, order); err != nil {
			if errors.Is(err, store.ErrDuplicateOrderNumber) {
				return invalid("order_number", "order number %q already exists", presetNumber)
			}
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		seq, err := s.store.NextOrderSeq(ctx)
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}
		order.OrderNumber = fmt.Sprintf("ORD-%d-%d", s.now().UnixMilli(), seq)

		err = s.store.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrDuplicateOrderNumber) {
			return fmt.Errorf("failed to create order: %w", err)
		}
		lastErr = err
		s.logger.Warn("Order number collision, regenerating",
			zap.String("order_number", order.OrderNumber))
	}
	return fmt.Errorf("failed to create order after %d attempts: %w", orderNumberRetries, lastErr)
}

func (s *OrderService) publishCreated(ctx context.Context, order *models.Order) {
	if s.events == nil {
		return
	}
	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: s.now(),
		},
		Order: models.SnapshotOf(order),
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}
}
