package service

import (
	"context"
	"sync"
	"time"

	"sweetshop-backend/internal/models"
	"sweetshop-backend/internal/store"
)

// fakeStore is an in-memory OrderStore for service tests.
type fakeStore struct {
	mu         sync.Mutex
	seq        int64
	orders     map[string]*models.Order
	coupons    map[string]*models.Coupon
	couponUses map[string]int
	// forceDuplicates makes the next n CreateOrder calls fail with a
	// duplicate order-number collision.
	forceDuplicates int
	createErr       error
	settleErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:     make(map[string]*models.Order),
		coupons:    make(map[string]*models.Coupon),
		couponUses: make(map[string]int),
	}
}

func (f *fakeStore) NextOrderSeq(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.forceDuplicates > 0 {
		f.forceDuplicates--
		return store.ErrDuplicateOrderNumber
	}
	if _, exists := f.orders[order.OrderNumber]; exists {
		return store.ErrDuplicateOrderNumber
	}
	order.ID = int64(len(f.orders) + 1)
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	f.orders[order.OrderNumber] = &cp
	return nil
}

func (f *fakeStore) GetOrderByNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderNumber]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SettlePayment(_ context.Context, orderNumber, paymentID, gatewayOrderID string) (bool, *models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settleErr != nil {
		return false, nil, f.settleErr
	}
	o, ok := f.orders[orderNumber]
	if !ok {
		return false, nil, store.ErrOrderNotFound
	}
	if o.PaymentStatus == models.PaymentStatusPaid {
		cp := *o
		return false, &cp, nil
	}
	o.PaymentStatus = models.PaymentStatusPaid
	o.PaymentID = paymentID
	o.GatewayOrderID = gatewayOrderID
	o.UpdatedAt = time.Now()
	cp := *o
	return true, &cp, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderNumber, fromStatus, toStatus string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderNumber]
	if !ok {
		return false, store.ErrOrderNotFound
	}
	if o.Status != fromStatus {
		return false, nil
	}
	o.Status = toStatus
	o.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeStore) GetCouponByCode(_ context.Context, code string) (*models.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[code]
	if !ok {
		return nil, store.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) IncrementCouponUsage(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.couponUses[code]++
	return nil
}

// fakeNotifier counts notification attempts per kind.
type fakeNotifier struct {
	mu                   sync.Mutex
	orderConfirmations   []models.OrderSnapshot
	paymentConfirmations []models.OrderSnapshot
	statusUpdates        []string
	statusPhones         []string
}

func (n *fakeNotifier) SendOrderConfirmation(snap models.OrderSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orderConfirmations = append(n.orderConfirmations, snap)
}

func (n *fakeNotifier) SendPaymentConfirmation(snap models.OrderSnapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paymentConfirmations = append(n.paymentConfirmations, snap)
}

func (n *fakeNotifier) SendStatusUpdate(phone, orderNumber, newStatus string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusPhones = append(n.statusPhones, phone)
	n.statusUpdates = append(n.statusUpdates, newStatus)
}

// fakeEvents records published events; err forces publishing failures.
type fakeEvents struct {
	mu      sync.Mutex
	created []*models.OrderCreatedEvent
	paid    []*models.OrderPaidEvent
	changed []*models.OrderStatusChangedEvent
	err     error
}

func (e *fakeEvents) PublishOrderCreated(_ context.Context, event *models.OrderCreatedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.created = append(e.created, event)
	return nil
}

func (e *fakeEvents) PublishOrderPaid(_ context.Context, event *models.OrderPaidEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.paid = append(e.paid, event)
	return nil
}

func (e *fakeEvents) PublishOrderStatusChanged(_ context.Context, event *models.OrderStatusChangedEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.changed = append(e.changed, event)
	return nil
}

// fakeVerifier accepts or rejects every signature.
type fakeVerifier struct {
	ok bool
}

func (v *fakeVerifier) VerifySignature(_, _, _ string) bool {
	return v.ok
}

// fakeLocker records lock traffic.
type fakeLocker struct {
	mu       sync.Mutex
	acquired []string
	released []string
	denied   bool
}

func (l *fakeLocker) AcquireSettleLock(_ context.Context, orderNumber string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denied {
		return false, nil
	}
	l.acquired = append(l.acquired, orderNumber)
	return true, nil
}

func (l *fakeLocker) ReleaseSettleLock(_ context.Context, orderNumber string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released = append(l.released, orderNumber)
	return nil
}
