package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sweetshop-backend/internal/delivery"
	"sweetshop-backend/internal/models"
	"sweetshop-backend/internal/service"
	"sweetshop-backend/internal/store"
)

// memStore is a minimal in-memory service.OrderStore for handler tests.
type memStore struct {
	seq    int64
	orders map[string]*models.Order
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]*models.Order)}
}

func (m *memStore) NextOrderSeq(context.Context) (int64, error) {
	m.seq++
	return m.seq, nil
}

func (m *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	if _, exists := m.orders[order.OrderNumber]; exists {
		return store.ErrDuplicateOrderNumber
	}
	order.ID = int64(len(m.orders) + 1)
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	m.orders[order.OrderNumber] = order
	return nil
}

func (m *memStore) GetOrderByNumber(_ context.Context, orderNumber string) (*models.Order, error) {
	o, ok := m.orders[orderNumber]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	return o, nil
}

func (m *memStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	for _, o := range m.orders {
		if o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, nil
}

func (m *memStore) SettlePayment(_ context.Context, orderNumber, paymentID, gatewayOrderID string) (bool, *models.Order, error) {
	o, ok := m.orders[orderNumber]
	if !ok {
		return false, nil, store.ErrOrderNotFound
	}
	if o.PaymentStatus == models.PaymentStatusPaid {
		return false, o, nil
	}
	o.PaymentStatus = models.PaymentStatusPaid
	o.PaymentID = paymentID
	o.GatewayOrderID = gatewayOrderID
	return true, o, nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, orderNumber, fromStatus, toStatus string) (bool, error) {
	o, ok := m.orders[orderNumber]
	if !ok {
		return false, store.ErrOrderNotFound
	}
	if o.Status != fromStatus {
		return false, nil
	}
	o.Status = toStatus
	return true, nil
}

func (m *memStore) GetCouponByCode(context.Context, string) (*models.Coupon, error) {
	return nil, store.ErrCouponNotFound
}

func (m *memStore) IncrementCouponUsage(context.Context, string) error {
	return nil
}

type noopNotifier struct{}

func (noopNotifier) SendOrderConfirmation(models.OrderSnapshot)   {}
func (noopNotifier) SendPaymentConfirmation(models.OrderSnapshot) {}
func (noopNotifier) SendStatusUpdate(string, string, string)      {}

type allowAllVerifier struct{ ok bool }

func (v allowAllVerifier) VerifySignature(_, _, _ string) bool { return v.ok }

func newTestRouter(t *testing.T, st *memStore, verifierOK bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver, err := delivery.NewResolver(delivery.DefaultZones())
	require.NoError(t, err)

	orderSvc := service.NewOrderService(st, resolver, noopNotifier{}, nil, nil)
	paymentSvc := service.NewPaymentService(st, allowAllVerifier{ok: verifierOK}, noopNotifier{}, nil, nil, 0)
	statusSvc := service.NewStatusService(st, noopNotifier{}, nil, nil, false)

	router := gin.New()
	NewHandler(orderSvc, paymentSvc, statusSvc, resolver).SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckDelivery(t *testing.T) {
	router := newTestRouter(t, newMemStore(), true)

	w := doJSON(router, http.MethodGet, "/api/v1/delivery/check?pincode=452010&amount=500", "")
	require.Equal(t, http.StatusOK, w.Code)

	var quote delivery.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.True(t, quote.IsServiceable)
	assert.Equal(t, "distant", quote.Zone)
	assert.Equal(t, int64(80), quote.DeliveryCharge)
}

func TestCheckDeliveryMalformedPincode(t *testing.T) {
	router := newTestRouter(t, newMemStore(), true)

	w := doJSON(router, http.MethodGet, "/api/v1/delivery/check?pincode=12345&amount=100", "")
	require.Equal(t, http.StatusOK, w.Code)

	var quote delivery.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.False(t, quote.IsServiceable)
	assert.Equal(t, "invalid", quote.Zone)
}

func TestCheckDeliveryBadAmount(t *testing.T) {
	router := newTestRouter(t, newMemStore(), true)

	w := doJSON(router, http.MethodGet, "/api/v1/delivery/check?pincode=452010&amount=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

const draftBody = `{
	"items": [{"product_id": "kaju-katli-250", "name": "Kaju Katli 250g", "unit_price": 150, "quantity": 2}],
	"shipping": {"name": "Asha Verma", "phone": "9876543210", "line1": "12 MG Road", "city": "Neemuch", "state": "MP", "pincode": "458441"},
	"subtotal": 300,
	"shipping_cost": 0,
	"total": 300,
	"payment_method": "upi"
}`

func TestCreateOrderEndpoint(t *testing.T) {
	st := newMemStore()
	router := newTestRouter(t, st, true)

	w := doJSON(router, http.MethodPost, "/api/v1/orders", draftBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.NotEmpty(t, order.OrderNumber)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Len(t, st.orders, 1)
}

func TestCreateOrderEndpointValidationError(t *testing.T) {
	router := newTestRouter(t, newMemStore(), true)

	body := strings.Replace(draftBody, `"pincode": "458441"`, `"pincode": "12"`, 1)
	w := doJSON(router, http.MethodPost, "/api/v1/orders", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "shipping.pincode")
}

func TestGetOrderEndpoint(t *testing.T) {
	st := newMemStore()
	router := newTestRouter(t, st, true)

	created := doJSON(router, http.MethodPost, "/api/v1/orders", draftBody)
	require.Equal(t, http.StatusCreated, created.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &order))

	w := doJSON(router, http.MethodGet, "/api/v1/orders/"+order.OrderNumber, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/orders/ORD-MISSING", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	st := newMemStore()
	router := newTestRouter(t, st, true)

	created := doJSON(router, http.MethodPost, "/api/v1/orders", draftBody)
	require.Equal(t, http.StatusCreated, created.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &order))

	body := `{"orderId": "` + order.OrderNumber + `", "paymentId": "pay_1", "signature": "sig", "razorpayOrderId": "rzp_1"}`
	w := doJSON(router, http.MethodPost, "/api/v1/payment/verify", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var settled models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settled))
	assert.Equal(t, models.PaymentStatusPaid, settled.PaymentStatus)
}

func TestVerifyPaymentEndpointBadSignature(t *testing.T) {
	st := newMemStore()
	router := newTestRouter(t, st, false)

	created := doJSON(router, http.MethodPost, "/api/v1/orders", draftBody)
	require.Equal(t, http.StatusCreated, created.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &order))

	body := `{"orderId": "` + order.OrderNumber + `", "paymentId": "pay_1", "signature": "bad", "razorpayOrderId": "rzp_1"}`
	w := doJSON(router, http.MethodPost, "/api/v1/payment/verify", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "could not be confirmed")
}

func TestVerifyPaymentEndpointUnknownOrder(t *testing.T) {
	router := newTestRouter(t, newMemStore(), true)

	body := `{"orderId": "ORD-MISSING", "paymentId": "pay_1", "signature": "sig", "razorpayOrderId": "rzp_1"}`
	w := doJSON(router, http.MethodPost, "/api/v1/payment/verify", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	st := newMemStore()
	router := newTestRouter(t, st, true)

	created := doJSON(router, http.MethodPost, "/api/v1/orders", draftBody)
	require.Equal(t, http.StatusCreated, created.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &order))

	w := doJSON(router, http.MethodPut, "/api/v1/orders/"+order.OrderNumber, `{"status": "processing"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Terminal regression is a conflict under the default table.
	doJSON(router, http.MethodPut, "/api/v1/orders/"+order.OrderNumber, `{"status": "delivered"}`)
	w = doJSON(router, http.MethodPut, "/api/v1/orders/"+order.OrderNumber, `{"status": "pending"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, http.MethodPut, "/api/v1/orders/ORD-MISSING", `{"status": "processing"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
