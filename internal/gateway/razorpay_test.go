package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signPayload(secret, gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := NewClient("key", "topsecret", "http://localhost")

	sig := signPayload("topsecret", "order_abc", "pay_123")
	assert.True(t, c.VerifySignature("order_abc", "pay_123", sig))
}

func TestVerifySignatureRejectsTampering(t *testing.T) {
	c := NewClient("key", "topsecret", "http://localhost")
	sig := signPayload("topsecret", "order_abc", "pay_123")

	assert.False(t, c.VerifySignature("order_abc", "pay_999", sig))
	assert.False(t, c.VerifySignature("order_xyz", "pay_123", sig))
	assert.False(t, c.VerifySignature("order_abc", "pay_123", sig+"00"))
	assert.False(t, c.VerifySignature("order_abc", "pay_123", ""))
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	c := NewClient("key", "topsecret", "http://localhost")
	sig := signPayload("othersecret", "order_abc", "pay_123")

	assert.False(t, c.VerifySignature("order_abc", "pay_123", sig))
}

func TestCreateRemoteOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "topsecret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "order_abc", "amount": 2500, "currency": "INR", "receipt": "ORD-1", "status": "created"}`))
	}))
	defer srv.Close()

	c := NewClient("key", "topsecret", srv.URL)
	remote, err := c.CreateRemoteOrder(context.Background(), 2500, "INR", "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", remote.ID)
	assert.Equal(t, int64(2500), remote.Amount)
}

func TestCreateRemoteOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("key", "wrong", srv.URL)
	_, err := c.CreateRemoteOrder(context.Background(), 2500, "INR", "ORD-1")
	assert.Error(t, err)
}
