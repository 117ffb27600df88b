package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kamalnath14061995/IndusionCricket-sub001/authfetch"
	"github.com/kamalnath14061995/IndusionCricket-sub001/credentials"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(authfetch.New(server.URL, server.Client(), credentials.NewMemory(credentials.Pair{})))
}

func TestGetPaymentConfig(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/config", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"globalEnabled":{"CASH":true,"PAYPAL":false},"perUserAllowed":{"u1":["CASH"]},"restrictions":{"u2":{"blocked":true,"reason":"dues"}}}}`))
	})

	cfg, err := client.GetPaymentConfig(context.Background())
	require.NoError(t, err)

	assert.True(t, cfg.GlobalEnabled[models.MethodCash])
	assert.False(t, cfg.GlobalEnabled[models.MethodPayPal])
	assert.Equal(t, []models.MethodKey{models.MethodCash}, cfg.PerUserAllowed["u1"])
	assert.Equal(t, models.Restriction{Blocked: true, Reason: "dues"}, cfg.Restrictions["u2"])
}

func TestCallErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false,"message":"db down"}`))
		})
		_, err := client.GetPaymentMethods(context.Background())
		apiErr, ok := errors.Cause(err).(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
		assert.Equal(t, "db down", apiErr.Message)
		assert.True(t, IsTransient(err))
	})

	t.Run("success false", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"errors":[{"message":"bad signature"}]}`))
		})
		_, err := client.VerifyRazorpayPayment(context.Background(), &RazorpayVerifyRequest{})
		apiErr, ok := errors.Cause(err).(*APIError)
		require.True(t, ok)
		assert.Equal(t, "bad signature", apiErr.Message)
		assert.False(t, IsTransient(err))
	})

	t.Run("missing data", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true}`))
		})
		_, err := client.CreatePayPalOrder(context.Background(), &PayPalOrderRequest{})
		assert.Error(t, err)
	})

	t.Run("unauthorized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := client.GetPaymentConfig(context.Background())
		assert.True(t, IsUnauthorized(err))
	})
}

func TestProcessPaymentSendsIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "pay_123", r.Header.Get("Idempotency-Key"))
		w.Write([]byte(`{"success":true,"data":{"paymentId":"p1","status":"COMPLETED"}}`))
	})

	out, err := client.ProcessPayment(context.Background(), &ProcessRequest{
		Amount:        "500",
		Currency:      "INR",
		Method:        models.MethodRazorpay,
		BookingID:     "B1",
		TransactionID: "pay_123",
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", out.PaymentID)
}

func TestProcessPaymentWithoutData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Idempotency-Key"))
		w.Write([]byte(`{"success":true,"message":"recorded"}`))
	})

	_, err := client.ProcessPayment(context.Background(), &ProcessRequest{Amount: "1", Currency: "INR", Method: models.MethodCash, BookingID: "B1"})
	assert.NoError(t, err)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(errors.New("connection reset")))
	assert.True(t, IsTransient(&APIError{Status: http.StatusBadGateway}))
	assert.True(t, IsTransient(&APIError{Status: http.StatusTooManyRequests}))
	assert.False(t, IsTransient(&APIError{Status: http.StatusConflict}))
}
