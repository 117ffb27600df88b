package paypal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kamalnath14061995/IndusionCricket-sub001/backend"
	"github.com/kamalnath14061995/IndusionCricket-sub001/checkout"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	orderReq   *backend.PayPalOrderRequest
	orderErr   error
	approveURL string
	captured   []string
	captureErr error
}

func (f *fakeBackend) CreatePayPalOrder(_ context.Context, req *backend.PayPalOrderRequest) (*backend.PayPalOrder, error) {
	f.orderReq = req
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return &backend.PayPalOrder{OrderID: "PP-1", Status: "CREATED", Amount: req.Amount, Currency: req.Currency, ApproveURL: f.approveURL}, nil
}

func (f *fakeBackend) CapturePayPalOrder(_ context.Context, orderID string) (*backend.PayPalCapture, error) {
	f.captured = append(f.captured, orderID)
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return &backend.PayPalCapture{CaptureID: "CAP-1", Status: "COMPLETED"}, nil
}

func settleOnOpen(registry *checkout.Registry, cb checkout.Callback) checkout.Launcher {
	return checkout.LauncherFunc(func(url string) error {
		id := url[strings.LastIndex(url, "/")+1:]
		go registry.Settle(id, cb)
		return nil
	})
}

func order() *checkout.Order {
	return &checkout.Order{ID: "PP-1", Amount: decimal.RequireFromString("500.00"), Currency: "USD"}
}

func TestScriptURL(t *testing.T) {
	assert.Equal(t, "https://www.paypal.com/sdk/js?client-id=abc&currency=USD", ScriptURL(SDKURL, "abc", "USD"))
}

func TestCreateOrder(t *testing.T) {
	b := &fakeBackend{}
	g := New(Options{ClientID: "abc"}, b, checkout.NewRegistry("http://127.0.0.1:8765"), nil)

	got, err := g.CreateOrder(context.Background(), &checkout.OrderRequest{
		Amount:     decimal.NewFromInt(500),
		Currency:   "USD",
		CoachingID: "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "500.00", b.orderReq.Amount)
	assert.Equal(t, "c1", b.orderReq.CoachingID)
	assert.Equal(t, "http://127.0.0.1:8765/checkout/paypal/return", b.orderReq.ReturnURL)
	assert.Equal(t, "http://127.0.0.1:8765/checkout/paypal/cancel", b.orderReq.CancelURL)
	assert.Equal(t, "PP-1", got.ID)
	assert.True(t, decimal.NewFromInt(500).Equal(got.Amount))
}

func TestCreateOrderFailureNeverCaptures(t *testing.T) {
	b := &fakeBackend{orderErr: &backend.APIError{Status: 502}}
	g := New(Options{}, b, checkout.NewRegistry("http://localhost"), nil)

	_, err := g.CreateOrder(context.Background(), &checkout.OrderRequest{Amount: decimal.NewFromInt(1), Currency: "USD"})
	assert.Error(t, err)
	assert.Empty(t, b.captured)
}

func TestOpenApprovedCaptures(t *testing.T) {
	registry := checkout.NewRegistry("http://localhost")
	b := &fakeBackend{}
	g := New(Options{OpenTimeout: time.Second}, b, registry, settleOnOpen(registry, checkout.Callback{
		Kind: checkout.KindApproved, OrderID: "PP-1", PayerID: "PAYER",
	}))

	out, err := g.Open(context.Background(), order(), nil)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "CAP-1", out.TransactionID)
	assert.Equal(t, "PP-1", out.OrderID)
	assert.Equal(t, []string{"PP-1"}, b.captured)
}

func TestOpenOutcomes(t *testing.T) {
	tests := []struct {
		name      string
		cb        checkout.Callback
		backend   *fakeBackend
		code      string
		cancelled bool
		review    bool
		captures  int
	}{
		{
			name:      "cancelled",
			cb:        checkout.Callback{Kind: checkout.KindDismissed},
			backend:   &fakeBackend{},
			code:      models.ErrCodeCancelled,
			cancelled: true,
		},
		{
			name:    "sdk error",
			cb:      checkout.Callback{Kind: checkout.KindFailed, Code: "PAYPAL_ERROR", Message: "popup closed"},
			backend: &fakeBackend{},
			code:    models.ErrCodeGateway,
		},
		{
			name:     "capture declined",
			cb:       checkout.Callback{Kind: checkout.KindApproved, OrderID: "PP-1"},
			backend:  &fakeBackend{captureErr: &backend.APIError{Status: 422, Message: "INSTRUMENT_DECLINED"}},
			code:     models.ErrCodeCaptureFailed,
			captures: 1,
		},
		{
			name:     "capture unreachable",
			cb:       checkout.Callback{Kind: checkout.KindApproved, OrderID: "PP-1"},
			backend:  &fakeBackend{captureErr: errors.New("i/o timeout")},
			code:     models.ErrCodeCaptureFailed,
			review:   true,
			captures: 1,
		},
		{
			name:     "session expired at capture",
			cb:       checkout.Callback{Kind: checkout.KindApproved, OrderID: "PP-1"},
			backend:  &fakeBackend{captureErr: &backend.APIError{Status: 401, Message: "unauthorized"}},
			code:     models.ErrCodeSessionExpired,
			captures: 1,
		},
		{
			name:    "approval for another order",
			cb:      checkout.Callback{Kind: checkout.KindApproved, OrderID: "PP-2"},
			backend: &fakeBackend{},
			code:    models.ErrCodeCaptureFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := checkout.NewRegistry("http://localhost")
			g := New(Options{OpenTimeout: time.Second}, tt.backend, registry, settleOnOpen(registry, tt.cb))

			out, err := g.Open(context.Background(), order(), nil)
			require.NoError(t, err)
			assert.False(t, out.Success)
			assert.Equal(t, tt.code, out.ErrorCode)
			assert.Equal(t, tt.cancelled, out.Cancelled)
			assert.Equal(t, tt.review, out.RequiresManualReview)
			assert.Len(t, tt.backend.captured, tt.captures)
		})
	}
}

func TestOpenRedirectFlow(t *testing.T) {
	registry := checkout.NewRegistry("http://localhost")
	var opened string
	g := New(Options{OpenTimeout: time.Second}, &fakeBackend{}, registry, checkout.LauncherFunc(func(url string) error {
		opened = url
		go registry.SettleByOrder(Provider, "PP-1", checkout.Callback{Kind: checkout.KindApproved, OrderID: "PP-1"})
		return nil
	}))

	o := order()
	o.ApproveURL = "https://www.sandbox.paypal.com/checkoutnow?token=PP-1"
	out, err := g.Open(context.Background(), o, nil)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, o.ApproveURL, opened)
}

func TestOpenTimesOut(t *testing.T) {
	g := New(Options{OpenTimeout: 20 * time.Millisecond}, &fakeBackend{}, checkout.NewRegistry("http://localhost"),
		checkout.LauncherFunc(func(string) error { return nil }))

	out, err := g.Open(context.Background(), order(), nil)
	require.NoError(t, err)
	assert.Equal(t, models.ErrCodeTimeout, out.ErrorCode)
}

func TestRenderPage(t *testing.T) {
	page, err := renderPage(&pageData{
		ScriptURL:   ScriptURL(SDKURL, "abc", "USD"),
		CallbackURL: "http://localhost/checkout/s1",
		OrderID:     "PP-1",
		Amount:      "500",
		Currency:    "USD",
	})
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "paypal.Buttons")
	assert.Contains(t, html, `"PP-1"`)
	assert.Contains(t, html, "onApprove")
}
