package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

const (
	pathRazorpayOrder  = "/api/payments/razorpay/order"
	pathRazorpayVerify = "/api/payments/razorpay/verify"
	pathPayPalOrder    = "/api/payments/paypal/order"
	pathPayPalCapture  = "/api/payments/paypal/capture/"
)

// RazorpayOrderRequest carries the amount in minor units (paise).
type RazorpayOrderRequest struct {
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt,omitempty"`
	BookingID  string `json:"bookingId,omitempty"`
	CoachingID string `json:"coachingId,omitempty"`
}

// RazorpayOrder is the server-side order. Its amount, not the client's, is
// what checkout charges.
type RazorpayOrder struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId,omitempty"`
}

type RazorpayVerifyRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type RazorpayVerifyResponse struct {
	Verified  bool   `json:"verified"`
	PaymentID string `json:"paymentId"`
}

// PayPalOrderRequest carries the amount as a decimal string, e.g. "500.00".
// ReturnURL and CancelURL are where PayPal redirects when the buyer leaves
// the popup flow.
type PayPalOrderRequest struct {
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	BookingID  string `json:"bookingId,omitempty"`
	CoachingID string `json:"coachingId,omitempty"`
	ReturnURL  string `json:"returnUrl,omitempty"`
	CancelURL  string `json:"cancelUrl,omitempty"`
}

type PayPalOrder struct {
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	ApproveURL string `json:"approveUrl,omitempty"`
}

type PayPalCapture struct {
	CaptureID string `json:"captureId"`
	Status    string `json:"status"`
}

func (c *Client) CreateRazorpayOrder(ctx context.Context, req *RazorpayOrderRequest) (*RazorpayOrder, error) {
	var order RazorpayOrder
	if err := c.call(ctx, http.MethodPost, pathRazorpayOrder, nil, req, &order); err != nil {
		return nil, err
	}
	if order.OrderID == "" {
		return nil, errors.New("razorpay order response without order id")
	}
	return &order, nil
}

// VerifyRazorpayPayment asks the backend to check the checkout signature.
// A refusal comes back as *APIError or as Verified false.
func (c *Client) VerifyRazorpayPayment(ctx context.Context, req *RazorpayVerifyRequest) (*RazorpayVerifyResponse, error) {
	var out RazorpayVerifyResponse
	if err := c.call(ctx, http.MethodPost, pathRazorpayVerify, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePayPalOrder(ctx context.Context, req *PayPalOrderRequest) (*PayPalOrder, error) {
	var order PayPalOrder
	if err := c.call(ctx, http.MethodPost, pathPayPalOrder, nil, req, &order); err != nil {
		return nil, err
	}
	if order.OrderID == "" {
		return nil, errors.New("paypal order response without order id")
	}
	return &order, nil
}

func (c *Client) CapturePayPalOrder(ctx context.Context, orderID string) (*PayPalCapture, error) {
	header := http.Header{"Idempotency-Key": []string{orderID}}
	var capture PayPalCapture
	if err := c.call(ctx, http.MethodPost, pathPayPalCapture+url.PathEscape(orderID), header, nil, &capture); err != nil {
		return nil, err
	}
	if capture.CaptureID == "" {
		return nil, errors.New("paypal capture response without capture id")
	}
	return &capture, nil
}
