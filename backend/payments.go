package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
)

const (
	pathPaymentConfig  = "/api/payments/config"
	pathPaymentMethods = "/api/payments/methods"
	pathAllowedMethods = "/api/payments/allowed/"
	pathProcessPayment = "/api/payments/process"
)

// ProcessRequest is the reconciliation call recording a payment against a
// booking or a coaching enrolment.
type ProcessRequest struct {
	Amount        json.Number      `json:"amount"`
	Currency      string           `json:"currency"`
	Method        models.MethodKey `json:"method"`
	BookingID     string           `json:"bookingId,omitempty"`
	CoachingID    string           `json:"coachingId,omitempty"`
	Email         string           `json:"email,omitempty"`
	TransactionID string           `json:"transactionId,omitempty"`
	OrderID       string           `json:"orderId,omitempty"`
}

type ProcessResponse struct {
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}

type AllowedMethodsResponse struct {
	UserID  string             `json:"userId"`
	Methods []models.MethodKey `json:"methods"`
}

func (c *Client) GetPaymentConfig(ctx context.Context) (*models.PaymentConfig, error) {
	var cfg models.PaymentConfig
	if err := c.call(ctx, http.MethodGet, pathPaymentConfig, nil, nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) PutPaymentConfig(ctx context.Context, cfg *models.PaymentConfig) (*models.PaymentConfig, error) {
	var saved models.PaymentConfig
	if err := c.call(ctx, http.MethodPut, pathPaymentConfig, nil, cfg, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (c *Client) GetPaymentMethods(ctx context.Context) ([]models.PaymentMethodDescriptor, error) {
	var methods []models.PaymentMethodDescriptor
	if err := c.call(ctx, http.MethodGet, pathPaymentMethods, nil, nil, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

func (c *Client) GetAllowedMethods(ctx context.Context, userID string) (*AllowedMethodsResponse, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	var allowed AllowedMethodsResponse
	if err := c.call(ctx, http.MethodGet, pathAllowedMethods+url.PathEscape(userID), nil, nil, &allowed); err != nil {
		return nil, err
	}
	return &allowed, nil
}

// ProcessPayment records a payment. When a gateway transaction id exists it
// doubles as the idempotency key, so repeating the call cannot record twice.
func (c *Client) ProcessPayment(ctx context.Context, req *ProcessRequest) (*ProcessResponse, error) {
	header := make(http.Header)
	if req.TransactionID != "" {
		header.Set("Idempotency-Key", req.TransactionID)
	}
	var out ProcessResponse
	if err := c.callOptional(ctx, http.MethodPost, pathProcessPayment, header, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
