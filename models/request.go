package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// PaymentRequest is built per checkout attempt and never persisted.
// Exactly one of BookingID and CoachingID is set.
type PaymentRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Method     MethodKey       `json:"method"`
	BookingID  string          `json:"bookingId,omitempty"`
	CoachingID string          `json:"coachingId,omitempty"`
	UserEmail  string          `json:"email,omitempty"`
}

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (r *PaymentRequest) Validate() error {
	if strings.TrimSpace(string(r.Method)) == "" {
		return &ValidationError{Field: "method", Msg: "payment method is required"}
	}
	if _, ok := LookupMethod(r.Method); !ok {
		return &ValidationError{Field: "method", Msg: fmt.Sprintf("unknown payment method %q", r.Method)}
	}
	if !r.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Msg: "amount must be positive"}
	}
	if _, err := currency.ParseISO(r.Currency); err != nil {
		return &ValidationError{Field: "currency", Msg: fmt.Sprintf("%q is not an ISO-4217 code", r.Currency)}
	}
	if (r.BookingID == "") == (r.CoachingID == "") {
		return &ValidationError{Field: "bookingId", Msg: "exactly one of bookingId and coachingId must be set"}
	}
	return nil
}

// Subject names the record the payment is attached to, for logs and keys.
func (r *PaymentRequest) Subject() string {
	if r.BookingID != "" {
		return "booking:" + r.BookingID
	}
	return "coaching:" + r.CoachingID
}
