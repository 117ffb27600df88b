package models

import "github.com/shopspring/decimal"

const (
	ErrCodeValidation         = "VALIDATION"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeCancelled          = "CANCELLED"
	ErrCodeGateway            = "GATEWAY_ERROR"
	ErrCodeVerificationFailed = "VERIFICATION_FAILED"
	ErrCodeCaptureFailed      = "CAPTURE_FAILED"
	ErrCodeOrderFailed        = "ORDER_FAILED"
	ErrCodeTimeout            = "TIMEOUT"
	ErrCodeSDKLoadFailed      = "SDK_LOAD_FAILED"
	ErrCodeSDKLoadTimeout     = "SDK_LOAD_TIMEOUT"
	ErrCodeRecordingFailed    = "RECORDING_FAILED"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
)

// PaymentOutcome is the single terminal value of a checkout attempt.
// Gateway adapters return it too, with TransactionID holding the gateway's
// payment or capture id.
type PaymentOutcome struct {
	Success              bool            `json:"success"`
	Method               MethodKey       `json:"method,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency,omitempty"`
	TransactionID        string          `json:"transactionId,omitempty"`
	OrderID              string          `json:"orderId,omitempty"`
	Message              string          `json:"message"`
	ErrorCode            string          `json:"errorCode,omitempty"`
	GatewayCode          string          `json:"gatewayCode,omitempty"`
	Cancelled            bool            `json:"cancelled,omitempty"`
	RequiresManualReview bool            `json:"requiresManualReview,omitempty"`
	Reference            string          `json:"reference,omitempty"`
	Instructions         string          `json:"instructions,omitempty"`
}

func Failed(code, message string) *PaymentOutcome {
	return &PaymentOutcome{ErrorCode: code, Message: message}
}

func CancelledOutcome(message string) *PaymentOutcome {
	if message == "" {
		message = "Payment was cancelled"
	}
	return &PaymentOutcome{ErrorCode: ErrCodeCancelled, Cancelled: true, Message: message}
}
