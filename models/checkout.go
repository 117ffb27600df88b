package models

import "github.com/thedevsaddam/govalidator"

// RazorpayCompleteOpts is what checkout.js hands to the "handler" callback.
type RazorpayCompleteOpts struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

var RazorpayCompleteRules = govalidator.MapData{
	"razorpay_payment_id": []string{"required", "gateway_id", "max:128"},
	"razorpay_order_id":   []string{"required", "gateway_id", "max:128"},
	"razorpay_signature":  []string{"required", "gateway_id", "max:256"},
}

// PayPalApproveOpts is what the Buttons "onApprove" callback receives.
type PayPalApproveOpts struct {
	OrderID string `json:"orderID"`
	PayerID string `json:"payerID"`
}

var PayPalApproveRules = govalidator.MapData{
	"orderID": []string{"required", "gateway_id", "max:128"},
	"payerID": []string{"gateway_id", "max:128"},
}

// GatewayFailedOpts covers both razorpay "payment.failed" and paypal "onError".
type GatewayFailedOpts struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

var GatewayFailedRules = govalidator.MapData{
	"code":        []string{"max:64"},
	"description": []string{"max:512"},
	"reason":      []string{"max:128"},
}

// PayPalRedirectQuery is the query string PayPal appends to return and
// cancel URLs.
type PayPalRedirectQuery struct {
	Token   string `schema:"token"`
	PayerID string `schema:"PayerID"`
}
