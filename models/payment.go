package models

import "sort"

type MethodKey string

type MethodType string

const (
	MethodCash     MethodKey = "CASH"
	MethodRazorpay MethodKey = "RAZORPAY"
	MethodPayPal   MethodKey = "PAYPAL"
)

const (
	MethodTypeOffline MethodType = "OFFLINE"
	MethodTypeOnline  MethodType = "ONLINE"
)

type PaymentMethodDescriptor struct {
	Key      MethodKey  `json:"key"`
	Label    string     `json:"label"`
	Type     MethodType `json:"type"`
	Provider string     `json:"provider,omitempty"`
}

// Catalog is the static list of payment methods the client knows how to drive.
var Catalog = []PaymentMethodDescriptor{
	{Key: MethodCash, Label: "Cash", Type: MethodTypeOffline},
	{Key: MethodRazorpay, Label: "Card / UPI / Netbanking", Type: MethodTypeOnline, Provider: "razorpay"},
	{Key: MethodPayPal, Label: "PayPal", Type: MethodTypeOnline, Provider: "paypal"},
}

func LookupMethod(key MethodKey) (PaymentMethodDescriptor, bool) {
	for _, d := range Catalog {
		if d.Key == key {
			return d, true
		}
	}
	return PaymentMethodDescriptor{}, false
}

type Restriction struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

// PaymentConfig is owned by admins and persisted by the backend.
type PaymentConfig struct {
	GlobalEnabled  map[MethodKey]bool     `json:"globalEnabled"`
	PerUserAllowed map[string][]MethodKey `json:"perUserAllowed"`
	Restrictions   map[string]Restriction `json:"restrictions"`
}

// EnabledKeys returns the globally enabled methods, sorted.
func (c *PaymentConfig) EnabledKeys() []MethodKey {
	var keys []MethodKey
	for k, on := range c.GlobalEnabled {
		if on {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns a deep copy so callers can mutate it before a PUT.
func (c *PaymentConfig) Clone() *PaymentConfig {
	out := &PaymentConfig{
		GlobalEnabled:  make(map[MethodKey]bool, len(c.GlobalEnabled)),
		PerUserAllowed: make(map[string][]MethodKey, len(c.PerUserAllowed)),
		Restrictions:   make(map[string]Restriction, len(c.Restrictions)),
	}
	for k, v := range c.GlobalEnabled {
		out.GlobalEnabled[k] = v
	}
	for k, v := range c.PerUserAllowed {
		out.PerUserAllowed[k] = append([]MethodKey(nil), v...)
	}
	for k, v := range c.Restrictions {
		out.Restrictions[k] = v
	}
	return out
}
