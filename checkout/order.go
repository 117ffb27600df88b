package checkout

import "github.com/shopspring/decimal"

// OrderRequest asks a gateway adapter for a server-side order. MinorAmount
// is Amount already converted to the currency's minor unit.
type OrderRequest struct {
	Amount      decimal.Decimal
	MinorAmount int64
	Currency    string
	BookingID   string
	CoachingID  string
	Receipt     string
}

// Order is the server-side order the checkout page is opened against.
type Order struct {
	ID          string
	Amount      decimal.Decimal
	MinorAmount int64
	Currency    string
	KeyID       string
	ApproveURL  string
}

// Customer prefills the checkout page.
type Customer struct {
	Email       string
	Description string
}
