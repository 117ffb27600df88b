package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a gateway capture the backend has not recorded yet.
type JournalEntry struct {
	ID            string          `db:"id" json:"id"`
	TransactionID string          `db:"transaction_id" json:"transactionId"`
	OrderID       string          `db:"order_id" json:"orderId"`
	Method        MethodKey       `db:"method" json:"method"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Currency      string          `db:"currency" json:"currency"`
	BookingID     string          `db:"booking_id" json:"bookingId,omitempty"`
	CoachingID    string          `db:"coaching_id" json:"coachingId,omitempty"`
	Email         string          `db:"email" json:"email,omitempty"`
	LastError     string          `db:"last_error" json:"lastError"`
	Attempts      int             `db:"attempts" json:"attempts"`
	Created       time.Time       `db:"created" json:"created"`
	Recorded      *time.Time      `db:"recorded" json:"recorded,omitempty"`
}

// Key identifies the capture: its transaction id, or its order when the
// gateway never confirmed a capture.
func (e *JournalEntry) Key() string {
	if e.TransactionID != "" {
		return e.TransactionID
	}
	if e.OrderID != "" {
		return "order:" + e.OrderID
	}
	return ""
}
