package helpers

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// CurrencyScale is the number of minor-unit digits of an ISO-4217 code,
// 2 for INR and USD, 0 for JPY.
func CurrencyScale(code string) (int32, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 0, errors.Wrapf(err, "unknown currency %q", code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale), nil
}

// ToMinor converts a major-unit amount to the currency's minor unit
// (rupees to paise). Amounts with more precision than the currency allows
// are rejected rather than rounded.
func ToMinor(amount decimal.Decimal, code string) (int64, error) {
	scale, err := CurrencyScale(code)
	if err != nil {
		return 0, err
	}
	minor := amount.Shift(scale)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, errors.Errorf("amount %s has more than %d decimals for %s", amount, scale, code)
	}
	return minor.IntPart(), nil
}

func FromMinor(minor int64, code string) (decimal.Decimal, error) {
	scale, err := CurrencyScale(code)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(minor, -scale), nil
}

// FormatAmount renders amount with the currency's scale, e.g. "500.00".
func FormatAmount(amount decimal.Decimal, code string) (string, error) {
	scale, err := CurrencyScale(code)
	if err != nil {
		return "", err
	}
	return amount.StringFixed(scale), nil
}
