package shared

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance used by every "balanced" comparison.
var Epsilon = decimal.New(1, -2)

// NearlyEqual reports whether |a-b| < Epsilon.
func NearlyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NullAmount is a monetary value that may be absent in raw input.
// Absence is distinct from zero until OrZero is called at read time.
type NullAmount struct {
	Amount decimal.Decimal
	Valid  bool
}

// Amount wraps a present value.
func Amount(d decimal.Decimal) NullAmount {
	return NullAmount{Amount: d, Valid: true}
}

// OrZero is the single absence-to-zero rule: an absent amount reads as zero.
func (n NullAmount) OrZero() decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Amount
}

// MarshalJSON encodes absent amounts as null.
func (n NullAmount) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Amount)
}

// UnmarshalJSON accepts null, numbers and numeric strings.
func (n *NullAmount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullAmount{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*n = NullAmount{Amount: d, Valid: true}
	return nil
}

// Scan lets repositories read nullable numeric columns directly.
func (n *NullAmount) Scan(value any) error {
	var nd decimal.NullDecimal
	if err := nd.Scan(value); err != nil {
		return err
	}
	*n = NullAmount{Amount: nd.Decimal, Valid: nd.Valid}
	return nil
}
