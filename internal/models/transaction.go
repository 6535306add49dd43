package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a monetary cell as read from a statement.
// Set is false when the cell was empty or could not be parsed.
type Amount struct {
	Raw   string  `json:"-"`
	Value float64 `json:"-"`
	Set   bool    `json:"-"`
}

// Valid reports whether Value holds a parsed number.
func (a Amount) Valid() bool {
	return a.Set
}

// Empty reports whether the source cell carried no text at all.
func (a Amount) Empty() bool {
	return strings.TrimSpace(a.Raw) == ""
}

// Unparseable reports whether the cell had text that did not parse as a number.
func (a Amount) Unparseable() bool {
	return !a.Set && !a.Empty()
}

// HasDigit reports whether the raw cell text contains at least one digit.
func (a Amount) HasDigit() bool {
	return strings.ContainsAny(a.Raw, "0123456789")
}

// MarshalJSON encodes parsed amounts as numbers and everything else as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON reads what MarshalJSON writes. A number becomes a parsed
// amount whose Raw is the number's shortest decimal form; null leaves the
// zero Amount.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Amount{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("amount must be a number or null: %w", err)
	}
	*a = Amount{Raw: strconv.FormatFloat(v, 'f', -1, 64), Value: v, Set: true}
	return nil
}

// TransactionRecord is one normalized statement movement.
type TransactionRecord struct {
	Date      string `json:"date"` // always dd/mm/yyyy
	Concept   string `json:"concept"`
	VoucherNo string `json:"voucherNo,omitempty"`
	Debit     Amount `json:"debit"`
	Credit    Amount `json:"credit"`
	Balance   Amount `json:"balance"`
	Code      string `json:"code,omitempty"`
}

// HasAmountDigit reports whether any of the three amount fields carries a digit.
func (r TransactionRecord) HasAmountDigit() bool {
	return r.Debit.HasDigit() || r.Credit.HasDigit() || r.Balance.HasDigit()
}

// Diagnostic captures what the extractor did with a chunk or row it did not keep.
type Diagnostic struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Result string `json:"result"` // "dropped", "skipped"
	Reason string `json:"reason,omitempty"`
}
