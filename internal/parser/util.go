package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// Date patterns used by both extraction paths.
var (
	// DD/MM/YYYY only. This is the transaction-start marker in documents.
	datePatternStrict = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	// Excel serial day numbers between 1954 and 2119.
	excelSerialPattern = regexp.MustCompile(`^[2-7]\d{4}(?:\.\d+)?$`)
)

// Amount token patterns.
var (
	// digits plus optional currency, parenthesis, sign and separator symbols
	amountTokenPattern = regexp.MustCompile(`^\(?[-+]?(?:U\$S|US\$|\$|€|£)?\(?[-+]?\d[\d.,]*\)?-?$`)
	// a token made only of a currency symbol, e.g. the "$" of "$ 150,00"
	currencyTokenPattern = regexp.MustCompile(`^(?:U\$S|US\$|\$|€|£)$`)
	amountStrip          = regexp.MustCompile(`[^0-9,.\-]`)
)

// dateLayouts accepted in spreadsheet cells, day first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/06",
	"2/1/06",
}

// ParseAmount converts a locale-ambiguous amount such as "1.234,56",
// "(1.234,56)" or "$ -150.00" into a float64. It never fails: anything that
// cannot be read returns NaN.
//
// When both "," and "." appear the period is taken as the thousands separator.
// A lone comma is the decimal separator. A lone period is always decimal, so
// "1.234" reads as 1.234.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	open, closing := strings.Index(s, "("), strings.LastIndex(s, ")")
	accountingNegative := open >= 0 && closing > open

	s = amountStrip.ReplaceAllString(s, "")
	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")
	switch {
	case hasComma && hasPeriod:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}

	// "1.234,56-" is how several Argentine exports print debits.
	if len(s) > 1 && strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		s = "-" + strings.TrimSuffix(s, "-")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN()
	}
	if accountingNegative && v > 0 {
		v = -v
	}
	return v
}

// NewAmount parses raw into an Amount, keeping the original text.
func NewAmount(raw string) models.Amount {
	raw = strings.TrimSpace(raw)
	v := ParseAmount(raw)
	if math.IsNaN(v) {
		return models.Amount{Raw: raw}
	}
	return models.Amount{Raw: raw, Value: v, Set: true}
}

// IsAmountToken reports whether a single token looks like a monetary amount.
func IsAmountToken(s string) bool {
	return amountTokenPattern.MatchString(strings.TrimSpace(s))
}

// isCurrencyToken reports whether s is a bare currency symbol.
func isCurrencyToken(s string) bool {
	return currencyTokenPattern.MatchString(s)
}

// IsStrictDate reports whether s is exactly a DD/MM/YYYY date.
func IsStrictDate(s string) bool {
	return datePatternStrict.MatchString(s)
}

// NormalizeDate converts a spreadsheet date cell to DD/MM/YYYY.
// Excel serial numbers (raw cell values) are accepted too.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if IsStrictDate(s) {
		if _, err := time.Parse("02/01/2006", s); err == nil {
			return s, true
		}
		return "", false
	}
	if excelSerialPattern.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err == nil {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t.Format("02/01/2006"), true
			}
		}
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02/01/2006"), true
		}
	}
	return "", false
}
