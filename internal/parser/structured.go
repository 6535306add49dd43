package parser

import (
	"strings"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// StructuredExtractor reads transactions from an already tabular source.
type StructuredExtractor struct {
	Resolver *ColumnResolver
}

// StructuredResult is what a table yielded.
type StructuredResult struct {
	Records     []models.TransactionRecord
	Columns     Resolution
	Diagnostics []models.Diagnostic
}

// Extract resolves the table's columns and converts each row into a record.
//
// A *ColumnUnresolvedError is returned when date, concept or debit cannot be
// mapped; the partial Resolution is still returned so callers can show the
// available headers. Blank rows are ignored. Rows without a usable date or
// without any amount digit are skipped and reported as diagnostics.
func (e *StructuredExtractor) Extract(t *models.Table) (*StructuredResult, error) {
	resolver := e.Resolver
	if resolver == nil {
		resolver = NewColumnResolver(nil, nil, nil)
	}
	cols := resolver.Resolve(t.Headers)
	res := &StructuredResult{
		Records: []models.TransactionRecord{},
		Columns: cols,
	}
	if missing := cols.Missing(); len(missing) > 0 {
		return res, &ColumnUnresolvedError{Missing: missing, Headers: cols.Headers}
	}

	for i, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		cell := func(r Role) string {
			idx, ok := cols.Index[r]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		skip := func(reason string) {
			res.Diagnostics = append(res.Diagnostics, models.Diagnostic{
				Index:  t.HeaderRow + 1 + i,
				Text:   strings.Join(row, " | "),
				Result: "skipped",
				Reason: reason,
			})
		}

		date, ok := NormalizeDate(cell(RoleDate))
		if !ok {
			skip("no valid date")
			continue
		}
		rec := models.TransactionRecord{
			Date:      date,
			Concept:   strings.Join(strings.Fields(cell(RoleConcept)), " "),
			VoucherNo: cell(RoleVoucher),
			Debit:     NewAmount(cell(RoleDebit)),
			Credit:    NewAmount(cell(RoleCredit)),
			Balance:   NewAmount(cell(RoleBalance)),
			Code:      cell(RoleCode),
		}
		if !rec.HasAmountDigit() {
			skip("no amount")
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
