package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// TotalLabel names the grand total row of the summary section.
const TotalLabel = "TOTAL GENERAL"

// Document is what gets written for one processed statement.
type Document struct {
	Source  string
	Bank    string
	Records []models.TransactionRecord
	Summary *models.ClassificationSummary
}

// CSVWriter writes transactions to CSV format.
type CSVWriter struct {
	IncludeHeader  bool
	IncludeSummary bool
}

// WriteToFile writes the document to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	if err := w.Write(f, doc); err != nil {
		return err
	}
	return f.Close()
}

// Write writes the records, and optionally the classification summary, in
// CSV format. Amounts use a period decimal separator and no grouping.
func (w *CSVWriter) Write(out io.Writer, doc Document) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		if doc.Source != "" {
			writer.Write([]string{"# Source", doc.Source})
		}
		if doc.Bank != "" {
			writer.Write([]string{"# Bank", doc.Bank})
		}
	}

	header := []string{"Date", "Concept", "Voucher", "Debit", "Credit", "Balance", "Code"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range doc.Records {
		row := []string{
			rec.Date,
			rec.Concept,
			rec.VoucherNo,
			formatAmount(rec.Debit),
			formatAmount(rec.Credit),
			formatAmount(rec.Balance),
			rec.Code,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	if w.IncludeSummary && doc.Summary != nil {
		writeSummary(writer, *doc.Summary)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func writeSummary(writer *csv.Writer, sum models.ClassificationSummary) {
	writer.Write(nil)
	writer.Write([]string{"Concept", "Subtotal"})
	for _, p := range sum.Prefixes {
		writer.Write([]string{p.Prefix, formatValue(p.Subtotal)})
	}
	writer.Write([]string{TotalLabel, formatValue(sum.GrandTotal)})

	if len(sum.Groups) == 0 {
		return
	}
	writer.Write(nil)
	writer.Write([]string{"Group", "Subtotal"})
	for _, g := range sum.Groups {
		writer.Write([]string{g.Label, formatValue(g.Subtotal)})
	}

	writer.Write(nil)
	writer.Write([]string{"Group", "Date", "Concept", "Debit"})
	for _, g := range sum.Groups {
		for _, rec := range g.Records {
			writer.Write([]string{g.Label, rec.Date, rec.Concept, formatAmount(rec.Debit)})
		}
	}
}

// formatAmount leaves cells that held no number empty.
func formatAmount(a models.Amount) string {
	if !a.Valid() {
		return ""
	}
	return formatValue(a.Value)
}

func formatValue(v float64) string {
	if v == 0 {
		v = 0 // no "-0.00"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
