package writer

import (
	"bytes"
	"path/filepath"
	"os"
	"strings"
	"testing"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

func amt(raw string, v float64) models.Amount {
	return models.Amount{Raw: raw, Value: v, Set: true}
}

func sampleDocument() Document {
	special := models.TransactionRecord{
		Date: "04/03/2024", Concept: "Debito Automatico Directo FEDERACION PATRONAL",
		Debit: amt("2.500,00", 2500), Credit: amt("0,00", 0), Balance: amt("3.000,00", 3000),
	}
	return Document{
		Source: "marzo.pdf",
		Bank:   "credicoop",
		Records: []models.TransactionRecord{
			{
				Date: "01/03/2024", Concept: "PAGO SERVICIOS, LUZ", VoucherNo: "ABC123",
				Debit: amt("150,00", 150), Credit: amt("0,00", 0), Balance: amt("4500,00", 4500),
			},
			{
				Date: "02/03/2024", Concept: "TRANSFERENCIA",
				Debit: models.Amount{Raw: "n/a"}, Balance: amt("1.234,5", 1234.5), Code: "12",
			},
			special,
		},
		Summary: &models.ClassificationSummary{
			Prefixes:   []models.PrefixSubtotal{{Prefix: "IVA - Alicuota No Alcanzado", Subtotal: 21, Count: 1}},
			GrandTotal: 21,
			Groups: []models.GroupSubtotal{
				{Label: "Debito Automatico Directo FEDERACION PATRO", Subtotal: 2500, Records: []models.TransactionRecord{special}},
			},
		},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true, IncludeSummary: true}
	if err := w.Write(&buf, sampleDocument()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.Join([]string{
		"# Source,marzo.pdf",
		"# Bank,credicoop",
		"Date,Concept,Voucher,Debit,Credit,Balance,Code",
		`01/03/2024,"PAGO SERVICIOS, LUZ",ABC123,150.00,0.00,4500.00,`,
		"02/03/2024,TRANSFERENCIA,,,,1234.50,12",
		"04/03/2024,Debito Automatico Directo FEDERACION PATRONAL,,2500.00,0.00,3000.00,",
		"",
		"Concept,Subtotal",
		"IVA - Alicuota No Alcanzado,21.00",
		"TOTAL GENERAL,21.00",
		"",
		"Group,Subtotal",
		"Debito Automatico Directo FEDERACION PATRO,2500.00",
		"",
		"Group,Date,Concept,Debit",
		"Debito Automatico Directo FEDERACION PATRO,04/03/2024,Debito Automatico Directo FEDERACION PATRONAL,2500.00",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestCSVWriter_WriteRecordsOnly(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, sampleDocument()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "# Bank") {
		t.Error("should not have metadata when IncludeHeader=false")
	}
	if strings.Contains(output, TotalLabel) {
		t.Error("should not have a summary when IncludeSummary=false")
	}
	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 1 header + 3 records
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(lines))
	}
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := (&CSVWriter{}).WriteToFile(path, Document{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Date,Concept,Voucher,Debit,Credit,Balance,Code\n" {
		t.Errorf("got %q", data)
	}

	if err := (&CSVWriter{}).WriteToFile(filepath.Join(t.TempDir(), "missing", "out.csv"), Document{}); err == nil {
		t.Error("expected error for an unwritable path")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    models.Amount
		expected string
	}{
		{amt("25,99", 25.99), "25.99"},
		{amt("1.234,56", 1234.56), "1234.56"},
		{amt("0,00", 0), "0.00"},
		{amt("-0", -0.0), "0.00"},
		{amt("(10)", -10), "-10.00"},
		{models.Amount{}, ""},
		{models.Amount{Raw: "abc"}, ""},
	}

	for _, tt := range tests {
		got := formatAmount(tt.input)
		if got != tt.expected {
			t.Errorf("formatAmount(%+v): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}
