package writer

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

func TestFormatDisplay(t *testing.T) {
	tests := []struct {
		tag      language.Tag
		input    float64
		expected string
	}{
		{language.English, 1234567.89, "1,234,567.89"},
		{language.English, 0, "0.00"},
		{language.Spanish, 1234567.89, "1.234.567,89"},
	}

	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			if got := FormatDisplay(tt.input, tt.tag); got != tt.expected {
				t.Errorf("FormatDisplay(%v): got %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseLocale(t *testing.T) {
	if _, err := ParseLocale("es-AR"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseLocale("not a locale!"); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestWriteSummary(t *testing.T) {
	sum := models.ClassificationSummary{
		Prefixes:   []models.PrefixSubtotal{{Prefix: "IVA", Subtotal: 1234.5}},
		GrandTotal: 1234.5,
		Groups:     []models.GroupSubtotal{{Label: "Seguros", Subtotal: 10, Records: make([]models.TransactionRecord, 2)}},
	}
	var buf bytes.Buffer
	if err := WriteSummary(&buf, sum, language.English); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"IVA", "1,234.50", TotalLabel, "Seguros (2)", "10.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
