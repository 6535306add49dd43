package writer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// DefaultLocale is the locale of the statements the analyzer was built for.
var DefaultLocale = language.MustParse("es-AR")

// ParseLocale parses a BCP 47 tag such as "es-AR" or "en".
func ParseLocale(s string) (language.Tag, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", s, err)
	}
	return tag, nil
}

// FormatDisplay renders v with two decimals and the grouping and decimal
// separators of tag. The result is for people only and is never parsed back.
func FormatDisplay(v float64, tag language.Tag) string {
	if v == 0 {
		v = 0
	}
	return message.NewPrinter(tag).Sprintf("%.2f", v)
}

// WriteSummary prints the classification summary as an aligned table.
func WriteSummary(out io.Writer, sum models.ClassificationSummary, tag language.Tag) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range sum.Prefixes {
		fmt.Fprintf(tw, "%s\t%s\t\n", p.Prefix, FormatDisplay(p.Subtotal, tag))
	}
	fmt.Fprintf(tw, "%s\t%s\t\n", TotalLabel, FormatDisplay(sum.GrandTotal, tag))
	for _, g := range sum.Groups {
		fmt.Fprintf(tw, "%s (%d)\t%s\t\n", g.Label, len(g.Records), FormatDisplay(g.Subtotal, tag))
	}
	return tw.Flush()
}
