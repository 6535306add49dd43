package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/insightdelivered/bank-statement-analyzer/internal/parser"
	"github.com/insightdelivered/bank-statement-analyzer/internal/pipeline"
	"github.com/insightdelivered/bank-statement-analyzer/internal/writer"
)

// ErrColumnsUnresolved is returned when a table's columns need explicit
// assignment with --column.
var ErrColumnsUnresolved = errors.New("columns could not be resolved")

type analyzeOptions struct {
	bank    string
	output  string
	columns []string
	locale  string
	header  bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <statement> [statement ...]",
		Short: "Extract, classify and export statement transactions",
		Long: `Extract the transactions of each statement, write them with the
classification summary to CSV and print the summary.

The CSV is written next to the input unless --output is given.

Example:
  bank-statement-analyzer analyze marzo.pdf abril.pdf
  bank-statement-analyzer analyze --bank galicia --output marzo.csv marzo.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "" && len(args) > 1 {
				return fmt.Errorf("--output can only be used with a single statement")
			}
			columns, err := parser.ParseAssignments(opts.columns)
			if err != nil {
				return err
			}
			tag, err := writer.ParseLocale(opts.locale)
			if err != nil {
				return err
			}
			bank := opts.bank
			if bank == "" {
				bank = a.cfg.DefaultBank
			}

			for _, path := range args {
				if err := a.analyze(cmd, path, pipeline.Request{Bank: bank, Columns: columns}, opts, tag); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.bank, "bank", "", "profile key (auto-detected if omitted)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output CSV path (defaults to the input name with .csv)")
	cmd.Flags().StringArrayVar(&opts.columns, "column", nil, "explicit header assignment, role=Header (repeatable)")
	cmd.Flags().StringVar(&opts.locale, "locale", writer.DefaultLocale.String(), "locale for printed amounts")
	cmd.Flags().BoolVar(&opts.header, "header", true, "include source and bank rows in the CSV")
	return cmd
}

func (a *app) analyze(cmd *cobra.Command, path string, req pipeline.Request, opts analyzeOptions, tag language.Tag) error {
	out := cmd.OutOrStdout()
	res, err := a.engine.ProcessFile(a.context(cmd.Context()), path, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Processing: %s\n", path)
	fmt.Fprintf(out, "  Profile: %s\n", res.Profile)
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "  Warning: %s\n", w)
	}

	if res.Status == pipeline.StatusColumnsUnresolved {
		fmt.Fprintf(out, "  Missing columns: %s\n", joinRoles(res.Missing))
		fmt.Fprintf(out, "  Available headers: %s\n", strings.Join(res.Headers, " | "))
		fmt.Fprintln(out, "  Assign them with --column role=Header.")
		return ErrColumnsUnresolved
	}

	fmt.Fprintf(out, "  Strategy: %s\n", res.Strategy)
	fmt.Fprintf(out, "  Found %d transaction(s)\n", len(res.Records))
	if res.Status == pipeline.StatusNoTransactions {
		fmt.Fprintf(out, "  Warning: no transactions found (%s)\n", res.Reason)
	}

	outPath := opts.output
	if outPath == "" {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
	}
	if filepath.Clean(outPath) == filepath.Clean(path) {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".analysis.csv"
	}

	w := &writer.CSVWriter{IncludeHeader: opts.header, IncludeSummary: true}
	doc := writer.Document{Source: res.Source, Bank: res.Profile, Records: res.Records, Summary: &res.Summary}
	if err := w.WriteToFile(outPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(out, "  Output: %s\n\n", outPath)

	return writer.WriteSummary(out, res.Summary, tag)
}

func joinRoles(roles []parser.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
