// Package pipeline runs one statement through extraction and classification.
//
// An Engine holds only read-only configuration, so a single Engine can serve
// concurrent calls. Every call works on its own data and yields the same
// Result for the same input.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/bank-statement-analyzer/internal/classifier"
	"github.com/insightdelivered/bank-statement-analyzer/internal/extractor"
	"github.com/insightdelivered/bank-statement-analyzer/internal/logger"
	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
	"github.com/insightdelivered/bank-statement-analyzer/internal/parser"
	"github.com/insightdelivered/bank-statement-analyzer/internal/profile"
)

// Status tells apart a good result, an empty one and one that needs input.
type Status string

const (
	StatusOK                Status = "ok"
	StatusNoTransactions    Status = "no_transactions"
	StatusColumnsUnresolved Status = "columns_unresolved"
)

// WarningNoNumericData is added when records were found but none of their
// amounts could be read.
const WarningNoNumericData = "no numeric data recognized"

// Request describes one processing call.
type Request struct {
	Source *models.Source
	// Bank selects a profile by key; empty auto-detects.
	Bank string
	// Columns assigns headers to roles explicitly.
	Columns map[parser.Role]string
}

// Result is the outcome of one processing call. Records is never nil.
type Result struct {
	Source      string                       `json:"source"`
	Profile     string                       `json:"profile"`
	Strategy    string                       `json:"strategy,omitempty"`
	Status      Status                       `json:"status"`
	Reason      string                       `json:"reason,omitempty"`
	Records     []models.TransactionRecord   `json:"records"`
	Summary     models.ClassificationSummary `json:"summary"`
	Columns     map[parser.Role]string       `json:"columns,omitempty"`
	Missing     []parser.Role                `json:"missing,omitempty"`
	Headers     []string                     `json:"headers,omitempty"`
	Diagnostics []models.Diagnostic          `json:"diagnostics,omitempty"`
	Warnings    []string                     `json:"warnings,omitempty"`
}

// Engine wires the configuration tables to the extraction strategies.
type Engine struct {
	catalog       *profile.Catalog
	strategies    []parser.Strategy
	lineTolerance float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrategies replaces the default strategy order.
func WithStrategies(s ...parser.Strategy) Option {
	return func(e *Engine) { e.strategies = s }
}

// WithLineTolerance sets the vertical tolerance used to group document words
// into lines.
func WithLineTolerance(tol float64) Option {
	return func(e *Engine) { e.lineTolerance = tol }
}

// New creates an Engine for catalog.
func New(catalog *profile.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:       catalog,
		strategies:    parser.DefaultStrategies(),
		lineTolerance: parser.DefaultLineTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the engine's configuration tables.
func (e *Engine) Catalog() *profile.Catalog {
	return e.catalog
}

// ProcessFile loads path and processes it. Only an unreadable file is an
// error; everything else is reported in the Result.
func (e *Engine) ProcessFile(ctx context.Context, path string, req Request) (*Result, error) {
	aliases := e.catalog.Aliases().All()
	src, err := extractor.Load(path, func(cells []string) bool {
		return parser.HeaderScore(cells, aliases) >= 2
	})
	if err != nil {
		return nil, err
	}
	req.Source = src
	return e.Process(ctx, req)
}

// Process extracts records from req.Source with the first strategy that
// succeeds and classifies them with the selected profile.
func (e *Engine) Process(ctx context.Context, req Request) (*Result, error) {
	if req.Source == nil {
		return nil, fmt.Errorf("%w: no source given", extractor.ErrUnreadable)
	}
	log := logger.WithFields(logger.FromContext(ctx), map[string]any{
		"source": req.Source.Name,
	})

	res := &Result{
		Source:  req.Source.Name,
		Records: []models.TransactionRecord{},
	}

	prof, warning, err := e.selectProfile(req)
	if err != nil {
		return nil, err
	}
	res.Profile = prof.Key
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}

	doc := e.catalog.Document()
	opts := parser.Options{
		Profile:             &prof,
		Aliases:             e.catalog.Aliases(),
		Columns:             req.Columns,
		LineTolerance:       e.lineTolerance,
		DescriptionKeywords: doc.Description,
		SkipKeywords:        doc.SkipLine,
	}

	var (
		chosen     *parser.Outcome
		unresolved *parser.Outcome
		reasons    []string
	)
	for _, s := range e.strategies {
		out := s.Extract(req.Source, opts)
		log.Debug().
			Str("strategy", out.Strategy).
			Int("records", len(out.Records)).
			Int("diagnostics", len(out.Diagnostics)).
			Str("reason", out.Reason).
			Msg("strategy attempted")
		for _, d := range out.Diagnostics {
			log.Debug().Str("strategy", out.Strategy).Int("index", d.Index).Str("result", d.Result).Str("reason", d.Reason).Msg(d.Text)
		}

		if !out.Applicable() {
			continue
		}
		if out.OK() {
			chosen = &out
			break
		}
		var cu *parser.ColumnUnresolvedError
		if errors.As(out.Err, &cu) && unresolved == nil {
			o := out
			unresolved = &o
		}
		if out.Reason != "" {
			reasons = append(reasons, out.Strategy+": "+out.Reason)
		}
	}

	switch {
	case chosen != nil:
		res.Status = StatusOK
		res.Strategy = chosen.Strategy
		res.Records = chosen.Records
		res.Columns = chosen.Columns
		res.Headers = chosen.Headers
		res.Diagnostics = chosen.Diagnostics
	case unresolved != nil:
		var cu *parser.ColumnUnresolvedError
		errors.As(unresolved.Err, &cu)
		res.Status = StatusColumnsUnresolved
		res.Strategy = unresolved.Strategy
		res.Reason = unresolved.Reason
		res.Columns = unresolved.Columns
		res.Missing = cu.Missing
		res.Headers = cu.Headers
	default:
		res.Status = StatusNoTransactions
		res.Reason = strings.Join(reasons, "; ")
		if res.Reason == "" {
			res.Reason = "no extraction strategy applies to this source"
		}
	}

	res.Summary = classifier.New(prof, e.catalog.Categories()).Classify(res.Records)
	if len(res.Records) > 0 && res.Summary.ParsedAmounts == 0 {
		res.Warnings = append(res.Warnings, WarningNoNumericData)
	}
	if n := res.Summary.UnparseableAmounts; n > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d amount(s) could not be parsed", n))
	}

	log.Info().
		Str("profile", res.Profile).
		Str("strategy", res.Strategy).
		Str("status", string(res.Status)).
		Int("records", len(res.Records)).
		Float64("grand_total", res.Summary.GrandTotal).
		Msg("statement processed")
	return res, nil
}

// selectProfile picks the profile by key, by detection in the source text,
// or falls back to the catalog's first profile with a warning.
func (e *Engine) selectProfile(req Request) (models.BankProfile, string, error) {
	if req.Bank != "" {
		p, err := e.catalog.Get(req.Bank)
		return p, "", err
	}
	if p, ok := e.catalog.Detect(req.Source.Text()); ok {
		return p, "", nil
	}
	p := e.catalog.Fallback()
	return p, fmt.Sprintf("bank not detected; using profile %q", p.Key), nil
}
