package parser

import (
	"errors"
	"fmt"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// Strategy is one way of turning a source into transaction records.
type Strategy interface {
	// Name identifies the strategy in results and logs.
	Name() string
	// Extract reads src. It never panics and never returns a nil Outcome.Records
	// on success.
	Extract(src *models.Source, opts Options) Outcome
}

// Options carries the per-call configuration tables. Nothing in it is
// mutated by a strategy.
type Options struct {
	Profile *models.BankProfile
	Aliases AliasTable
	// Columns are explicit header assignments that override resolution.
	Columns map[Role]string

	LineTolerance       float64
	DescriptionKeywords []string
	SkipKeywords        []string
}

// Outcome is the result of one strategy attempt.
type Outcome struct {
	Strategy    string
	Records     []models.TransactionRecord
	Columns     map[Role]string
	Headers     []string
	Diagnostics []models.Diagnostic
	Reason      string
	Err         error
}

// OK reports whether the attempt produced usable records.
func (o Outcome) OK() bool {
	return o.Err == nil && len(o.Records) > 0
}

// Applicable reports whether the strategy could read the source at all.
func (o Outcome) Applicable() bool {
	return !errors.Is(o.Err, ErrNotApplicable)
}

// Strategy names accepted by New.
const (
	StrategyTable    = "table"
	StrategyDocument = "document"
)

// New returns the strategy registered under name.
func New(name string) (Strategy, error) {
	switch name {
	case StrategyTable:
		return TableStrategy{}, nil
	case StrategyDocument:
		return DocumentStrategy{}, nil
	default:
		return nil, fmt.Errorf("unsupported extraction strategy: %q", name)
	}
}

// DefaultStrategies returns the strategies in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{TableStrategy{}, DocumentStrategy{}}
}

// TableStrategy reads sources that arrive as a grid.
type TableStrategy struct{}

func (TableStrategy) Name() string { return StrategyTable }

func (s TableStrategy) Extract(src *models.Source, opts Options) Outcome {
	out := Outcome{Strategy: s.Name()}
	if src == nil || src.Table == nil {
		out.Err = ErrNotApplicable
		out.Reason = "source has no table"
		return out
	}

	ex := &StructuredExtractor{Resolver: NewColumnResolver(opts.Aliases, opts.Profile, opts.Columns)}
	res, err := ex.Extract(src.Table)
	out.Columns = res.Columns.Names
	out.Headers = res.Columns.Headers
	out.Records = res.Records
	out.Diagnostics = res.Diagnostics
	if err != nil {
		out.Err = err
		out.Reason = err.Error()
		return out
	}
	if len(out.Records) == 0 {
		out.Reason = fmt.Sprintf("none of %d rows has a valid date and amount", len(src.Table.Rows))
	}
	return out
}

// DocumentStrategy reads sources that arrive as positioned text.
type DocumentStrategy struct{}

func (DocumentStrategy) Name() string { return StrategyDocument }

func (s DocumentStrategy) Extract(src *models.Source, opts Options) Outcome {
	out := Outcome{Strategy: s.Name(), Records: []models.TransactionRecord{}}
	if src == nil || src.TokenCount() == 0 {
		out.Err = ErrNotApplicable
		out.Reason = "source has no positioned text"
		return out
	}

	r := NewReconstructor()
	if opts.LineTolerance > 0 {
		r.LineTolerance = opts.LineTolerance
	}
	if len(opts.DescriptionKeywords) > 0 {
		r.DescriptionKeywords = opts.DescriptionKeywords
	}
	if len(opts.SkipKeywords) > 0 {
		r.SkipKeywords = opts.SkipKeywords
	}
	if opts.Aliases != nil {
		r.Aliases = opts.Aliases
	}

	res := r.Reconstruct(src.Pages)
	out.Records = res.Records
	out.Diagnostics = res.Dropped
	switch {
	case !res.AnchorFound:
		out.Err = ErrNoAnchor
		out.Reason = fmt.Sprintf("%v in %d lines", ErrNoAnchor, res.Lines)
	case len(res.Records) == 0:
		out.Reason = fmt.Sprintf("none of %d chunks is a complete transaction", res.Chunks)
	}
	return out
}
