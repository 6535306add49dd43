package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedChunk marks a document chunk that is not a complete
	// transaction. Such chunks are dropped, never fatal.
	ErrMalformedChunk = errors.New("malformed transaction chunk")

	// ErrNoAnchor means no line in the document looked like the start of
	// transaction data.
	ErrNoAnchor = errors.New("no transaction start line found")

	// ErrNotApplicable is returned by a strategy that cannot read the given
	// kind of source.
	ErrNotApplicable = errors.New("strategy does not apply to this source")
)

// ColumnUnresolvedError reports required roles that no header matched.
// It is recoverable: the caller can retry with explicit column assignments.
type ColumnUnresolvedError struct {
	Missing []Role
	Headers []string
}

func (e *ColumnUnresolvedError) Error() string {
	missing := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		missing[i] = string(r)
	}
	return fmt.Sprintf("could not resolve columns %s among headers [%s]",
		strings.Join(missing, ", "), strings.Join(e.Headers, ", "))
}
