package parser

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
	"github.com/insightdelivered/bank-statement-analyzer/internal/textnorm"
)

// LineBreak separates original lines in a flattened token stream.
const LineBreak = "\n"

const (
	DefaultLineTolerance = 3.0
	DefaultAnchorWindow  = 3
)

// DefaultDescriptionKeywords are words that mark a line as transaction text
// even when it has no other alphabetic word, e.g. "TRF. 0001234".
var DefaultDescriptionKeywords = []string{
	"pago", "transf", "deposito", "debito", "credito", "compra", "comision",
	"impuesto", "iva", "percep", "extraccion", "interes", "cheque",
}

// DefaultSkipKeywords identify page furniture that must not leak into a
// transaction chunk.
var DefaultSkipKeywords = []string{
	"pagina", "hoja", "continua en", "viene de", "transporte",
	"saldo anterior", "saldo al", "saldo final", "resumen de cuenta",
}

var (
	alphaWord      = regexp.MustCompile(`^\p{L}{2,}$`)
	longWord       = regexp.MustCompile(`^\p{L}{3,}$`)
	voucherPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{3,12}$`)
)

// Reconstructor rebuilds transaction records from positioned text.
type Reconstructor struct {
	// LineTolerance is the largest vertical distance between tokens of one line.
	LineTolerance float64
	// AnchorWindow is how many leading words of a line may hold the anchor date.
	AnchorWindow        int
	DescriptionKeywords []string
	SkipKeywords        []string
	// Aliases identify repeated column-header lines.
	Aliases AliasTable
}

// NewReconstructor returns a Reconstructor with default settings.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{
		LineTolerance:       DefaultLineTolerance,
		AnchorWindow:        DefaultAnchorWindow,
		DescriptionKeywords: DefaultDescriptionKeywords,
		SkipKeywords:        DefaultSkipKeywords,
		Aliases:             DefaultAliases,
	}
}

// Reconstruction is the outcome of reading one document.
type Reconstruction struct {
	Records     []models.TransactionRecord
	AnchorFound bool
	AnchorLine  int
	Lines       int
	Chunks      int
	Dropped     []models.Diagnostic
}

// Reconstruct runs line grouping, anchor detection, flattening, chunking and
// chunk parsing over pages. Failing chunks are dropped and reported; they
// never abort the document.
func (r *Reconstructor) Reconstruct(pages []models.Page) Reconstruction {
	lines := r.GroupLines(pages)
	out := Reconstruction{
		Records:    []models.TransactionRecord{},
		AnchorLine: -1,
		Lines:      len(lines),
	}

	anchor := r.FindAnchor(lines)
	if anchor < 0 {
		return out
	}
	out.AnchorFound = true
	out.AnchorLine = anchor

	chunks := SplitChunks(r.Flatten(lines[anchor:]))
	out.Chunks = len(chunks)
	for i, chunk := range chunks {
		rec, err := ParseChunk(chunk)
		if err != nil {
			out.Dropped = append(out.Dropped, models.Diagnostic{
				Index:  i,
				Text:   joinWords(chunk),
				Result: "dropped",
				Reason: err.Error(),
			})
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

// GroupLines clusters each page's tokens into lines. Tokens are visited top to
// bottom then left to right; a token joins the current line while its Y is
// within LineTolerance of the line's first token.
func (r *Reconstructor) GroupLines(pages []models.Page) []models.Line {
	tol := r.LineTolerance
	if tol <= 0 {
		tol = DefaultLineTolerance
	}

	var lines []models.Line
	for _, page := range pages {
		tokens := make([]models.RawToken, 0, len(page.Tokens))
		for _, t := range page.Tokens {
			if strings.TrimSpace(t.Text) != "" {
				tokens = append(tokens, t)
			}
		}
		sort.SliceStable(tokens, func(i, j int) bool {
			if tokens[i].Y != tokens[j].Y {
				return tokens[i].Y < tokens[j].Y
			}
			return tokens[i].X < tokens[j].X
		})

		var cur *models.Line
		for _, t := range tokens {
			if cur != nil && math.Abs(t.Y-cur.Y) < tol {
				cur.Tokens = append(cur.Tokens, t)
				continue
			}
			lines = append(lines, models.Line{Page: page.Index, Y: t.Y, Tokens: []models.RawToken{t}})
			cur = &lines[len(lines)-1]
		}
	}

	for i := range lines {
		toks := lines[i].Tokens
		sort.SliceStable(toks, func(a, b int) bool { return toks[a].X < toks[b].X })
	}
	return lines
}

// FindAnchor returns the index of the first line that starts transaction
// data, or -1. The line must carry a strict date among its first AnchorWindow
// words, followed on the same line (or, when nothing follows, on the next
// line) by descriptive text.
func (r *Reconstructor) FindAnchor(lines []models.Line) int {
	window := r.AnchorWindow
	if window <= 0 {
		window = DefaultAnchorWindow
	}
	for i, line := range lines {
		words := line.Words()
		for j := 0; j < len(words) && j < window; j++ {
			if !IsStrictDate(words[j]) {
				continue
			}
			rest := words[j+1:]
			if len(rest) == 0 && i+1 < len(lines) {
				rest = lines[i+1].Words()
			}
			if r.describes(rest) {
				return i
			}
			break
		}
	}
	return -1
}

func (r *Reconstructor) describes(words []string) bool {
	for _, w := range words {
		if alphaWord.MatchString(w) {
			return true
		}
	}
	text := strings.Join(words, " ")
	for _, kw := range r.DescriptionKeywords {
		if textnorm.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Flatten concatenates the words of lines into one stream, with LineBreak
// between lines. Boilerplate lines are left out.
func (r *Reconstructor) Flatten(lines []models.Line) []string {
	var stream []string
	for _, line := range lines {
		words := line.Words()
		if len(words) == 0 || r.boilerplate(words) {
			continue
		}
		if len(stream) > 0 {
			stream = append(stream, LineBreak)
		}
		stream = append(stream, words...)
	}
	return stream
}

// boilerplate reports whether a line is page furniture: a footer, a carried
// balance banner or a repeated column header. Lines opening with a date are
// always kept.
//
// A furniture line opens with a skip keyword. A single-word keyword only
// counts when no word of three or more letters follows it, so "Pagina 2 de 3"
// is furniture while a wrapped "TRANSPORTE SUR" stays concept text.
func (r *Reconstructor) boilerplate(words []string) bool {
	if IsStrictDate(words[0]) {
		return false
	}
	text := strings.Join(words, " ")
	for _, kw := range r.SkipKeywords {
		if !textnorm.HasPrefix(text, kw) {
			continue
		}
		if strings.Contains(textnorm.Normalize(kw), " ") || !hasLongWord(words[1:]) {
			return true
		}
	}
	if HeaderScore(words, r.aliases().All()) >= 2 {
		for _, w := range words {
			if IsAmountToken(w) {
				return false
			}
		}
		return true
	}
	return false
}

func hasLongWord(words []string) bool {
	for _, w := range words {
		if longWord.MatchString(w) {
			return true
		}
	}
	return false
}

func (r *Reconstructor) aliases() AliasTable {
	if r.Aliases == nil {
		return DefaultAliases
	}
	return r.Aliases
}

// SplitChunks cuts the stream at every strict date token. Tokens before the
// first date belong to no transaction and are discarded.
func SplitChunks(stream []string) [][]string {
	var chunks [][]string
	for _, tok := range stream {
		if IsStrictDate(tok) {
			chunks = append(chunks, []string{tok})
			continue
		}
		if len(chunks) > 0 {
			last := len(chunks) - 1
			chunks[last] = append(chunks[last], tok)
		}
	}
	return chunks
}

// ParseChunk converts one chunk into a record.
//
// Amounts are collected scanning backwards from the end of the chunk. Line
// breaks and bare currency symbols are transparent; text after the last
// amount is passed over; once amounts are being collected, the first word
// ends the run. At most three amounts are taken: three map to debit, credit
// and balance, two map to credit and balance with a zero debit. Fewer than
// two is ErrMalformedChunk.
func ParseChunk(chunk []string) (models.TransactionRecord, error) {
	var rec models.TransactionRecord
	if len(chunk) == 0 || !IsStrictDate(chunk[0]) {
		return rec, fmt.Errorf("%w: does not start with a date", ErrMalformedChunk)
	}
	rec.Date = chunk[0]
	body := chunk[1:]

	var found []int
	for i := len(body) - 1; i >= 0 && len(found) < 3; i-- {
		tok := body[i]
		if tok == LineBreak || isCurrencyToken(tok) {
			continue
		}
		if IsAmountToken(tok) {
			found = append(found, i)
			continue
		}
		if len(found) > 0 {
			break
		}
	}
	if len(found) < 2 {
		return rec, fmt.Errorf("%w: %d amount(s), need at least 2", ErrMalformedChunk, len(found))
	}
	// back to reading order
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}

	if len(found) == 3 {
		rec.Debit = NewAmount(body[found[0]])
		rec.Credit = NewAmount(body[found[1]])
		rec.Balance = NewAmount(body[found[2]])
	} else {
		rec.Debit = models.Amount{Set: true}
		rec.Credit = NewAmount(body[found[0]])
		rec.Balance = NewAmount(body[found[1]])
	}

	conceptEnd := found[0]
	if v := previousWord(body, found[0]); v >= 0 && isVoucher(body[v]) {
		rec.VoucherNo = body[v]
		conceptEnd = v
	}
	rec.Concept = joinWords(body[:conceptEnd])

	if !IsStrictDate(rec.Date) || !rec.HasAmountDigit() {
		return models.TransactionRecord{}, fmt.Errorf("%w: no amount digits", ErrMalformedChunk)
	}
	return rec, nil
}

// previousWord returns the index of the last real word before i, skipping
// line breaks and currency symbols, or -1.
func previousWord(tokens []string, i int) int {
	for j := i - 1; j >= 0; j-- {
		if tokens[j] == LineBreak || isCurrencyToken(tokens[j]) {
			continue
		}
		return j
	}
	return -1
}

func isVoucher(tok string) bool {
	return voucherPattern.MatchString(tok) && strings.ContainsAny(tok, "0123456789")
}

// joinWords joins tokens with single spaces, leaving out line breaks and
// bare currency symbols.
func joinWords(tokens []string) string {
	words := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == LineBreak || isCurrencyToken(t) {
			continue
		}
		words = append(words, t)
	}
	return strings.Join(words, " ")
}
