package extractor

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// ExtractTokens reads a PDF and returns its words with page-relative,
// top-down coordinates.
//
// Glyphs come from Page.Content(). Pages where that yields nothing are retried
// through GetTextByRow, which walks the content differently. A document with
// no usable text layer (scanned or image-only) is reported as ErrUnreadable.
func ExtractTokens(filePath string) (pages []models.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: PDF library crashed: %v", ErrUnreadable, r)
		}
	}()

	f, r, openErr := pdf.Open(filePath)
	if openErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, openErr)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: PDF has no pages", ErrUnreadable)
	}

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		glyphs := page.Content().Text
		if len(glyphs) == 0 {
			glyphs = glyphsByRow(page)
		}
		height := pageHeight(page, glyphs)
		pages = append(pages, models.Page{
			Index:  i - 1,
			Tokens: wordsFromGlyphs(glyphs, i-1, height),
		})
	}

	if countTokens(pages) == 0 {
		return nil, fmt.Errorf("%w: no text layer found; the PDF may be image-based or scanned", ErrUnreadable)
	}
	if q := textQuality(pages); q <= 0.6 {
		return nil, fmt.Errorf("%w: extracted text is not readable (%.0f%% printable); the PDF may use custom font encodings", ErrUnreadable, q*100)
	}
	return pages, nil
}

// glyphsByRow is the fallback glyph source for pages whose content stream
// Content() could not interpret.
func glyphsByRow(page pdf.Page) (glyphs []pdf.Text) {
	defer func() {
		if recover() != nil {
			glyphs = nil
		}
	}()
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}
	for _, row := range rows {
		glyphs = append(glyphs, row.Content...)
	}
	return glyphs
}

// pageHeight returns the MediaBox height, or the highest glyph baseline when
// the box is inherited and not visible on the page object.
func pageHeight(page pdf.Page, glyphs []pdf.Text) float64 {
	box := page.V.Key("MediaBox")
	if box.Len() == 4 {
		if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
			return h
		}
	}
	top := 0.0
	for _, g := range glyphs {
		top = math.Max(top, g.Y+g.FontSize)
	}
	return top
}

// wordsFromGlyphs merges glyphs into words. A glyph continues the current word
// when it sits on the same baseline and starts less than a quarter of the
// font size after the previous glyph ends. Whitespace glyphs end a word.
func wordsFromGlyphs(glyphs []pdf.Text, pageIdx int, height float64) []models.RawToken {
	var (
		words []models.RawToken
		cur   strings.Builder
		start pdf.Text
		last  pdf.Text
	)
	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			words = append(words, models.RawToken{
				Text: text,
				Page: pageIdx,
				X:    start.X,
				Y:    height - start.Y,
			})
		}
		cur.Reset()
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		if cur.Len() > 0 && !continuesWord(last, g) {
			flush()
		}
		if strings.IndexFunc(g.S, unicode.IsSpace) == 0 {
			flush()
		}
		if cur.Len() == 0 {
			start = g
		}
		cur.WriteString(g.S)
		last = g
		if strings.LastIndexFunc(g.S, unicode.IsSpace) == len(g.S)-1 {
			flush()
		}
	}
	flush()
	return words
}

func continuesWord(prev, next pdf.Text) bool {
	size := prev.FontSize
	if size <= 0 {
		size = 10
	}
	if math.Abs(next.Y-prev.Y) > size*0.3 {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	return gap < size*0.25 && gap > -size
}

func countTokens(pages []models.Page) int {
	n := 0
	for _, p := range pages {
		n += len(p.Tokens)
	}
	return n
}

// textQuality returns the share of printable characters (letters of any
// script, digits, punctuation, currency symbols) across all tokens.
// Identity-encoded fonts without a ToUnicode map come out as control and
// private-use code points, which pull the ratio down.
func textQuality(pages []models.Page) float64 {
	total := 0
	readable := 0
	for _, p := range pages {
		for _, t := range p.Tokens {
			for _, r := range t.Text {
				total++
				if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsPunct(r) ||
					unicode.IsSymbol(r) || unicode.IsSpace(r) {
					if !unicode.Is(unicode.Co, r) && r != unicode.ReplacementChar {
						readable++
					}
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}
