package models

import (
	"strconv"
	"strings"
)

// RawToken is a piece of positioned text produced by the layout extractor.
// X grows to the right and Y grows downward from the top of the page.
type RawToken struct {
	Text string  `json:"text"`
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Page holds the tokens extracted from one page of a document.
type Page struct {
	Index  int        `json:"index"`
	Tokens []RawToken `json:"tokens"`
}

// Line is a run of tokens sharing approximately the same vertical position,
// ordered left to right.
type Line struct {
	Page   int
	Y      float64
	Tokens []RawToken
}

// Words returns the whitespace-separated words of the line in order.
// Tokens carrying several words are split.
func (l Line) Words() []string {
	var words []string
	for _, t := range l.Tokens {
		words = append(words, strings.Fields(t.Text)...)
	}
	return words
}

// Table is a tabular source: one header row plus data rows aligned to it.
type Table struct {
	Headers   []string
	Rows      [][]string
	HeaderRow int // zero-based index of the header row in the sheet
}

// uniqueHeaders names empty headers "Unnamed: i" and suffixes repeats with
// ".1", ".2", ... in order of appearance.
func uniqueHeaders(headers []string) []string {
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	counts := make(map[string]int)
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		if used[name] {
			n := counts[h]
			for used[name] {
				n++
				name = h + "." + strconv.Itoa(n)
			}
			counts[h] = n
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// UniqueHeaders disambiguates a header row: empty names become "Unnamed: i"
// and repeats get positional suffixes.
func UniqueHeaders(headers []string) []string {
	return uniqueHeaders(headers)
}

// SourceKind tells which extraction path a source needs.
type SourceKind string

const (
	SourceTable    SourceKind = "table"
	SourceDocument SourceKind = "document"
)

// Source is the in-memory form of one uploaded statement.
type Source struct {
	Name  string
	Kind  SourceKind
	Table *Table
	Pages []Page
}

// Text returns the source's text joined with spaces, for institution detection.
func (s *Source) Text() string {
	var b strings.Builder
	if s.Table != nil {
		b.WriteString(strings.Join(s.Table.Headers, " "))
		for _, row := range s.Table.Rows {
			b.WriteByte('\n')
			b.WriteString(strings.Join(row, " "))
		}
	}
	for _, p := range s.Pages {
		for _, t := range p.Tokens {
			b.WriteString(t.Text)
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// TokenCount returns the number of positioned tokens across all pages.
func (s *Source) TokenCount() int {
	n := 0
	for _, p := range s.Pages {
		n += len(p.Tokens)
	}
	return n
}
