package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// HeaderFunc reports whether a sheet row is the column header row.
type HeaderFunc func(cells []string) bool

// headerScanRows bounds how far into a sheet the header row is looked for.
// Exports often start with a few lines of account details.
const headerScanRows = 30

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a delimited text export. The delimiter is sniffed among
// comma, semicolon and tab; files that are not valid UTF-8 are decoded as
// Windows-1252, the usual encoding of spreadsheet exports in Spanish locales.
func ReadCSV(path string, isHeader HeaderFunc) (*models.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode text: %v", ErrUnreadable, err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse CSV: %v", ErrUnreadable, err)
	}
	return buildTable(grid, isHeader)
}

// sniffDelimiter picks the candidate that splits the most sample lines into
// the same number of fields. Larger field counts break ties.
func sniffDelimiter(data []byte) rune {
	sample := data
	for i, n := 0, 0; i < len(data); i++ {
		if data[i] == '\n' {
			n++
			if n == 20 {
				sample = data[:i]
				break
			}
		}
	}

	best, bestAgree, bestFields := ',', 0, 0
	for _, cand := range []rune{',', ';', '\t'} {
		r := csv.NewReader(bytes.NewReader(sample))
		r.Comma = cand
		r.LazyQuotes = true
		r.FieldsPerRecord = -1

		counts := make(map[int]int)
		for {
			rec, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				break
			}
			counts[len(rec)]++
		}

		agree, fields := 0, 0
		for f, c := range counts {
			if f > 1 && (c > agree || c == agree && f > fields) {
				agree, fields = c, f
			}
		}
		if agree > bestAgree || agree == bestAgree && fields > bestFields {
			best, bestAgree, bestFields = cand, agree, fields
		}
	}
	return best
}

// ReadXLSX reads the first sheet of an Office Open XML workbook. Raw cell
// values are used, so dates arrive as serial numbers and amounts without
// display formatting.
func ReadXLSX(path string, isHeader HeaderFunc) (*models.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: no sheets found in Excel file", ErrUnreadable)
	}
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read Excel rows: %v", ErrUnreadable, err)
	}
	return buildTable(rows, isHeader)
}

// ReadXLS reads the first sheet of a legacy BIFF workbook.
func ReadXLS(path string, isHeader HeaderFunc) (t *models.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = fmt.Errorf("%w: XLS reader crashed: %v", ErrUnreadable, r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: error opening XLS file: %v", ErrUnreadable, err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: no sheets found in XLS file", ErrUnreadable)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: could not get first sheet", ErrUnreadable)
	}

	var grid [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := range cells {
			cells[c] = row.Col(c)
		}
		grid = append(grid, cells)
	}
	return buildTable(grid, isHeader)
}

// buildTable locates the header row and returns the rows below it. The header
// is the first of the leading rows accepted by isHeader, else the first row
// with at least two non-empty cells.
func buildTable(grid [][]string, isHeader HeaderFunc) (*models.Table, error) {
	grid = trimTrailingBlank(grid)
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: file contains no rows", ErrUnreadable)
	}

	header := -1
	if isHeader != nil {
		for i := 0; i < len(grid) && i < headerScanRows; i++ {
			if isHeader(grid[i]) {
				header = i
				break
			}
		}
	}
	if header < 0 {
		header = 0
		for i, row := range grid {
			if nonEmpty(row) >= 2 {
				header = i
				break
			}
		}
	}

	headers := make([]string, len(grid[header]))
	for i, h := range grid[header] {
		headers[i] = strings.TrimSpace(h)
	}
	return &models.Table{
		Headers:   headers,
		Rows:      grid[header+1:],
		HeaderRow: header,
	}, nil
}

func nonEmpty(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func trimTrailingBlank(grid [][]string) [][]string {
	for len(grid) > 0 && nonEmpty(grid[len(grid)-1]) == 0 {
		grid = grid[:len(grid)-1]
	}
	return grid
}
