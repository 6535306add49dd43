// Package extractor turns statement files into in-memory sources: positioned
// words for PDFs and token dumps, grids for CSV and spreadsheet exports.
package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// ErrUnreadable wraps every failure to open or decode a source. It is the
// only condition that aborts processing of a file.
var ErrUnreadable = errors.New("source unreadable")

// SupportedExtensions lists the file types Load accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".json", ".csv", ".txt", ".xlsx", ".xlsm", ".xls"}
}

// Supported reports whether Load accepts files named like path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// Load reads path into a Source, choosing the reader by extension.
// isHeader locates the header row of tabular files and may be nil.
func Load(path string, isHeader HeaderFunc) (*models.Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	src := &models.Source{Name: filepath.Base(path)}
	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		src.Kind = models.SourceDocument
		src.Pages, err = ExtractTokens(path)
	case ".json":
		src.Kind = models.SourceDocument
		src.Pages, err = ReadTokens(path)
	case ".csv", ".txt":
		src.Kind = models.SourceTable
		src.Table, err = ReadCSV(path, isHeader)
	case ".xlsx", ".xlsm":
		src.Kind = models.SourceTable
		src.Table, err = ReadXLSX(path, isHeader)
	case ".xls":
		src.Kind = models.SourceTable
		src.Table, err = ReadXLS(path, isHeader)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q (supported: %s)",
			ErrUnreadable, ext, strings.Join(SupportedExtensions(), ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.Name, err)
	}
	return src, nil
}
