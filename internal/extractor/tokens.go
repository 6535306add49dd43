package extractor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

// ReadTokens loads a positioned-token dump, as written by WriteTokens or by
// an external layout extractor: [{"index":0,"tokens":[{"text":..,"page":0,"x":..,"y":..}]}].
func ReadTokens(path string) ([]models.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	var pages []models.Page
	if err := json.NewDecoder(f).Decode(&pages); err != nil {
		return nil, fmt.Errorf("%w: invalid token file: %v", ErrUnreadable, err)
	}
	for i := range pages {
		for j := range pages[i].Tokens {
			pages[i].Tokens[j].Page = pages[i].Index
		}
	}
	return pages, nil
}

// WriteTokens writes pages as indented JSON.
func WriteTokens(w io.Writer, pages []models.Page) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pages)
}
