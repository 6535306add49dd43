// Package profile loads the institution profiles, keyword groups and column
// aliases the analyzer runs with. A catalog is read once and then only read.
package profile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
	"github.com/insightdelivered/bank-statement-analyzer/internal/parser"
	"github.com/insightdelivered/bank-statement-analyzer/internal/textnorm"
)

//go:embed profiles.yaml
var defaultCatalog []byte

// ErrUnknownProfile is returned by Get for keys not in the catalog.
var ErrUnknownProfile = errors.New("unknown bank profile")

// DocumentKeywords tune the positioned-text reconstruction.
type DocumentKeywords struct {
	Description []string `yaml:"description_keywords"`
	SkipLine    []string `yaml:"skip_line_keywords"`
}

// Catalog is the full set of configuration tables.
type Catalog struct {
	profiles   []models.BankProfile
	categories []models.CategoryRule
	aliases    parser.AliasTable
	document   DocumentKeywords
}

type catalogFile struct {
	Profiles   []models.BankProfile  `yaml:"profiles"`
	Categories []models.CategoryRule `yaml:"categories"`
	Columns    map[string][]string   `yaml:"columns"`
	Document   DocumentKeywords      `yaml:"document"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML. Column aliases not given fall
// back to parser.DefaultAliases role by role.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse profiles: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, errors.New("catalog defines no bank profiles")
	}

	seen := make(map[string]bool, len(f.Profiles))
	for i, p := range f.Profiles {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			return nil, fmt.Errorf("profile %d has no key", i)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate profile key %q", key)
		}
		seen[key] = true
		f.Profiles[i].Key = key
		if f.Profiles[i].Name == "" {
			f.Profiles[i].Name = key
		}
	}
	for i, r := range f.Categories {
		if strings.TrimSpace(r.Label) == "" {
			return nil, fmt.Errorf("category %d has no label", i)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("category %q has no keywords", r.Label)
		}
	}

	overrides := make(parser.AliasTable, len(f.Columns))
	for name, aliases := range f.Columns {
		role, ok := parser.ParseRole(name)
		if !ok {
			return nil, fmt.Errorf("unknown column role %q", name)
		}
		overrides[role] = aliases
	}

	return &Catalog{
		profiles:   f.Profiles,
		categories: f.Categories,
		aliases:    parser.DefaultAliases.Merge(overrides),
		document:   f.Document,
	}, nil
}

// Get returns the profile registered under key.
func (c *Catalog) Get(key string) (models.BankProfile, error) {
	k := textnorm.Normalize(key)
	for _, p := range c.profiles {
		if textnorm.Normalize(p.Key) == k {
			return p, nil
		}
	}
	return models.BankProfile{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProfile, key, strings.Join(c.Keys(), ", "))
}

// Detect tries to identify the institution from statement text. The first
// profile with a matching detect keyword wins.
func (c *Catalog) Detect(text string) (models.BankProfile, bool) {
	normalized := textnorm.Normalize(text)
	for _, p := range c.profiles {
		for _, kw := range p.DetectKeywords {
			if n := textnorm.Normalize(kw); n != "" && strings.Contains(normalized, n) {
				return p, true
			}
		}
	}
	return models.BankProfile{}, false
}

// Fallback is the profile used when neither a key nor detection selects one.
func (c *Catalog) Fallback() models.BankProfile {
	return c.profiles[0]
}

// Keys lists profile keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.profiles))
	for i, p := range c.profiles {
		keys[i] = p.Key
	}
	return keys
}

// Profiles returns a copy of the profiles in catalog order.
func (c *Catalog) Profiles() []models.BankProfile {
	return append([]models.BankProfile(nil), c.profiles...)
}

// Categories returns a copy of the keyword groups.
func (c *Catalog) Categories() []models.CategoryRule {
	return append([]models.CategoryRule(nil), c.categories...)
}

// Aliases returns the column alias table.
func (c *Catalog) Aliases() parser.AliasTable {
	return c.aliases.Merge(nil)
}

// Document returns the reconstruction keyword lists.
func (c *Catalog) Document() DocumentKeywords {
	return c.document
}
