package models

// BankProfile describes how one institution's statements are read and
// aggregated. Profiles are loaded once and never mutated.
type BankProfile struct {
	Key                string   `yaml:"key" json:"key"`
	Name               string   `yaml:"name" json:"name"`
	TaxConceptPrefixes []string `yaml:"tax_concept_prefixes" json:"taxConceptPrefixes"`
	ConceptColumn      string   `yaml:"concept_column" json:"conceptColumn"`
	AmountColumn       string   `yaml:"amount_column" json:"amountColumn"`
	SignInversion      bool     `yaml:"sign_inversion" json:"signInversion"`
	DetectKeywords     []string `yaml:"detect_keywords" json:"detectKeywords,omitempty"`
}

// CategoryRule is a keyword group: a record belongs to the group when its
// normalized concept contains any of the keywords.
type CategoryRule struct {
	Label    string   `yaml:"label" json:"label"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// PrefixSubtotal is the aggregate of records whose concept starts with Prefix.
type PrefixSubtotal struct {
	Prefix   string  `json:"prefix"`
	Subtotal float64 `json:"subtotal"`
	Count    int     `json:"count"`
}

// GroupSubtotal is the aggregate and detail of one keyword group.
type GroupSubtotal struct {
	Label    string              `json:"label"`
	Subtotal float64             `json:"subtotal"`
	Records  []TransactionRecord `json:"records"`
}

// ClassificationSummary is the outcome of classifying a record sequence.
// Prefix buckets are mutually exclusive; keyword groups are not, so group
// subtotals may double count a record.
type ClassificationSummary struct {
	Prefixes           []PrefixSubtotal `json:"prefixes"`
	GrandTotal         float64          `json:"grandTotal"`
	Groups             []GroupSubtotal  `json:"groups"`
	ParsedAmounts      int              `json:"parsedAmounts"`
	UnparseableAmounts int              `json:"unparseableAmounts"`
}

// Subtotal looks up a prefix or group label.
func (s ClassificationSummary) Subtotal(label string) (float64, bool) {
	for _, p := range s.Prefixes {
		if p.Prefix == label {
			return p.Subtotal, true
		}
	}
	for _, g := range s.Groups {
		if g.Label == label {
			return g.Subtotal, true
		}
	}
	return 0, false
}
