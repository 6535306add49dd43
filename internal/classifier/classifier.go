// Package classifier groups transaction records by concept and computes
// subtotals.
//
// Two kinds of grouping are applied. Tax prefixes are exclusive: a record
// counts toward the first prefix its concept starts with. Keyword groups are
// not: a record is added to every group whose keywords its concept contains,
// so group subtotals can overlap.
package classifier

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
	"github.com/insightdelivered/bank-statement-analyzer/internal/textnorm"
)

// Classifier is safe for concurrent use; it holds only read-only tables.
type Classifier struct {
	profile  models.BankProfile
	prefixes []string // normalized, same order as profile.TaxConceptPrefixes
	groups   []group
}

type group struct {
	label    string
	keywords []string // normalized
}

// New prepares a classifier for profile and the category rules.
func New(profile models.BankProfile, rules []models.CategoryRule) *Classifier {
	c := &Classifier{profile: profile}
	for _, p := range profile.TaxConceptPrefixes {
		c.prefixes = append(c.prefixes, textnorm.Normalize(p))
	}
	for _, r := range rules {
		g := group{label: r.Label}
		for _, kw := range r.Keywords {
			if n := textnorm.Normalize(kw); n != "" {
				g.keywords = append(g.keywords, n)
			}
		}
		c.groups = append(c.groups, g)
	}
	return c
}

// Amount returns the value a record contributes to subtotals and whether it
// has one. Sign-inverted profiles report debits as negative figures; those
// are flipped, positive figures are left as they are.
func (c *Classifier) Amount(r models.TransactionRecord) (float64, bool) {
	if !r.Debit.Valid() || math.IsNaN(r.Debit.Value) {
		return 0, false
	}
	v := r.Debit.Value
	if c.profile.SignInversion && v < 0 {
		v = -v
	}
	return v, true
}

// Classify computes the summary for records. Records without a parsed amount
// are counted but add nothing to any subtotal.
func (c *Classifier) Classify(records []models.TransactionRecord) models.ClassificationSummary {
	prefixSums := make([]decimal.Decimal, len(c.prefixes))
	prefixCounts := make([]int, len(c.prefixes))
	groupSums := make([]decimal.Decimal, len(c.groups))
	groupRecords := make([][]models.TransactionRecord, len(c.groups))

	var sum models.ClassificationSummary
	for _, r := range records {
		v, ok := c.Amount(r)
		switch {
		case ok:
			sum.ParsedAmounts++
		case r.Debit.Unparseable():
			sum.UnparseableAmounts++
		}
		d := decimal.NewFromFloat(v)
		concept := textnorm.Normalize(r.Concept)

		if i := c.matchPrefix(concept); i >= 0 {
			prefixCounts[i]++
			if ok {
				prefixSums[i] = prefixSums[i].Add(d)
			}
		}
		for i, g := range c.groups {
			if !g.matches(concept) {
				continue
			}
			groupRecords[i] = append(groupRecords[i], r)
			if ok {
				groupSums[i] = groupSums[i].Add(d)
			}
		}
	}

	total := decimal.Zero
	sum.Prefixes = make([]models.PrefixSubtotal, len(c.prefixes))
	for i := range c.prefixes {
		total = total.Add(prefixSums[i])
		sum.Prefixes[i] = models.PrefixSubtotal{
			Prefix:   c.profile.TaxConceptPrefixes[i],
			Subtotal: prefixSums[i].InexactFloat64(),
			Count:    prefixCounts[i],
		}
	}
	sum.GrandTotal = total.InexactFloat64()

	sum.Groups = make([]models.GroupSubtotal, len(c.groups))
	for i, g := range c.groups {
		recs := groupRecords[i]
		if recs == nil {
			recs = []models.TransactionRecord{}
		}
		sum.Groups[i] = models.GroupSubtotal{
			Label:    g.label,
			Subtotal: groupSums[i].InexactFloat64(),
			Records:  recs,
		}
	}
	return sum
}

// matchPrefix returns the index of the first prefix concept starts with.
func (c *Classifier) matchPrefix(concept string) int {
	for i, p := range c.prefixes {
		if p != "" && strings.HasPrefix(concept, p) {
			return i
		}
	}
	return -1
}

func (g group) matches(concept string) bool {
	for _, kw := range g.keywords {
		if strings.Contains(concept, kw) {
			return true
		}
	}
	return false
}
