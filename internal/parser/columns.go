package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
	"github.com/insightdelivered/bank-statement-analyzer/internal/textnorm"
)

// Role is a semantic column of a statement.
type Role string

const (
	RoleDate    Role = "date"
	RoleConcept Role = "concept"
	RoleVoucher Role = "voucher"
	RoleDebit   Role = "debit"
	RoleCredit  Role = "credit"
	RoleBalance Role = "balance"
	RoleCode    Role = "code"
)

// resolveOrder fixes which role claims a header first when two could match.
var resolveOrder = []Role{RoleDate, RoleConcept, RoleDebit, RoleCredit, RoleBalance, RoleVoucher, RoleCode}

// RequiredRoles must resolve for a table to be extractable.
var RequiredRoles = []Role{RoleDate, RoleConcept, RoleDebit}

// Roles lists every role in resolution order.
func Roles() []Role {
	out := make([]Role, len(resolveOrder))
	copy(out, resolveOrder)
	return out
}

// ParseRole maps a user-supplied role name to a Role.
func ParseRole(s string) (Role, bool) {
	n := textnorm.Normalize(s)
	for _, r := range resolveOrder {
		if string(r) == n {
			return r, true
		}
	}
	return "", false
}

// AliasTable lists, per role, the header spellings that identify it.
// Aliases are compared normalized and tried in order.
type AliasTable map[Role][]string

// DefaultAliases covers the Spanish headers of Argentine banks plus the
// English ones some exports use.
var DefaultAliases = AliasTable{
	RoleDate:    {"fecha", "fecha operacion", "fecha valor", "fecha mov", "date"},
	RoleConcept: {"concepto", "descripcion", "detalle", "movimiento", "leyenda", "description"},
	RoleDebit:   {"debito", "debitos", "debe", "importe debito", "debit"},
	RoleCredit:  {"credito", "creditos", "haber", "importe credito", "credit"},
	RoleBalance: {"saldo", "saldo parcial", "balance"},
	RoleVoucher: {"comprobante", "nro comprobante", "nro. comprobante", "referencia", "nro. cpbte", "voucher"},
	RoleCode:    {"codigo", "cod", "cod. operativo", "code"},
}

// Merge returns a copy of t where roles present in other replace t's aliases.
func (t AliasTable) Merge(other AliasTable) AliasTable {
	out := make(AliasTable, len(t))
	for r, a := range t {
		out[r] = append([]string(nil), a...)
	}
	for r, a := range other {
		if len(a) > 0 {
			out[r] = append([]string(nil), a...)
		}
	}
	return out
}

// All returns every alias in the table, normalized.
func (t AliasTable) All() []string {
	var out []string
	for _, r := range resolveOrder {
		for _, a := range t[r] {
			out = append(out, textnorm.Normalize(a))
		}
	}
	return out
}

// Resolution is the result of resolving a header row: each resolved
// role points at the original header name and its position.
type Resolution struct {
	Headers []string // deduplicated header names
	Names   map[Role]string
	Index   map[Role]int
}

// Has reports whether role was resolved.
func (m Resolution) Has(r Role) bool {
	_, ok := m.Index[r]
	return ok
}

// Missing returns the required roles that did not resolve.
func (m Resolution) Missing() []Role {
	var missing []Role
	for _, r := range RequiredRoles {
		if !m.Has(r) {
			missing = append(missing, r)
		}
	}
	return missing
}

// ColumnResolver maps header names to semantic roles.
type ColumnResolver struct {
	Aliases AliasTable
	// Defaults are the per-role header names preferred over any alias,
	// typically the profile's concept and amount columns.
	Defaults map[Role]string
}

// NewColumnResolver builds a resolver for profile, with caller overrides
// taking precedence over the profile's default column names.
func NewColumnResolver(aliases AliasTable, profile *models.BankProfile, overrides map[Role]string) *ColumnResolver {
	if aliases == nil {
		aliases = DefaultAliases
	}
	defaults := make(map[Role]string)
	if profile != nil {
		if profile.ConceptColumn != "" {
			defaults[RoleConcept] = profile.ConceptColumn
		}
		if profile.AmountColumn != "" {
			defaults[RoleDebit] = profile.AmountColumn
		}
	}
	for r, h := range overrides {
		if h != "" {
			defaults[r] = h
		}
	}
	return &ColumnResolver{Aliases: aliases, Defaults: defaults}
}

// DedupeHeaders disambiguates repeated and empty header names positionally.
func DedupeHeaders(headers []string) []string {
	return models.UniqueHeaders(headers)
}

// Resolve assigns each role at most one header and each header at most one role.
//
// For every role, in order: a header equal to the default name wins; then the
// first alias that equals a header; then the first alias contained in a header.
func (c *ColumnResolver) Resolve(headers []string) Resolution {
	deduped := DedupeHeaders(headers)
	normalized := make([]string, len(deduped))
	for i, h := range deduped {
		normalized[i] = textnorm.Normalize(h)
	}

	m := Resolution{
		Headers: deduped,
		Names:   make(map[Role]string),
		Index:   make(map[Role]int),
	}
	taken := make([]bool, len(deduped))
	assign := func(r Role, i int) {
		m.Names[r] = deduped[i]
		m.Index[r] = i
		taken[i] = true
	}

	for _, role := range resolveOrder {
		if def := textnorm.Normalize(c.Defaults[role]); def != "" {
			if i := findHeader(normalized, taken, func(h string) bool { return h == def }); i >= 0 {
				assign(role, i)
				continue
			}
		}
		if i := c.matchAlias(role, normalized, taken, false); i >= 0 {
			assign(role, i)
			continue
		}
		if i := c.matchAlias(role, normalized, taken, true); i >= 0 {
			assign(role, i)
		}
	}
	return m
}

func (c *ColumnResolver) matchAlias(role Role, headers []string, taken []bool, contains bool) int {
	for _, alias := range c.Aliases[role] {
		a := textnorm.Normalize(alias)
		if a == "" {
			continue
		}
		i := findHeader(headers, taken, func(h string) bool {
			if contains {
				return containsWord(h, a)
			}
			return h == a
		})
		if i >= 0 {
			return i
		}
	}
	return -1
}

func findHeader(headers []string, taken []bool, match func(string) bool) int {
	for i, h := range headers {
		if !taken[i] && match(h) {
			return i
		}
	}
	return -1
}

// containsWord reports whether alias occurs in header. Short aliases such
// as "cod" or "debe" must not match inside unrelated words.
func containsWord(header, alias string) bool {
	for start := 0; start+len(alias) <= len(header); start++ {
		if header[start:start+len(alias)] != alias {
			continue
		}
		end := start + len(alias)
		leftOK := start == 0 || !isWordByte(header[start-1])
		rightOK := end == len(header) || !isWordByte(header[end])
		if leftOK && rightOK {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 0x80
}

// HeaderScore counts the cells of a row whose normalized text equals an alias.
// A row scoring two or more is taken to be a header row.
func HeaderScore(cells []string, aliases []string) int {
	set := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		set[textnorm.Normalize(a)] = true
	}
	score := 0
	for _, c := range cells {
		if n := textnorm.Normalize(c); n != "" && set[n] {
			score++
		}
	}
	return score
}

// ResolveColumns is a convenience wrapper around ColumnResolver.Resolve.
func ResolveColumns(headers []string, aliases AliasTable, defaults map[Role]string) Resolution {
	r := &ColumnResolver{Aliases: aliases, Defaults: defaults}
	if r.Aliases == nil {
		r.Aliases = DefaultAliases
	}
	return r.Resolve(headers)
}

// ParseAssignments reads explicit header assignments written as
// "role=Header" pairs. Pairs may also be comma separated within one string.
func ParseAssignments(pairs []string) (map[Role]string, error) {
	var out map[Role]string
	for _, arg := range pairs {
		for _, pair := range strings.Split(arg, ",") {
			if strings.TrimSpace(pair) == "" {
				continue
			}
			name, header, ok := strings.Cut(pair, "=")
			header = strings.TrimSpace(header)
			if !ok || header == "" {
				return nil, fmt.Errorf("invalid column assignment %q: want role=Header", pair)
			}
			role, ok := ParseRole(name)
			if !ok {
				return nil, fmt.Errorf("unknown column role %q", strings.TrimSpace(name))
			}
			if out == nil {
				out = make(map[Role]string)
			}
			out[role] = header
		}
	}
	return out, nil
}
