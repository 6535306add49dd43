package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/insightdelivered/bank-statement-analyzer/internal/models"
)

var (
	credicoop = &models.BankProfile{Key: "credicoop", ConceptColumn: "Concepto", AmountColumn: "Débito"}
	galicia   = &models.BankProfile{Key: "galicia", ConceptColumn: "Descripción", AmountColumn: "Debitos", SignInversion: true}
)

func TestResolveColumns(t *testing.T) {
	galiciaHeaders := []string{
		"Fecha", "Descripción", "Origen", "Debitos", "Creditos", "Grupo de Conceptos",
		"Concepto", "Numero de Terminal", "Observaciones Cliente", "Numero de Comprobante",
		"Leyendas Adicionales1", "Saldo",
	}

	tests := []struct {
		name      string
		headers   []string
		profile   *models.BankProfile
		overrides map[Role]string
		want      map[Role]string
	}{
		{
			name:    "credicoop export",
			headers: []string{"Fecha", "Concepto", "Nro. Cpbte", "Débito", "Crédito", "Saldo", "Cód. Operativo"},
			profile: credicoop,
			want: map[Role]string{
				RoleDate:    "Fecha",
				RoleConcept: "Concepto",
				RoleVoucher: "Nro. Cpbte",
				RoleDebit:   "Débito",
				RoleCredit:  "Crédito",
				RoleBalance: "Saldo",
				RoleCode:    "Cód. Operativo",
			},
		},
		{
			name:    "profile default beats alias",
			headers: galiciaHeaders,
			profile: galicia,
			want: map[Role]string{
				RoleDate:    "Fecha",
				RoleConcept: "Descripción",
				RoleDebit:   "Debitos",
				RoleCredit:  "Creditos",
				RoleBalance: "Saldo",
				RoleVoucher: "Numero de Comprobante",
			},
		},
		{
			name:    "alias order breaks ties without profile",
			headers: galiciaHeaders,
			want: map[Role]string{
				RoleDate:    "Fecha",
				RoleConcept: "Concepto",
				RoleDebit:   "Debitos",
				RoleCredit:  "Creditos",
				RoleBalance: "Saldo",
				RoleVoucher: "Numero de Comprobante",
			},
		},
		{
			name:      "caller override wins",
			headers:   []string{"Fecha", "Detalle", "Importe", "Debe"},
			profile:   credicoop,
			overrides: map[Role]string{RoleDebit: "Importe"},
			want: map[Role]string{
				RoleDate:    "Fecha",
				RoleConcept: "Detalle",
				RoleDebit:   "Importe",
			},
		},
		{
			name:    "alias contained in header",
			headers: []string{"FECHA OPERACIÓN", "Descripción del movimiento", "Importe Débito $", "Decodificado"},
			want: map[Role]string{
				RoleDate:    "FECHA OPERACIÓN",
				RoleConcept: "Descripción del movimiento",
				RoleDebit:   "Importe Débito $",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewColumnResolver(DefaultAliases, tt.profile, tt.overrides)
			got := r.Resolve(tt.headers)
			if diff := cmp.Diff(tt.want, got.Names); diff != "" {
				t.Errorf("resolved names mismatch (-want +got):\n%s", diff)
			}
			for role, name := range got.Names {
				if got.Headers[got.Index[role]] != name {
					t.Errorf("role %s: index %d points at %q, want %q", role, got.Index[role], got.Headers[got.Index[role]], name)
				}
			}
		})
	}
}

func TestResolveColumnsHeaderUsedOnce(t *testing.T) {
	got := ResolveColumns([]string{"Fecha", "Saldo"}, nil, map[Role]string{RoleConcept: "Saldo"})
	if got.Names[RoleConcept] != "Saldo" {
		t.Fatalf("concept: got %q, want %q", got.Names[RoleConcept], "Saldo")
	}
	if got.Has(RoleBalance) {
		t.Errorf("balance resolved to %q, but the header was already taken", got.Names[RoleBalance])
	}
	if diff := cmp.Diff([]Role{RoleDebit}, got.Missing()); diff != "" {
		t.Errorf("missing roles mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupeHeaders(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "repeats get positional suffixes",
			input:    []string{"Fecha", "Saldo", "Saldo", "Saldo"},
			expected: []string{"Fecha", "Saldo", "Saldo.1", "Saldo.2"},
		},
		{
			name:     "empty headers are named by position",
			input:    []string{"Fecha", "", " ", "Concepto"},
			expected: []string{"Fecha", "Unnamed: 1", "Unnamed: 2", "Concepto"},
		},
		{
			name:     "suffix collision",
			input:    []string{"A", "A", "A.1"},
			expected: []string{"A", "A.1", "A.1.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupeHeaders(tt.input)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("DedupeHeaders mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveDuplicateAmountColumns(t *testing.T) {
	got := ResolveColumns([]string{"Fecha", "Concepto", "Importe", "Importe"}, nil, map[Role]string{
		RoleDebit:  "Importe",
		RoleCredit: "Importe.1",
	})
	if got.Index[RoleDebit] != 2 || got.Index[RoleCredit] != 3 {
		t.Errorf("got debit=%d credit=%d, want 2 and 3", got.Index[RoleDebit], got.Index[RoleCredit])
	}
}

func TestHeaderScore(t *testing.T) {
	all := DefaultAliases.All()
	tests := []struct {
		cells    []string
		expected int
	}{
		{[]string{"Fecha", "Concepto", "Débito", "x"}, 3},
		{[]string{"01/03/2024", "PAGO", "150,00"}, 0},
		{[]string{"SALDO", "4.500,00"}, 1},
		{nil, 0},
	}

	for _, tt := range tests {
		if got := HeaderScore(tt.cells, all); got != tt.expected {
			t.Errorf("HeaderScore(%v): got %d, want %d", tt.cells, got, tt.expected)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" Debit "); !ok || r != RoleDebit {
		t.Errorf("got (%q, %v), want (debit, true)", r, ok)
	}
	if _, ok := ParseRole("amount"); ok {
		t.Error("unknown role must not parse")
	}
}

func TestParseAssignments(t *testing.T) {
	got, err := ParseAssignments([]string{"date=Dia, Concept = Texto", "debit=Monto"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[Role]string{RoleDate: "Dia", RoleConcept: "Texto", RoleDebit: "Monto"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("assignments mismatch (-want +got):\n%s", diff)
	}

	if got, err := ParseAssignments(nil); err != nil || got != nil {
		t.Errorf("empty input: got %v, %v", got, err)
	}
	for _, bad := range []string{"date", "date=", "monto=Importe"} {
		if _, err := ParseAssignments([]string{bad}); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}
