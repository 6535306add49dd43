package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Débito", "debito"},
		{"  DESCRIPCIÓN  ", "descripcion"},
		{"Comisión   por\tTransferencia", "comision por transferencia"},
		{"Percep Ing Brutos No incl en padrón PBA", "percep ing brutos no incl en padron pba"},
		{"Año Niño", "ano nino"},
		{"Ü", "u"},
		{"İstanbul", "istanbul"},
		{"", ""},
		{"   ", ""},
		{"already normal", "already normal"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q): got %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"IVA - Alicuota No Alcanzado",
		"Impuesto Ley 25.413 Ali Gral s/Débitos",
		"Débito Automático Directo FEDERACIÓN PATRO",
		"İSTANBUL ǅemal ﬁnanzas",
		"é́ combining twice",
		"  \t mixed   Whitespace \n",
		"Ωμέγα ΣΊΣΥΦΟΣ",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestHasPrefixAndContains(t *testing.T) {
	if !HasPrefix("IVA - Alícuota No Alcanzado sobre cuenta", "iva - alicuota no alcanzado") {
		t.Error("expected prefix match ignoring case and accents")
	}
	if HasPrefix("Pago IVA", "IVA") {
		t.Error("prefix must anchor at the start")
	}
	if HasPrefix("anything", "  ") {
		t.Error("blank prefix must not match")
	}
	if !HasPrefix("Saldo al 31/03/2024", "saldo al") || !HasPrefix("Página: 2", "pagina") {
		t.Error("expected prefix match ending at punctuation or space")
	}
	if HasPrefix("SALDO ALQUILER", "saldo al") {
		t.Error("prefix must end on a word boundary")
	}
	if !Contains("Debito Automatico Directo FEDERACION PATRONAL", "federación patro") {
		t.Error("expected contains match")
	}
	if Contains("anything", "") {
		t.Error("empty substring must not match")
	}
}
