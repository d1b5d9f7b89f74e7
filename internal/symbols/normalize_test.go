package symbols

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"comi.ca", "COMI"},
		{"COMI.CA", "COMI"},
		{"  hrho.ca ", "HRHO"},
		{"CIB", "COMI"},
		{"cib.ca", "COMI"},
		{"EFG Hermes", "HRHO"},
		{"Commercial International Bank", "COMI"},
		{"efg-hermes", "HRHO"},
		{"QNB", "QNBA"},
		{"ACAMD", "ACAMD"},
		{"T.M.G.H", "TMGH"},
		{"", ""},
		{"   ", ""},
		{".CA", ""},
		{"$$$", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"comi.ca", "CIB", "efg hermes", "x.ca.ca", "Talaat", "belton", "egx:swdy",
		"ab cd", "123", "ÉTEL", "fwry.CA", "moil", "",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestAliasTargetsAreFixedPoints(t *testing.T) {
	for key, target := range aliases {
		if got := Normalize(target); got != target {
			t.Errorf("alias %s -> %s is not a fixed point (normalizes to %s)", key, target, got)
		}
	}
}

func TestStripExchangePrefix(t *testing.T) {
	tests := map[string]string{
		"EGX:COMI":  "COMI",
		"COMI":      "COMI",
		" egx:hrho": "hrho",
		"EGX:":      "",
	}
	for in, want := range tests {
		if got := StripExchangePrefix(in); got != want {
			t.Errorf("StripExchangePrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTradingViewSymbol(t *testing.T) {
	if got := TradingViewSymbol("COMI"); got != "EGX:COMI" {
		t.Errorf("TradingViewSymbol(COMI) = %q", got)
	}
	if got := TradingViewSymbol("NASDAQ:AAPL"); got != "NASDAQ:AAPL" {
		t.Errorf("TradingViewSymbol kept prefix = %q", got)
	}
}

func TestAlias(t *testing.T) {
	if got, ok := Alias("EFGHERMES"); !ok || got != "HRHO" {
		t.Errorf("Alias(EFGHERMES) = %q, %v; want HRHO, true", got, ok)
	}
	if _, ok := Alias("COMI"); ok {
		t.Error("Alias(COMI) reported a canonical ticker as an alias")
	}
}
