// Package symbols canonicalizes user-entered EGX tickers
package symbols

import (
	"strings"
)

// ExchangePrefix is the chart-widget exchange prefix for EGX listings
const ExchangePrefix = "EGX"

// marketSuffix is the conventional Cairo exchange suffix on quote-vendor tickers
const marketSuffix = ".CA"

// aliases maps company names and legacy tickers to the canonical ticker.
// Keys are stored in cleaned form (uppercase, no spaces or punctuation), so
// "EFG Hermes" and "efg-hermes" both hit EFGHERMES. Every value is a fixed
// point of Normalize.
var aliases = map[string]string{
	"CIB":                         "COMI",
	"COMMERCIALINTERNATIONALBANK": "COMI",
	"EFG":                         "HRHO",
	"HERMES":                      "HRHO",
	"EFGHERMES":                   "HRHO",
	"EASTERN":                     "EAST",
	"TALAAT":                      "TMGH",
	"ELSEWEDY":                    "SWDY",
	"TELECOM":                     "ETEL",
	"EZZ":                         "ESRS",
	"ABUQIR":                      "ABUK",
	"MOPCO":                       "MFPC",
	"QNB":                         "QNBA",
	"CITADEL":                     "CCAP",
	"BELTON":                      "BTFH",
}

// Normalize converts a raw ticker string to its canonical symbol.
// It never fails: input that cleans to nothing yields "", which callers must discard.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, marketSuffix)

	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)

	if canonical, ok := Alias(cleaned); ok {
		return canonical
	}
	return cleaned
}

// StripExchangePrefix removes a leading "EXCHANGE:" token such as "EGX:COMI".
func StripExchangePrefix(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// TradingViewSymbol renders a symbol in the widget's EXCHANGE:TICKER form.
// Symbols that already carry an exchange prefix are returned unchanged.
func TradingViewSymbol(symbol string) string {
	s := strings.TrimSpace(symbol)
	if strings.Contains(s, ":") {
		return s
	}
	return ExchangePrefix + ":" + s
}

// Alias reports the canonical ticker for a cleaned alias key
func Alias(cleaned string) (string, bool) {
	v, ok := aliases[cleaned]
	return v, ok
}
