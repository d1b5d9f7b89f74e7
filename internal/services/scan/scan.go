// Package scan turns free-form ticker input into the stock list of a dashboard
package scan

import (
	"errors"
	"strings"

	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/reference"
	"github.com/bobmcallan/egxtrends/internal/symbols"
)

// DefaultMaxSymbols caps a single scan
const DefaultMaxSymbols = 40

// ErrEmptyInput is returned when the input holds no valid symbol
var ErrEmptyInput = errors.New("no valid symbols in input")

// Parse splits input on semicolons and line breaks, normalizes each entry,
// drops invalid and duplicate symbols (first occurrence wins) and caps the
// result at limit entries. Metadata comes from the static catalogs.
func Parse(input string, limit int) ([]models.Stock, error) {
	if limit <= 0 {
		limit = DefaultMaxSymbols
	}

	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})

	seen := make(map[string]bool, len(fields))
	stocks := make([]models.Stock, 0, len(fields))
	for _, raw := range fields {
		sym := symbols.Normalize(symbols.StripExchangePrefix(raw))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		stocks = append(stocks, Resolve(sym))
		if len(stocks) == limit {
			break
		}
	}

	if len(stocks) == 0 {
		return nil, ErrEmptyInput
	}
	return stocks, nil
}

// Resolve returns catalog metadata for a canonical symbol, or a generic entry
func Resolve(symbol string) models.Stock {
	if s, ok := reference.Lookup(symbol); ok {
		return s
	}
	return models.Stock{Symbol: symbol, Name: symbol + " Stock", Sector: "General"}
}

// ParseSymbols normalizes an explicit symbol list the same way as Parse
func ParseSymbols(raw []string, limit int) ([]models.Stock, error) {
	return Parse(strings.Join(raw, ";"), limit)
}

// Filter keeps stocks whose name or symbol contains term, case-insensitively.
// A blank term keeps everything.
func Filter(stocks []models.Stock, term string) []models.Stock {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Stock, 0, len(stocks))
	for _, s := range stocks {
		if term == "" || strings.Contains(strings.ToLower(s.Name), term) || strings.Contains(strings.ToLower(s.Symbol), term) {
			out = append(out, s)
		}
	}
	return out
}
