// Package reference holds the static EGX catalogs and the approximate-price seed table.
// The tables are process-wide constants; accessors hand out copies.
package reference

import (
	"github.com/bobmcallan/egxtrends/internal/models"
)

// DefaultSeedPrice seeds synthesis for symbols absent from the approximate-price table
const DefaultSeedPrice = 10.0

var egx30 = []models.Stock{
	{Symbol: "COMI", Name: "CIB Bank", Sector: "Banking"},
	{Symbol: "EAST", Name: "Eastern Company", Sector: "Tobacco"},
	{Symbol: "EFID", Name: "Edita Food", Sector: "Food"},
	{Symbol: "HRHO", Name: "EFG Hermes", Sector: "Financial"},
	{Symbol: "TMGH", Name: "Talaat Moustafa", Sector: "Real Estate"},
	{Symbol: "SWDY", Name: "Elsewedy Electric", Sector: "Industrial"},
	{Symbol: "ETEL", Name: "Telecom Egypt", Sector: "Telecom"},
	{Symbol: "ESRS", Name: "Ezz Steel", Sector: "Resources"},
	{Symbol: "FWRY", Name: "Fawry", Sector: "Tech"},
	{Symbol: "ORAS", Name: "Orascom Const", Sector: "Construction"},
	{Symbol: "HDBK", Name: "HDBank", Sector: "Banking"},
	{Symbol: "EKHO", Name: "Egypt Kuwait", Sector: "Financial"},
	{Symbol: "AMOC", Name: "AMOC", Sector: "Energy"},
	{Symbol: "ABUK", Name: "Abu Qir", Sector: "Chemicals"},
	{Symbol: "SKPC", Name: "Sidi Kerir", Sector: "Chemicals"},
	{Symbol: "ISPH", Name: "Ibnsina Pharma", Sector: "Pharma"},
	{Symbol: "CICH", Name: "CI Capital", Sector: "Financial"},
	{Symbol: "MFPC", Name: "MOPCO", Sector: "Chemicals"},
	{Symbol: "ORWE", Name: "Oriental Weavers", Sector: "Textiles"},
	{Symbol: "HELI", Name: "Heliopolis", Sector: "Real Estate"},
	{Symbol: "PHDC", Name: "Palm Hills", Sector: "Real Estate"},
	{Symbol: "ADIB", Name: "Abu Dhabi Islamic", Sector: "Banking"},
	{Symbol: "CIEB", Name: "Credit Agricole", Sector: "Banking"},
	{Symbol: "JUFO", Name: "Juhayna", Sector: "Food"},
	{Symbol: "EFIH", Name: "e-finance", Sector: "Tech"},
	{Symbol: "DOMT", Name: "Domty", Sector: "Food"},
	{Symbol: "ORHD", Name: "Orascom Dev", Sector: "Real Estate"},
	{Symbol: "AUTO", Name: "GB Corp", Sector: "Auto"},
	{Symbol: "CLHO", Name: "Cleopatra Hosp", Sector: "Healthcare"},
	{Symbol: "ZMID", Name: "Zahraa Maadi", Sector: "Real Estate"},
}

var egx70 = []models.Stock{
	{Symbol: "MOIL", Name: "Maridive", Sector: "Energy"},
	{Symbol: "DSCW", Name: "Dice Sport", Sector: "Textiles"},
	{Symbol: "ASCM", Name: "ASEC Mining", Sector: "Resources"},
	{Symbol: "BINV", Name: "B Investments", Sector: "Financial"},
	{Symbol: "CSAG", Name: "Canal Shipping", Sector: "Shipping"},
	{Symbol: "EGTS", Name: "Egyptian Resorts", Sector: "Tourism"},
	{Symbol: "UEGC", Name: "Upper Egypt", Sector: "Construction"},
	{Symbol: "AJWA", Name: "Ajwa", Sector: "Food"},
	{Symbol: "ARAB", Name: "Arab Developers", Sector: "Real Estate"},
	{Symbol: "BTFH", Name: "Belton", Sector: "Financial"},
	{Symbol: "CCAP", Name: "Citadel Capital", Sector: "Financial"},
	{Symbol: "DAPH", Name: "Delta Pharma", Sector: "Pharma"},
	{Symbol: "EGAL", Name: "Egypt Aluminum", Sector: "Resources"},
	{Symbol: "ELSH", Name: "Al Shams", Sector: "Real Estate"},
	{Symbol: "GTHE", Name: "Global Telecom", Sector: "Telecom"},
	{Symbol: "UNIT", Name: "United Housing", Sector: "Real Estate"},
	{Symbol: "RACC", Name: "Raya", Sector: "Tech"},
	{Symbol: "MPRC", Name: "Media Prod", Sector: "Media"},
	{Symbol: "ACAMD", Name: "Arab Co", Sector: "Health"},
	{Symbol: "ODOD", Name: "Odin", Sector: "Financial"},
}

// approxPrices are rough last-known closes in EGP, used only to seed synthesis
var approxPrices = map[string]float64{
	"COMI": 82.50, "EAST": 29.00, "EFID": 26.50, "HRHO": 19.50, "TMGH": 58.00,
	"SWDY": 46.50, "ETEL": 35.00, "ESRS": 60.00, "FWRY": 6.80, "ORAS": 185.00,
	"AMOC": 11.20, "ABUK": 62.00, "SKPC": 29.50, "MFPC": 49.50, "ADIB": 48.00,
	"CCAP": 2.30, "BTFH": 3.60, "EGAL": 68.00, "ISPH": 3.10, "PHDC": 4.20,
	"HELI": 12.50, "ORWE": 18.00, "CIEB": 22.00, "AUTO": 7.50, "EKHO": 42.00,
}

var bySymbol = func() map[string]models.Stock {
	m := make(map[string]models.Stock, len(egx30)+len(egx70))
	for _, s := range egx70 {
		m[s.Symbol] = s
	}
	// EGX30 metadata wins for symbols listed in both
	for _, s := range egx30 {
		m[s.Symbol] = s
	}
	return m
}()

// Catalog returns a copy of the static constituents of index.
// Unknown indexes yield nil.
func Catalog(index models.MarketIndex) []models.Stock {
	var src []models.Stock
	switch index {
	case models.IndexEGX30:
		src = egx30
	case models.IndexEGX70:
		src = egx70
	default:
		return nil
	}
	out := make([]models.Stock, len(src))
	copy(out, src)
	return out
}

// Lookup returns catalog metadata for a canonical symbol
func Lookup(symbol string) (models.Stock, bool) {
	s, ok := bySymbol[symbol]
	return s, ok
}

// ApproxPrice returns the seed price for a symbol, if one is known
func ApproxPrice(symbol string) (float64, bool) {
	p, ok := approxPrices[symbol]
	return p, ok
}

// SeedPrice returns the approximate price or DefaultSeedPrice
func SeedPrice(symbol string) float64 {
	if p, ok := approxPrices[symbol]; ok {
		return p
	}
	return DefaultSeedPrice
}
