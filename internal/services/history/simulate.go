package history

import (
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/reference"
)

// Simulation bounds
const (
	simSeedMin      = 10.0
	simSeedMax      = 60.0
	simMaxDailyMove = 2.0 // percent
	gapFillMaxMove  = 0.1 // absolute price units
	baselineMaxMove = 2.0 // percent
)

// Simulator produces self-contained random-walk histories when retrieval is unavailable
type Simulator struct {
	rng Source
}

// NewSimulator creates a simulator drawing from rng
func NewSimulator(rng Source) *Simulator {
	if rng == nil {
		rng = NewRandomSource()
	}
	return &Simulator{rng: rng}
}

// SimulateAll returns one simulated row per stock over days (newest first).
// Each stock is seeded from its approximate price, else U(10, 60), and walked
// oldest to newest by U(-2, 2) percent per day.
func (s *Simulator) SimulateAll(stocks []models.Stock, days []models.TradingDay) []models.AnalysisRow {
	rows := make([]models.AnalysisRow, 0, len(stocks))
	for _, stock := range stocks {
		rows = append(rows, s.simulate(stock, days))
	}
	return rows
}

func (s *Simulator) simulate(stock models.Stock, days []models.TradingDay) models.AnalysisRow {
	price, ok := reference.ApproxPrice(stock.Symbol)
	if !ok {
		price = uniform(s.rng, simSeedMin, simSeedMax)
	}

	history := make([]models.DailyStat, len(days))
	for i := len(days) - 1; i >= 0; i-- {
		change := uniform(s.rng, -simMaxDailyMove, simMaxDailyMove)
		price *= 1 + change/100
		if price < minPrice {
			price = minPrice
		}
		history[i] = models.DailyStat{
			Date:          days[i],
			Price:         round2(price),
			ChangePercent: round2(change),
		}
	}

	return models.AnalysisRow{
		Stock:       stock,
		History:     history,
		IsSimulated: true,
	}
}
