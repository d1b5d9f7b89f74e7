package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/symbols"
)

// flexFloat64 handles close values that arrive as either a number or a string
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

type seriesPayload struct {
	Symbol string         `json:"symbol"`
	Data   []pointPayload `json:"data"`
}

type pointPayload struct {
	Date  string      `json:"date"`
	Close flexFloat64 `json:"close"`
}

// extractJSONArray isolates the JSON array embedded in a model response
func extractJSONArray(text string) (string, error) {
	raw, ok := common.ExtractJSONArray(text)
	if !ok {
		return "", fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	return raw, nil
}

// parseHistory decodes a model response into per-symbol price points, newest first.
// Points with unparseable dates or non-positive closes are dropped. The first
// point seen for a date wins.
func parseHistory(text string) (models.HistoryMap, error) {
	raw, err := extractJSONArray(text)
	if err != nil {
		return nil, err
	}

	var payload []seriesPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make(models.HistoryMap, len(payload))
	for _, series := range payload {
		sym := symbols.Normalize(symbols.StripExchangePrefix(series.Symbol))
		if sym == "" {
			continue
		}

		seen := make(map[models.TradingDay]bool, len(out[sym])+len(series.Data))
		for _, p := range out[sym] {
			seen[p.Date] = true
		}

		points := out[sym]
		for _, p := range series.Data {
			day, err := models.ParseTradingDay(p.Date)
			if err != nil {
				continue
			}
			closePrice := float64(p.Close)
			if !validPrice(closePrice) || seen[day] {
				continue
			}
			seen[day] = true
			points = append(points, models.PricePoint{Date: day, Close: closePrice})
		}
		if len(points) == 0 {
			continue
		}

		sort.SliceStable(points, func(i, j int) bool {
			return points[i].Date > points[j].Date
		})
		out[sym] = points
	}

	return out, nil
}
