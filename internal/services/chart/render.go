package chart

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/egxtrends/internal/models"
)

// RenderHistory renders a PNG line chart of a row's closing prices, oldest on the left.
// Rising series are drawn green, falling series red, simulated rows dashed.
func RenderHistory(row models.AnalysisRow) ([]byte, error) {
	n := len(row.History)
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", n)
	}

	xValues := make([]time.Time, n)
	yValues := make([]float64, n)
	// history is newest first
	for i, st := range row.History {
		xValues[n-1-i] = st.Date.Time()
		yValues[n-1-i] = st.Price
	}

	color := drawing.ColorFromHex("16a34a") // green-600
	if yValues[n-1] < yValues[0] {
		color = drawing.ColorFromHex("dc2626") // red-600
	}

	style := chart.Style{
		StrokeColor: color,
		StrokeWidth: 2.5,
	}
	title := fmt.Sprintf("%s closing prices", row.Stock.Symbol)
	if row.IsSimulated {
		style.StrokeDashArray = []float64{5.0, 3.0}
		title += " (simulated)"
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("02 Jan")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    row.Stock.Symbol,
				Style:   style,
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
