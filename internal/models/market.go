// Package models defines data structures for EGX Trends
package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of a TradingDay
const DateLayout = "2006-01-02"

// MarketIndex identifies one of the supported EGX index memberships
type MarketIndex string

const (
	IndexEGX30 MarketIndex = "EGX30"
	IndexEGX70 MarketIndex = "EGX70"
)

// ParseMarketIndex accepts "EGX30", "egx-30", "EGX 70" and similar spellings.
func ParseMarketIndex(s string) (MarketIndex, error) {
	cleaned := strings.ToUpper(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.TrimSpace(s)))
	switch MarketIndex(cleaned) {
	case IndexEGX30:
		return IndexEGX30, nil
	case IndexEGX70:
		return IndexEGX70, nil
	}
	return "", fmt.Errorf("unknown market index %q", s)
}

// TimeFrame is a chart interval understood by the chart widget
type TimeFrame string

const (
	TimeFrameDaily     TimeFrame = "D"
	TimeFrameWeekly    TimeFrame = "W"
	TimeFrameMonthly   TimeFrame = "M"
	TimeFrame1Minute   TimeFrame = "1"
	TimeFrame5Minutes  TimeFrame = "5"
	TimeFrame15Minutes TimeFrame = "15"
	TimeFrame1Hour     TimeFrame = "60"
	TimeFrame4Hours    TimeFrame = "240"
)

// TimeFrames lists every supported interval in display order
var TimeFrames = []TimeFrame{
	TimeFrame1Minute, TimeFrame5Minutes, TimeFrame15Minutes, TimeFrame1Hour, TimeFrame4Hours,
	TimeFrameDaily, TimeFrameWeekly, TimeFrameMonthly,
}

// ParseTimeFrame validates an interval; empty input selects daily.
func ParseTimeFrame(s string) (TimeFrame, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return TimeFrameDaily, nil
	}
	for _, tf := range TimeFrames {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("unsupported time frame %q", s)
}

// Stock is immutable reference metadata for a tradable instrument
type Stock struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
}

// TradingDay is a session date formatted as YYYY-MM-DD.
// Lexical order of TradingDay values equals chronological order.
type TradingDay string

// NewTradingDay truncates t to its calendar date in t's location
func NewTradingDay(t time.Time) TradingDay {
	return TradingDay(t.Format(DateLayout))
}

// ParseTradingDay parses the date formats seen in retrieved history:
// 2006-01-02, 2006/01/02 and RFC3339 timestamps.
func ParseTradingDay(s string) (TradingDay, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len(DateLayout) {
		candidate := strings.ReplaceAll(s[:len(DateLayout)], "/", "-")
		if t, err := time.Parse(DateLayout, candidate); err == nil {
			return NewTradingDay(t), nil
		}
	}
	return "", fmt.Errorf("invalid trading day %q", s)
}

// Time returns the day as midnight UTC
func (d TradingDay) Time() time.Time {
	t, _ := time.Parse(DateLayout, string(d))
	return t
}

func (d TradingDay) String() string {
	return string(d)
}

// PricePoint is one observed or synthesized closing price
type PricePoint struct {
	Date  TradingDay `json:"date"`
	Close float64    `json:"close"`
}

// HistoryMap maps a symbol to its price points, newest first
type HistoryMap map[string][]PricePoint

// DailyStat is one table cell: the rounded close and its change from the previous session
type DailyStat struct {
	Date          TradingDay `json:"date"`
	Price         float64    `json:"price"`
	ChangePercent float64    `json:"change_percent"`
}

// AnalysisRow is a stock's display history. IsSimulated is true only when
// every price came from the full-fallback simulator.
type AnalysisRow struct {
	Stock       Stock       `json:"stock"`
	History     []DailyStat `json:"history"`
	IsSimulated bool        `json:"is_simulated"`
}

// Analysis is the result of one assembly run
type Analysis struct {
	RunID       string        `json:"run_id"`
	Index       MarketIndex   `json:"index,omitempty"`
	DisplayDays int           `json:"display_days"`
	Dates       []TradingDay  `json:"dates"`
	GeneratedAt time.Time     `json:"generated_at"`
	Simulated   bool          `json:"simulated"`
	Rows        []AnalysisRow `json:"rows"`
}

// Row returns the row for symbol, or nil
func (a *Analysis) Row(symbol string) *AnalysisRow {
	for i := range a.Rows {
		if a.Rows[i].Stock.Symbol == symbol {
			return &a.Rows[i]
		}
	}
	return nil
}
