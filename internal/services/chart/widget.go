// Package chart builds chart widget configurations and renders history charts
package chart

import (
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/symbols"
)

// Widget defaults
const (
	WidgetTimezone  = "Africa/Cairo"
	WidgetTheme     = "dark"
	WidgetStyle     = "1" // candles
	WidgetLocale    = "en"
	WidgetToolbarBG = "#1e293b"
)

var (
	widgetStudies = []string{
		"Volume@tv-basicstudies",
		"MACD@tv-basicstudies",
		"VWAP@tv-basicstudies",
		"RSI@tv-basicstudies",
	}
	widgetDisabledFeatures = []string{
		"header_symbol_search",
		"header_compare",
		"header_screenshot",
		"header_saveload",
		"timeframes_toolbar",
		"create_volume_indicator_by_default",
	}
	widgetEnabledFeatures = []string{
		"hide_left_toolbar_by_default",
		"use_localstorage_for_settings",
	}
)

// Widget returns the embedded chart configuration for a canonical symbol
func Widget(symbol string, tf models.TimeFrame) models.ChartWidget {
	if tf == "" {
		tf = models.TimeFrameDaily
	}
	return models.ChartWidget{
		Symbol:           symbol,
		TVSymbol:         symbols.TradingViewSymbol(symbol),
		Interval:         tf,
		Timezone:         WidgetTimezone,
		Theme:            WidgetTheme,
		Style:            WidgetStyle,
		Locale:           WidgetLocale,
		ToolbarBG:        WidgetToolbarBG,
		Autosize:         true,
		EnablePublishing: false,
		HideTopToolbar:   true,
		HideSideToolbar:  true,
		AllowSymbolSwap:  false,
		SaveImage:        false,
		ContainerID:      "tv_widget_" + symbol,
		Studies:          append([]string(nil), widgetStudies...),
		DisabledFeatures: append([]string(nil), widgetDisabledFeatures...),
		EnabledFeatures:  append([]string(nil), widgetEnabledFeatures...),
	}
}

// Dashboard pairs every stock with its widget at the given interval
func Dashboard(stocks []models.Stock, tf models.TimeFrame) models.Dashboard {
	if tf == "" {
		tf = models.TimeFrameDaily
	}
	cards := make([]models.DashboardCard, len(stocks))
	for i, s := range stocks {
		cards[i] = models.DashboardCard{Stock: s, Widget: Widget(s.Symbol, tf)}
	}
	return models.Dashboard{Interval: tf, Count: len(cards), Cards: cards}
}
