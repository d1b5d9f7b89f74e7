package app

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/egxtrends/internal/models"
)

func formatSignedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// shortDate renders a trading day as MM-DD for table headers
func shortDate(d models.TradingDay) string {
	s := string(d)
	if len(s) == len(models.DateLayout) {
		return s[5:]
	}
	return s
}

// formatAnalysis formats an analysis as a markdown price table, newest day first
func formatAnalysis(a *models.Analysis) string {
	var sb strings.Builder

	title := "Market Analysis"
	if a.Index != "" {
		title = string(a.Index) + " " + title
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", a.GeneratedAt.Format("2006-01-02 15:04 MST")))
	if n := len(a.Dates); n > 0 {
		sb.WriteString(fmt.Sprintf("**Trading Days:** %d (%s to %s)\n", a.DisplayDays, a.Dates[n-1], a.Dates[0]))
	}
	if a.Simulated {
		sb.WriteString("**Source:** simulated (live retrieval unavailable)\n")
	} else {
		sb.WriteString("**Source:** retrieved\n")
	}
	sb.WriteString(fmt.Sprintf("**Run:** %s\n\n", a.RunID))

	if len(a.Rows) == 0 {
		sb.WriteString("No stocks to analyze.\n")
		return sb.String()
	}

	sb.WriteString("| Symbol | Name |")
	for _, d := range a.Dates {
		sb.WriteString(" " + shortDate(d) + " |")
	}
	sb.WriteString("\n|--------|------|")
	for range a.Dates {
		sb.WriteString("------|")
	}
	sb.WriteString("\n")

	anySimulated := false
	for _, row := range a.Rows {
		symbol := row.Stock.Symbol
		if row.IsSimulated {
			symbol += " *"
			anySimulated = true
		}
		sb.WriteString(fmt.Sprintf("| %s | %s |", symbol, row.Stock.Name))
		for _, stat := range row.History {
			sb.WriteString(fmt.Sprintf(" %.2f (%s) |", stat.Price, formatSignedPct(stat.ChangePercent)))
		}
		sb.WriteString("\n")
	}

	if anySimulated {
		sb.WriteString("\n\\* simulated prices, not market data\n")
	}
	return sb.String()
}

// formatDashboard formats a scan result as markdown
func formatDashboard(d models.Dashboard) string {
	var sb strings.Builder

	sb.WriteString("# Scan Results\n\n")
	sb.WriteString(fmt.Sprintf("**Symbols:** %d\n", d.Count))
	sb.WriteString(fmt.Sprintf("**Interval:** %s\n\n", d.Interval))

	if len(d.Cards) == 0 {
		sb.WriteString("No stocks matched.\n")
		return sb.String()
	}

	sb.WriteString("| Symbol | Name | Sector | Chart |\n")
	sb.WriteString("|--------|------|--------|-------|\n")
	for _, card := range d.Cards {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			card.Stock.Symbol, card.Stock.Name, card.Stock.Sector, card.Widget.TVSymbol))
	}
	return sb.String()
}

// formatCatalog formats index constituents as markdown
func formatCatalog(index models.MarketIndex, stocks []models.Stock) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s Constituents\n\n", index))
	sb.WriteString(fmt.Sprintf("**Count:** %d\n\n", len(stocks)))
	for _, s := range stocks {
		sb.WriteString(fmt.Sprintf("- **%s** %s (%s)\n", s.Symbol, s.Name, s.Sector))
	}
	return sb.String()
}

// formatUsage formats the usage snapshot
func formatUsage(u models.UsageSnapshot) string {
	return fmt.Sprintf("Remote calls today: %d of %d\nRemaining: %d\nLevel: %s",
		u.Count, u.DailyQuota, u.Remaining, u.Level)
}
