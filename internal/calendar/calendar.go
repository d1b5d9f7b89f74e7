// Package calendar generates EGX trading-day calendars.
package calendar

import (
	"time"

	"github.com/bobmcallan/egxtrends/internal/models"
)

// CairoLocation is the exchange timezone. Falls back to a fixed EET zone
// when tzdata is unavailable (e.g. scratch containers).
var CairoLocation = mustLoadLocation("Africa/Cairo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("EET", 2*60*60)
	}
	return loc
}

// DefaultWeekend is the EGX weekend
var DefaultWeekend = []time.Weekday{time.Friday, time.Saturday}

// Generator produces trading days newest-first, anchored at yesterday
type Generator struct {
	now     func() time.Time
	loc     *time.Location
	weekend map[time.Weekday]bool
}

// Option configures a Generator
type Option func(*Generator)

// WithClock injects the time source
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLocation overrides the exchange timezone
func WithLocation(loc *time.Location) Option {
	return func(g *Generator) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithWeekend replaces the non-trading weekdays
func WithWeekend(days ...time.Weekday) Option {
	return func(g *Generator) {
		g.weekend = weekendSet(days)
	}
}

// NewGenerator creates a calendar generator for the EGX
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		now:     time.Now,
		loc:     CairoLocation,
		weekend: weekendSet(DefaultWeekend),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func weekendSet(days []time.Weekday) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return set
}

// Generate returns the n most recent trading days, newest first.
// Today is never included; walking starts at yesterday in the exchange timezone.
// Public holidays are not modelled.
func (g *Generator) Generate(n int) []models.TradingDay {
	if n <= 0 {
		return []models.TradingDay{}
	}
	// a weekend covering the whole week would never terminate
	if len(g.weekend) >= 7 {
		return []models.TradingDay{}
	}

	local := g.now().In(g.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, g.loc).AddDate(0, 0, -1)

	days := make([]models.TradingDay, 0, n)
	for len(days) < n {
		if g.IsTradingDay(day) {
			days = append(days, models.NewTradingDay(day))
		}
		day = day.AddDate(0, 0, -1)
	}
	return days
}

// IsTradingDay reports whether t falls on a trading weekday in the exchange timezone
func (g *Generator) IsTradingDay(t time.Time) bool {
	return !g.weekend[t.In(g.loc).Weekday()]
}
