// Package history assembles per-symbol price tables from remote retrieval,
// gap-filling missing days and falling back to full simulation when retrieval
// is unavailable.
package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/egxtrends/internal/calendar"
	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/reference"
)

const (
	DefaultDisplayDays   = 15
	DefaultFallbackDelay = 1500 * time.Millisecond
)

// DayGenerator produces trading days newest first
type DayGenerator interface {
	Generate(n int) []models.TradingDay
}

// Observer receives assembly outcomes, e.g. for metrics
type Observer interface {
	ObserveChunk(ok bool)
	ObserveAssembly(simulated bool, rows int, elapsed time.Duration)
}

// Service implements interfaces.AnalysisService
type Service struct {
	retriever     *Retriever
	simulator     *Simulator
	days          DayGenerator
	rng           Source
	displayDays   int
	fallbackDelay time.Duration
	observer      Observer
	logger        *common.Logger
	now           func() time.Time // injectable clock for testing
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithCalendar replaces the trading-day generator
func WithCalendar(days DayGenerator) ServiceOption {
	return func(s *Service) {
		if days != nil {
			s.days = days
		}
	}
}

// WithSource replaces the random source used for gap-fill and simulation
func WithSource(rng Source) ServiceOption {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
			s.simulator = NewSimulator(rng)
		}
	}
}

// WithDisplayDays sets the default table width
func WithDisplayDays(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.displayDays = n
		}
	}
}

// WithFallbackDelay sets the pause before full simulation
func WithFallbackDelay(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d >= 0 {
			s.fallbackDelay = d
		}
	}
}

// WithObserver registers an outcome observer
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) {
		s.observer = o
	}
}

// WithClock injects the clock used for GeneratedAt
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a history service
func NewService(retriever *Retriever, logger *common.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	rng := NewRandomSource()
	s := &Service{
		retriever:     retriever,
		simulator:     NewSimulator(rng),
		days:          calendar.NewGenerator(),
		rng:           rng,
		displayDays:   DefaultDisplayDays,
		fallbackDelay: DefaultFallbackDelay,
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DisplayDays returns the configured default table width
func (s *Service) DisplayDays() int {
	return s.displayDays
}

// AnalyzeIndex assembles the static constituents of index over the configured display days
func (s *Service) AnalyzeIndex(ctx context.Context, index models.MarketIndex) (*models.Analysis, error) {
	analysis, err := s.Assemble(ctx, reference.Catalog(index), s.displayDays)
	if err != nil {
		return nil, err
	}
	analysis.Index = index
	return analysis, nil
}

// Assemble returns one row per stock, sorted by symbol, each holding exactly
// displayDays entries newest first. Remote failures never surface: a usable
// retrieval pass is gap-filled, and an unavailable one is replaced by full
// simulation after the fallback delay. Only context cancellation is returned.
func (s *Service) Assemble(ctx context.Context, stocks []models.Stock, displayDays int) (*models.Analysis, error) {
	start := time.Now()
	if displayDays <= 0 {
		displayDays = s.displayDays
	}

	sorted := make([]models.Stock, len(stocks))
	copy(sorted, stocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Symbol < sorted[j].Symbol
	})

	days := s.days.Generate(displayDays + 1)
	if len(days) < displayDays+1 {
		return nil, fmt.Errorf("calendar produced %d trading days, need %d", len(days), displayDays+1)
	}
	display, baseline := days[:displayDays], days[displayDays]

	syms := make([]string, len(sorted))
	for i, st := range sorted {
		syms[i] = st.Symbol
	}

	analysis := &models.Analysis{
		RunID:       uuid.NewString(),
		DisplayDays: displayDays,
		Dates:       display,
	}

	result, err := s.retrieve(ctx, syms)
	switch {
	case err == nil:
		analysis.Rows = make([]models.AnalysisRow, 0, len(sorted))
		for _, st := range sorted {
			analysis.Rows = append(analysis.Rows, assembleRow(st, display, baseline, result.History[st.Symbol], s.rng))
		}
		s.observeChunks(result)

	case isContextError(err):
		return nil, err

	default:
		s.logger.Warn().Err(err).Int("stocks", len(sorted)).Msg("History retrieval unavailable, using full simulation")
		if err := sleep(ctx, s.fallbackDelay); err != nil {
			return nil, err
		}
		analysis.Rows = s.simulator.SimulateAll(sorted, display)
		analysis.Simulated = true
	}

	analysis.GeneratedAt = s.now()

	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveAssembly(analysis.Simulated, len(analysis.Rows), elapsed)
	}
	s.logger.Info().
		Str("run_id", analysis.RunID).
		Int("stocks", len(analysis.Rows)).
		Int("display_days", displayDays).
		Bool("simulated", analysis.Simulated).
		Dur("elapsed", elapsed).
		Msg("History assembled")

	return analysis, nil
}

// retrieve guards against a missing retriever and recovers from a panicking
// generator so that the request still escalates to simulation
func (s *Service) retrieve(ctx context.Context, syms []string) (result *RetrievalResult, err error) {
	if s.retriever == nil {
		return nil, ErrRetrievalUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Any("panic", r).Msg("History retrieval panicked")
			result, err = nil, errors.New("history retrieval panicked")
		}
	}()
	return s.retriever.Retrieve(ctx, syms)
}

func (s *Service) observeChunks(result *RetrievalResult) {
	if s.observer == nil || result == nil {
		return
	}
	for _, c := range result.Chunks {
		s.observer.ObserveChunk(c.OK())
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Service implements AnalysisService
var _ interfaces.AnalysisService = (*Service)(nil)
