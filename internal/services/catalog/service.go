// Package catalog lists index constituents, preferring a grounded remote
// listing and falling back to the static catalogs
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/reference"
	"github.com/bobmcallan/egxtrends/internal/symbols"
)

// MinEntries is the smallest remote listing accepted as complete
const MinEntries = 10

// Listing sources reported to the observer
const (
	SourceRemote = "remote"
	SourceStatic = "static"
)

var (
	ErrUnknownIndex        = errors.New("unknown market index")
	ErrInsufficientListing = errors.New("remote catalog listing is incomplete")
)

// RefreshObserver is told where each uncached listing came from
type RefreshObserver interface {
	ObserveCatalogRefresh(index models.MarketIndex, source string)
}

type entry struct {
	stocks    []models.Stock
	source    string
	fetchedAt time.Time
}

// Service implements interfaces.CatalogService with a per-index in-memory cache
type Service struct {
	generator interfaces.TextGenerator
	meter     interfaces.UsageRecorder
	grounding bool
	observer  RefreshObserver
	logger    *common.Logger
	now       func() time.Time

	mu    sync.Mutex
	cache map[models.MarketIndex]entry
}

// NewService creates a catalog service. generator and meter may be nil;
// without a generator every listing is static.
func NewService(generator interfaces.TextGenerator, meter interfaces.UsageRecorder, grounding bool, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		generator: generator,
		meter:     meter,
		grounding: grounding,
		logger:    logger,
		now:       time.Now,
		cache:     make(map[models.MarketIndex]entry),
	}
}

// SetObserver registers a refresh observer
func (s *Service) SetObserver(o RefreshObserver) {
	s.observer = o
}

// List returns the constituents of index. A cached listing is returned unless
// force is set. Remote failures fall back to the static catalog, which is then
// cached in its place.
func (s *Service) List(ctx context.Context, index models.MarketIndex, force bool) ([]models.Stock, error) {
	static := reference.Catalog(index)
	if static == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, index)
	}

	if !force {
		s.mu.Lock()
		e, ok := s.cache[index]
		s.mu.Unlock()
		if ok {
			return copyStocks(e.stocks), nil
		}
	}

	stocks, source := static, SourceStatic
	if s.generator != nil {
		remote, err := s.fetch(ctx, index)
		switch {
		case err == nil:
			stocks, source = remote, SourceRemote
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			s.logger.Warn().Err(err).Str("index", string(index)).Msg("Using static catalog")
		}
	}

	s.mu.Lock()
	s.cache[index] = entry{stocks: stocks, source: source, fetchedAt: s.now()}
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveCatalogRefresh(index, source)
	}
	s.logger.Info().Str("index", string(index)).Str("source", source).Int("stocks", len(stocks)).Msg("Catalog refreshed")

	return copyStocks(stocks), nil
}

// Source reports where the cached listing for index came from and when
func (s *Service) Source(index models.MarketIndex) (source string, fetchedAt time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[index]
	return e.source, e.fetchedAt, ok
}

// Invalidate drops every cached listing
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[models.MarketIndex]entry)
	s.mu.Unlock()
}

type listingPayload struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

func (s *Service) fetch(ctx context.Context, index models.MarketIndex) ([]models.Stock, error) {
	if s.meter != nil {
		s.meter.Record()
	}
	text, err := s.generator.Generate(ctx, buildCatalogPrompt(index), interfaces.GenerateOptions{
		EnableSearchGrounding: s.grounding,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	return parseListing(text)
}

func parseListing(text string) ([]models.Stock, error) {
	raw, ok := common.ExtractJSONArray(text)
	if !ok {
		return nil, fmt.Errorf("%w: empty response", ErrInsufficientListing)
	}

	var payload []listingPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode catalog listing: %w", err)
	}

	seen := make(map[string]bool, len(payload))
	stocks := make([]models.Stock, 0, len(payload))
	for _, p := range payload {
		sym := symbols.Normalize(symbols.StripExchangePrefix(p.Symbol))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		stocks = append(stocks, withMetadata(sym, p.Name, p.Sector))
	}

	if len(stocks) < MinEntries {
		return nil, fmt.Errorf("%w: %d entries", ErrInsufficientListing, len(stocks))
	}
	return stocks, nil
}

// withMetadata fills blank fields from the static catalogs
func withMetadata(sym, name, sector string) models.Stock {
	name, sector = strings.TrimSpace(name), strings.TrimSpace(sector)
	known, ok := reference.Lookup(sym)
	if name == "" {
		if ok {
			name = known.Name
		} else {
			name = sym + " Stock"
		}
	}
	if sector == "" {
		if ok && known.Sector != "" {
			sector = known.Sector
		} else {
			sector = "General"
		}
	}
	return models.Stock{Symbol: sym, Name: name, Sector: sector}
}

func buildCatalogPrompt(index models.MarketIndex) string {
	size := 30
	if index == models.IndexEGX70 {
		size = 70
	}
	return fmt.Sprintf(`List the %d companies in the %s index (Egyptian Exchange). Return a raw JSON array of objects with "symbol", "name" and "sector". `+
		`IMPORTANT: "symbol" must be the TradingView ticker (e.g. COMI for CIB, HRHO for EFG Hermes, TMGH for Talaat Moustafa). `+
		`Do not use aliases. Do not use markdown blocks.`, size, displayIndexName(index))
}

func displayIndexName(index models.MarketIndex) string {
	return strings.Replace(string(index), "EGX", "EGX ", 1)
}

func copyStocks(in []models.Stock) []models.Stock {
	out := make([]models.Stock, len(in))
	copy(out, in)
	return out
}

// Ensure Service implements CatalogService
var _ interfaces.CatalogService = (*Service)(nil)
