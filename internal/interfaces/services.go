package interfaces

import (
	"context"

	"github.com/bobmcallan/egxtrends/internal/models"
)

// AnalysisService assembles price history tables
type AnalysisService interface {
	// Assemble builds one row per stock over the most recent displayDays trading days
	Assemble(ctx context.Context, stocks []models.Stock, displayDays int) (*models.Analysis, error)

	// AnalyzeIndex assembles the static constituents of an index
	AnalyzeIndex(ctx context.Context, index models.MarketIndex) (*models.Analysis, error)
}

// CatalogService lists index constituents
type CatalogService interface {
	// List returns the constituents of index. force bypasses the cache.
	List(ctx context.Context, index models.MarketIndex, force bool) ([]models.Stock, error)
}

// UsageService exposes the remote-call meter
type UsageService interface {
	UsageRecorder

	// Count returns the number of remote calls recorded since start or the last reset
	Count() int

	// Snapshot returns the count against the advisory daily quota
	Snapshot() models.UsageSnapshot

	// Subscribe registers fn for count changes and returns its unsubscribe function
	Subscribe(fn func(count int)) (unsubscribe func())
}
