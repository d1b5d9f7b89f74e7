package app

import (
	"context"
	"os"
	"time"

	"github.com/bobmcallan/egxtrends/internal/models"
)

// warmIndex is assembled at startup so the first dashboard request is served from memory.
const warmIndex = models.IndexEGX30

// StartWarmCache launches the background warm-up when schedule.warm_on_start is set.
// EGX_WARM_CACHE=off disables it regardless of config.
func (a *App) StartWarmCache() {
	if !a.Config.Schedule.WarmOnStart {
		return
	}
	if os.Getenv("EGX_WARM_CACHE") == "off" {
		a.Logger.Info().Msg("Warm cache: disabled via EGX_WARM_CACHE=off")
		return
	}

	warmCtx, warmCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		a.warmCache(warmCtx)
	}()
}

// warmCache assembles the warm index unless a run has already been committed.
func (a *App) warmCache(ctx context.Context) {
	if _, ok := a.Runs.Latest(string(warmIndex)); ok {
		a.Logger.Info().Str("index", string(warmIndex)).Msg("Warm cache: analysis already present, skipping")
		return
	}

	start := time.Now()
	a.Logger.Info().Str("index", string(warmIndex)).Msg("Warm cache: starting")

	analysis, err := a.AnalyzeIndex(ctx, warmIndex, true)
	if err != nil {
		a.Logger.Warn().Err(err).Str("index", string(warmIndex)).Msg("Warm cache: analysis failed")
		return
	}

	a.Logger.Info().
		Str("index", string(warmIndex)).
		Int("rows", len(analysis.Rows)).
		Bool("simulated", analysis.Simulated).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}
