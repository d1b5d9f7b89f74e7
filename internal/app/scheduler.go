package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/models"
)

// usageResetSpec fires at midnight in the exchange timezone.
const usageResetSpec = "0 0 0 * * *"

// cronLogger adapts common.Logger to cron.Logger.
type cronLogger struct {
	logger *common.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	e := l.logger.Debug()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		e = e.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	e.Msg("Scheduler: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	e := l.logger.Error().Err(err)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		e = e.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	e.Msg("Scheduler: " + msg)
}

// StartScheduler registers the catalog refresh and the midnight usage reset,
// then starts the cron runner. An invalid catalog_refresh spec is an error.
func (a *App) StartScheduler() error {
	logger := cronLogger{logger: a.Logger}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(scheduleLocation(a.Config, a.Logger)),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())

	if spec := a.Config.Schedule.CatalogRefresh; spec != "" {
		if _, err := c.AddFunc(spec, func() {
			refreshCatalogs(schedulerCtx, a.Catalog, a.Logger)
		}); err != nil {
			schedulerCancel()
			return fmt.Errorf("invalid catalog_refresh schedule %q: %w", spec, err)
		}
	}

	if _, err := c.AddFunc(usageResetSpec, func() {
		before := a.Meter.Count()
		a.Meter.Reset()
		a.Logger.Info().Int("previous_count", before).Msg("Usage meter: daily reset")
	}); err != nil {
		schedulerCancel()
		return fmt.Errorf("failed to schedule usage reset: %w", err)
	}

	c.Start()
	a.scheduler = c
	a.schedulerCancel = schedulerCancel

	a.Logger.Info().
		Str("catalog_refresh", a.Config.Schedule.CatalogRefresh).
		Int("jobs", len(c.Entries())).
		Msg("Scheduler: started")
	return nil
}

// refreshCatalogs forces a fresh listing for every supported index.
func refreshCatalogs(ctx context.Context, catalogService interfaces.CatalogService, logger *common.Logger) {
	start := time.Now()

	for _, index := range []models.MarketIndex{models.IndexEGX30, models.IndexEGX70} {
		if ctx.Err() != nil {
			logger.Info().Msg("Catalog refresh: stopped")
			return
		}
		stocks, err := catalogService.List(ctx, index, true)
		if err != nil {
			logger.Warn().Err(err).Str("index", string(index)).Msg("Catalog refresh: failed")
			continue
		}
		logger.Debug().Str("index", string(index)).Int("stocks", len(stocks)).Msg("Catalog refresh: index updated")
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("Catalog refresh: complete")
}
