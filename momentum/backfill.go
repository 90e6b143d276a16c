package momentum

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/config"
	"momentum-trader/models"
	"momentum-trader/observability"
)

// Backfiller fills gaps in stored price history from the external provider.
// It only ever inserts missing bars; stored bars are immutable.
type Backfiller struct {
	store    Store
	provider PriceProvider
	cfg      config.MomentumConfig
}

func NewBackfiller(store Store, provider PriceProvider, cfg config.MomentumConfig) *Backfiller {
	return &Backfiller{store: store, provider: provider, cfg: cfg}
}

// BackfillReport summarizes one backfill run.
type BackfillReport struct {
	Inserted int
	Skipped  int
	Failures []BatchFailure
}

// Backfill fetches daily bars for every instrument from its last stored bar
// (or the full lookback window when none exist) through end. Per-instrument
// failures are collected; the run continues.
func (b *Backfiller) Backfill(ctx context.Context, instruments []models.Instrument, end time.Time) (*BackfillReport, error) {
	if b.provider == nil {
		return nil, fmt.Errorf("no market data provider configured")
	}

	report := &BackfillReport{}

	for _, inst := range instruments {
		inserted, err := b.backfillInstrument(ctx, inst, end)
		if err != nil {
			report.Failures = append(report.Failures, BatchFailure{Ticker: inst.Ticker, Err: err})
			observability.Warn("backfill failed", "ticker", inst.Ticker, "error", err)
			continue
		}
		if inserted == 0 {
			report.Skipped++
		}
		report.Inserted += inserted
	}

	observability.Info("backfill complete",
		"inserted", report.Inserted, "up_to_date", report.Skipped, "failed", len(report.Failures))

	return report, nil
}

func (b *Backfiller) backfillInstrument(ctx context.Context, inst models.Instrument, end time.Time) (int, error) {
	start := end.AddDate(0, 0, -b.cfg.BackfillDays)

	latest, err := b.store.GetLatestBarDate(ctx, inst.ID)
	if err != nil {
		return 0, err
	}
	if latest != nil {
		next := latest.AddDate(0, 0, 1)
		if next.After(start) {
			start = next
		}
	}
	if !start.Before(end) {
		return 0, nil
	}

	bars, err := b.provider.FetchDailyBars(ctx, inst.Ticker, start, end)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, nil
	}

	priceBars := make([]models.PriceBar, 0, len(bars))
	for _, bar := range bars {
		pb := models.NewPriceBar(inst.ID, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		priceBars = append(priceBars, *pb)
	}

	return b.store.SavePriceBars(ctx, priceBars)
}
