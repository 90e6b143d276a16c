package momentum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"momentum-trader/config"
	"momentum-trader/models"
	"momentum-trader/observability"

	"github.com/shopspring/decimal"
)

// ErrDataUnavailable means an instrument lacks the price history needed for a
// momentum score. It excludes the instrument from the ranking; it is never
// fatal to a batch.
var ErrDataUnavailable = errors.New("insufficient price data for momentum calculation")

// requiredHistoryDays is the minimum bar coverage considered sufficient for a
// reliable score over a 12-month lookback.
const requiredHistoryDays = 280

// Calculator computes momentum scores from stored price history, falling back
// to the external provider on local misses.
type Calculator struct {
	store    Store
	provider PriceProvider
	cfg      config.MomentumConfig
}

func NewCalculator(store Store, provider PriceProvider, cfg config.MomentumConfig) *Calculator {
	return &Calculator{store: store, provider: provider, cfg: cfg}
}

// Score computes the momentum score for one instrument:
// price(calcDate - skip months) / price(calcDate - lookback months) - 1.
// Returns ErrDataUnavailable when either anchor has no bar within the
// tolerance window or the lookback price is not positive.
func (c *Calculator) Score(ctx context.Context, inst models.Instrument, calcDate time.Time) (*models.MomentumScore, error) {
	periodEnd := calcDate.AddDate(0, -c.cfg.SkipMonths, 0)
	periodStart := calcDate.AddDate(0, -c.cfg.LookbackMonths, 0)

	recentPrice, err := c.anchorPrice(ctx, inst, periodEnd)
	if err != nil {
		return nil, err
	}
	basePrice, err := c.anchorPrice(ctx, inst, periodStart)
	if err != nil {
		return nil, err
	}

	if basePrice.LessThanOrEqual(decimal.Zero) {
		observability.Warn("non-positive lookback price, excluding instrument",
			"ticker", inst.Ticker, "price", basePrice.String())
		return nil, ErrDataUnavailable
	}

	score := recentPrice.Div(basePrice).Sub(decimal.NewFromInt(1))

	return models.NewMomentumScore(inst.ID, calcDate, score, periodStart, periodEnd), nil
}

// anchorPrice resolves the close price nearest an anchor date: the earliest
// stored bar within the tolerance window, or a single provider lookup on a
// local miss. Fetched bars are persisted so the next run hits the store.
// Provider failures degrade to ErrDataUnavailable rather than aborting.
func (c *Calculator) anchorPrice(ctx context.Context, inst models.Instrument, target time.Time) (decimal.Decimal, error) {
	bar, err := c.store.GetPriceNear(ctx, inst.ID, target, c.cfg.ToleranceDays)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to look up anchor price: %w", err)
	}
	if bar != nil {
		return bar.Close, nil
	}

	if c.provider == nil {
		return decimal.Zero, ErrDataUnavailable
	}

	fetched, err := c.provider.PriceNear(ctx, inst.Ticker, target, c.cfg.ToleranceDays)
	if err != nil {
		observability.Warn("provider anchor lookup failed",
			"ticker", inst.Ticker, "target", target.Format("2006-01-02"), "error", err)
		return decimal.Zero, ErrDataUnavailable
	}
	if fetched == nil {
		return decimal.Zero, ErrDataUnavailable
	}

	pb := models.NewPriceBar(inst.ID, fetched.Date, fetched.Open, fetched.High, fetched.Low, fetched.Close, fetched.Volume)
	if _, err := c.store.SavePriceBars(ctx, []models.PriceBar{*pb}); err != nil {
		observability.Warn("failed to persist fetched anchor bar", "ticker", inst.Ticker, "error", err)
	}

	return fetched.Close, nil
}

// BatchFailure records one instrument that could not be scored for a reason
// other than missing data.
type BatchFailure struct {
	Ticker string
	Err    error
}

// BatchResult summarizes a universe-wide calculation run.
type BatchResult struct {
	Scored      []*models.MomentumScore
	Unavailable []string
	Failures    []BatchFailure
}

// CalculateForUniverse scores every instrument for the calculation date and
// persists the results. Instruments without sufficient data are excluded;
// other per-instrument errors are collected and do not stop the batch.
func (c *Calculator) CalculateForUniverse(ctx context.Context, instruments []models.Instrument, calcDate time.Time) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{}
	metrics := observability.GetMetrics()

	for _, inst := range instruments {
		score, err := c.Score(ctx, inst, calcDate)
		if errors.Is(err, ErrDataUnavailable) {
			result.Unavailable = append(result.Unavailable, inst.Ticker)
			metrics.RecordMomentumOutcome("unavailable")
			continue
		}
		if err != nil {
			result.Failures = append(result.Failures, BatchFailure{Ticker: inst.Ticker, Err: err})
			metrics.RecordMomentumOutcome("failed")
			observability.Warn("momentum calculation failed", "ticker", inst.Ticker, "error", err)
			continue
		}

		if err := c.store.SaveMomentumScore(ctx, score); err != nil {
			result.Failures = append(result.Failures, BatchFailure{Ticker: inst.Ticker, Err: err})
			metrics.RecordMomentumOutcome("failed")
			continue
		}

		score.Ticker = inst.Ticker
		result.Scored = append(result.Scored, score)
		metrics.RecordMomentumOutcome("scored")
	}

	metrics.MomentumBatchDuration.Observe(time.Since(start).Seconds())
	observability.Info("momentum batch complete",
		"date", calcDate.Format("2006-01-02"),
		"scored", len(result.Scored),
		"unavailable", len(result.Unavailable),
		"failed", len(result.Failures))

	return result, nil
}

// SufficiencyReport describes how much history is available for an instrument
// relative to what a reliable score needs.
type SufficiencyReport struct {
	Ticker       string `json:"ticker"`
	BarsFound    int    `json:"bars_found"`
	DaysRequired int    `json:"days_required"`
	Sufficient   bool   `json:"sufficient"`
}

// ValidateDataSufficiency checks stored bar coverage over the lookback window
// ending at calcDate.
func (c *Calculator) ValidateDataSufficiency(ctx context.Context, inst models.Instrument, calcDate time.Time) (*SufficiencyReport, error) {
	windowStart := calcDate.AddDate(0, 0, -c.cfg.BackfillDays)

	count, err := c.store.CountPriceBars(ctx, inst.ID, windowStart, calcDate)
	if err != nil {
		return nil, fmt.Errorf("failed to count price bars: %w", err)
	}

	return &SufficiencyReport{
		Ticker:       inst.Ticker,
		BarsFound:    count,
		DaysRequired: requiredHistoryDays,
		Sufficient:   count >= requiredHistoryDays,
	}, nil
}
