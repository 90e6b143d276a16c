package repository

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SavePriceBars inserts daily bars, skipping any (instrument, date) pair that
// already exists. Stored bars are immutable so conflicts are not updated.
// Returns the number of bars actually inserted.
func (r *Repository) SavePriceBars(ctx context.Context, bars []models.PriceBar) (int, error) {
	inserted := 0
	for _, bar := range bars {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO price_bars (id, instrument_id, date, open, high, low, close, volume, adjusted_close, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (instrument_id, date) DO NOTHING
		`, bar.ID, bar.InstrumentID, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume, bar.AdjustedClose, bar.CreatedAt)

		if err != nil {
			return inserted, fmt.Errorf("failed to save price bar: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// GetPriceNear returns the earliest bar within the closed window
// [target - toleranceDays, target + toleranceDays], or nil when no bar falls
// inside the window.
func (r *Repository) GetPriceNear(ctx context.Context, instrumentID uuid.UUID, target time.Time, toleranceDays int) (*models.PriceBar, error) {
	windowStart := target.AddDate(0, 0, -toleranceDays)
	windowEnd := target.AddDate(0, 0, toleranceDays)

	var bar models.PriceBar
	err := r.db.QueryRow(ctx, `
		SELECT id, instrument_id, date, open, high, low, close, volume, adjusted_close, created_at
		FROM price_bars
		WHERE instrument_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
		LIMIT 1
	`, instrumentID, windowStart, windowEnd).Scan(
		&bar.ID, &bar.InstrumentID, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.AdjustedClose, &bar.CreatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price bar: %w", err)
	}

	return &bar, nil
}

// GetPriceBars returns all bars for an instrument in [start, end], oldest first
func (r *Repository) GetPriceBars(ctx context.Context, instrumentID uuid.UUID, start, end time.Time) ([]models.PriceBar, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, instrument_id, date, open, high, low, close, volume, adjusted_close, created_at
		FROM price_bars
		WHERE instrument_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`, instrumentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var bar models.PriceBar
		err := rows.Scan(&bar.ID, &bar.InstrumentID, &bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.AdjustedClose, &bar.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// GetLatestBarDate returns the most recent bar date stored for an instrument,
// or nil when no bars exist. Backfill uses this to find the gap to fill.
func (r *Repository) GetLatestBarDate(ctx context.Context, instrumentID uuid.UUID) (*time.Time, error) {
	// MAX over zero rows yields NULL, so scan into a pointer
	var date *time.Time
	err := r.db.QueryRow(ctx, `
		SELECT MAX(date) FROM price_bars WHERE instrument_id = $1
	`, instrumentID).Scan(&date)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest bar date: %w", err)
	}

	return date, nil
}

// CountPriceBars returns the number of bars stored for an instrument in [start, end]
func (r *Repository) CountPriceBars(ctx context.Context, instrumentID uuid.UUID, start, end time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM price_bars
		WHERE instrument_id = $1 AND date >= $2 AND date <= $3
	`, instrumentID, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count price bars: %w", err)
	}
	return count, nil
}
