package repository

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/models"

	"github.com/jackc/pgx/v5"
)

// SaveMomentumScore inserts a score or replaces the existing one for the same
// (instrument, calculation_date). Recalculating a date overwrites the prior
// run's result.
func (r *Repository) SaveMomentumScore(ctx context.Context, score *models.MomentumScore) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO momentum_scores (id, instrument_id, calculation_date, score, rank, quintile, is_top_quintile, period_start, period_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (instrument_id, calculation_date) DO UPDATE
		SET score = EXCLUDED.score, rank = EXCLUDED.rank, quintile = EXCLUDED.quintile,
		    is_top_quintile = EXCLUDED.is_top_quintile, period_start = EXCLUDED.period_start, period_end = EXCLUDED.period_end
		RETURNING id
	`, score.ID, score.InstrumentID, score.CalculationDate, score.Score, score.Rank, score.Quintile, score.IsTopQuintile, score.PeriodStart, score.PeriodEnd, score.CreatedAt).Scan(&score.ID)

	if err != nil {
		return fmt.Errorf("failed to save momentum score: %w", err)
	}

	return nil
}

// GetMomentumScores returns all scores for a calculation date joined with
// tickers, ordered by rank
func (r *Repository) GetMomentumScores(ctx context.Context, calculationDate time.Time) ([]models.MomentumScore, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ms.id, ms.instrument_id, i.ticker, ms.calculation_date, ms.score, ms.rank, ms.quintile, ms.is_top_quintile, ms.period_start, ms.period_end, ms.created_at
		FROM momentum_scores ms
		JOIN instruments i ON i.id = ms.instrument_id
		WHERE ms.calculation_date = $1
		ORDER BY ms.rank
	`, calculationDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query momentum scores: %w", err)
	}
	defer rows.Close()

	return scanMomentumScores(rows)
}

// GetScoresByQuintile returns the scores in a given quintile for a
// calculation date, ordered by rank
func (r *Repository) GetScoresByQuintile(ctx context.Context, calculationDate time.Time, quintile int) ([]models.MomentumScore, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ms.id, ms.instrument_id, i.ticker, ms.calculation_date, ms.score, ms.rank, ms.quintile, ms.is_top_quintile, ms.period_start, ms.period_end, ms.created_at
		FROM momentum_scores ms
		JOIN instruments i ON i.id = ms.instrument_id
		WHERE ms.calculation_date = $1 AND ms.quintile = $2
		ORDER BY ms.rank
	`, calculationDate, quintile)
	if err != nil {
		return nil, fmt.Errorf("failed to query momentum scores: %w", err)
	}
	defer rows.Close()

	return scanMomentumScores(rows)
}

// GetLatestScoreDate returns the most recent calculation date with stored
// scores, or nil when none exist
func (r *Repository) GetLatestScoreDate(ctx context.Context) (*time.Time, error) {
	var date *time.Time
	err := r.db.QueryRow(ctx, `SELECT MAX(calculation_date) FROM momentum_scores`).Scan(&date)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest score date: %w", err)
	}
	return date, nil
}

func scanMomentumScores(rows pgx.Rows) ([]models.MomentumScore, error) {
	var scores []models.MomentumScore
	for rows.Next() {
		var s models.MomentumScore
		err := rows.Scan(&s.ID, &s.InstrumentID, &s.Ticker, &s.CalculationDate, &s.Score, &s.Rank, &s.Quintile, &s.IsTopQuintile, &s.PeriodStart, &s.PeriodEnd, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan momentum score: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, nil
}
