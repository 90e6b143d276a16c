package repository

import (
	"context"
	"fmt"

	"momentum-trader/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetOpenPositions returns all positions with a non-zero quantity for a
// portfolio, joined with tickers
func (r *Repository) GetOpenPositions(ctx context.Context, portfolioID uuid.UUID) ([]models.Position, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.portfolio_id, p.instrument_id, i.ticker, p.quantity, p.average_cost, p.current_price, p.current_value, p.unrealized_pl, p.unrealized_pl_percent, p.created_at, p.updated_at
		FROM positions p
		JOIN instruments i ON i.id = p.instrument_id
		WHERE p.portfolio_id = $1 AND p.quantity > 0
		ORDER BY i.ticker
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []models.Position
	for rows.Next() {
		var p models.Position
		err := rows.Scan(&p.ID, &p.PortfolioID, &p.InstrumentID, &p.Ticker, &p.Quantity, &p.AverageCost, &p.CurrentPrice, &p.CurrentValue, &p.UnrealizedPL, &p.UnrealizedPLPercent, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}

	return positions, nil
}

// GetPosition returns the position for a (portfolio, instrument) pair,
// including closed positions, or nil when none exists
func (r *Repository) GetPosition(ctx context.Context, portfolioID, instrumentID uuid.UUID) (*models.Position, error) {
	var p models.Position
	err := r.db.QueryRow(ctx, `
		SELECT p.id, p.portfolio_id, p.instrument_id, i.ticker, p.quantity, p.average_cost, p.current_price, p.current_value, p.unrealized_pl, p.unrealized_pl_percent, p.created_at, p.updated_at
		FROM positions p
		JOIN instruments i ON i.id = p.instrument_id
		WHERE p.portfolio_id = $1 AND p.instrument_id = $2
	`, portfolioID, instrumentID).Scan(
		&p.ID, &p.PortfolioID, &p.InstrumentID, &p.Ticker, &p.Quantity, &p.AverageCost, &p.CurrentPrice, &p.CurrentValue, &p.UnrealizedPL, &p.UnrealizedPLPercent, &p.CreatedAt, &p.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query position: %w", err)
	}

	return &p, nil
}

// UpsertPosition inserts a position or replaces its state for the same
// (portfolio, instrument)
func (r *Repository) UpsertPosition(ctx context.Context, pos *models.Position) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO positions (id, portfolio_id, instrument_id, quantity, average_cost, current_price, current_value, unrealized_pl, unrealized_pl_percent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (portfolio_id, instrument_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, average_cost = EXCLUDED.average_cost, current_price = EXCLUDED.current_price,
		    current_value = EXCLUDED.current_value, unrealized_pl = EXCLUDED.unrealized_pl, unrealized_pl_percent = EXCLUDED.unrealized_pl_percent,
		    updated_at = NOW()
		RETURNING id
	`, pos.ID, pos.PortfolioID, pos.InstrumentID, pos.Quantity, pos.AverageCost, pos.CurrentPrice, pos.CurrentValue, pos.UnrealizedPL, pos.UnrealizedPLPercent, pos.CreatedAt, pos.UpdatedAt).Scan(&pos.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert position: %w", err)
	}

	return nil
}
