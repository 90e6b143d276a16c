package repository

import (
	"context"
	"fmt"

	"momentum-trader/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const tradeColumns = `id, portfolio_id, instrument_id, ticker, side, quantity, price, filled_quantity, filled_price, commission, status, external_order_id, error_message, submitted_at, filled_at, created_at`

// CreateTrade persists a new trade record
func (r *Repository) CreateTrade(ctx context.Context, trade *models.Trade) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, trade.ID, trade.PortfolioID, trade.InstrumentID, trade.Ticker, trade.Side, trade.Quantity, trade.Price,
		trade.FilledQuantity, trade.FilledPrice, trade.Commission, trade.Status, trade.ExternalOrderID,
		trade.ErrorMessage, trade.SubmittedAt, trade.FilledAt, trade.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}

	return nil
}

// GetTrade returns a single trade by ID
func (r *Repository) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id)

	trade, err := scanTrade(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trade: %w", err)
	}

	return trade, nil
}

// GetOpenTrades returns trades for a portfolio that have not reached a
// terminal status, oldest first
func (r *Repository) GetOpenTrades(ctx context.Context, portfolioID uuid.UUID) ([]models.Trade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE portfolio_id = $1 AND status IN ('PENDING', 'SUBMITTED', 'PARTIALLY_FILLED')
		ORDER BY created_at
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}

	return trades, nil
}

// GetTradesByPortfolio returns all trades for a portfolio, newest first
func (r *Repository) GetTradesByPortfolio(ctx context.Context, portfolioID uuid.UUID, limit int) ([]models.Trade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE portfolio_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}

	return trades, nil
}

// UpdateTrade persists the mutable fields of a trade after a status change
// or fill
func (r *Repository) UpdateTrade(ctx context.Context, trade *models.Trade) error {
	_, err := r.db.Exec(ctx, `
		UPDATE trades
		SET status = $2, filled_quantity = $3, filled_price = $4, commission = $5,
		    external_order_id = $6, error_message = $7, submitted_at = $8, filled_at = $9
		WHERE id = $1
	`, trade.ID, trade.Status, trade.FilledQuantity, trade.FilledPrice, trade.Commission,
		trade.ExternalOrderID, trade.ErrorMessage, trade.SubmittedAt, trade.FilledAt)

	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	return nil
}

func scanTrade(row pgx.Row) (*models.Trade, error) {
	var t models.Trade
	err := row.Scan(&t.ID, &t.PortfolioID, &t.InstrumentID, &t.Ticker, &t.Side, &t.Quantity, &t.Price,
		&t.FilledQuantity, &t.FilledPrice, &t.Commission, &t.Status, &t.ExternalOrderID,
		&t.ErrorMessage, &t.SubmittedAt, &t.FilledAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
