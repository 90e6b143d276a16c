package repository

import (
	"context"
	"fmt"

	"momentum-trader/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const rebalanceEventColumns = `id, portfolio_id, date, total_stocks_analyzed, buy_signals_generated, sell_signals_generated, total_portfolio_value, status, error_message, created_at, completed_at`

// CreateRebalanceEvent persists a new rebalance event
func (r *Repository) CreateRebalanceEvent(ctx context.Context, event *models.RebalanceEvent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rebalance_events (`+rebalanceEventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, event.ID, event.PortfolioID, event.Date, event.TotalStocksAnalyzed, event.BuySignalsGenerated,
		event.SellSignalsGenerated, event.TotalPortfolioValue, event.Status, event.ErrorMessage,
		event.CreatedAt, event.CompletedAt)

	if err != nil {
		return fmt.Errorf("failed to create rebalance event: %w", err)
	}

	return nil
}

// UpdateRebalanceEvent persists the outcome fields of a rebalance event
func (r *Repository) UpdateRebalanceEvent(ctx context.Context, event *models.RebalanceEvent) error {
	_, err := r.db.Exec(ctx, `
		UPDATE rebalance_events
		SET total_stocks_analyzed = $2, buy_signals_generated = $3, sell_signals_generated = $4,
		    total_portfolio_value = $5, status = $6, error_message = $7, completed_at = $8
		WHERE id = $1
	`, event.ID, event.TotalStocksAnalyzed, event.BuySignalsGenerated, event.SellSignalsGenerated,
		event.TotalPortfolioValue, event.Status, event.ErrorMessage, event.CompletedAt)

	if err != nil {
		return fmt.Errorf("failed to update rebalance event: %w", err)
	}

	return nil
}

// GetRebalanceEvents returns the most recent rebalance events for a
// portfolio, newest first
func (r *Repository) GetRebalanceEvents(ctx context.Context, portfolioID uuid.UUID, limit int) ([]models.RebalanceEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+rebalanceEventColumns+`
		FROM rebalance_events
		WHERE portfolio_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rebalance events: %w", err)
	}
	defer rows.Close()

	var events []models.RebalanceEvent
	for rows.Next() {
		var e models.RebalanceEvent
		err := rows.Scan(&e.ID, &e.PortfolioID, &e.Date, &e.TotalStocksAnalyzed, &e.BuySignalsGenerated,
			&e.SellSignalsGenerated, &e.TotalPortfolioValue, &e.Status, &e.ErrorMessage, &e.CreatedAt, &e.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rebalance event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

// GetLastCompletedRebalance returns the most recent COMPLETED rebalance event
// for a portfolio, or nil when none exists. The cadence gate uses its date.
func (r *Repository) GetLastCompletedRebalance(ctx context.Context, portfolioID uuid.UUID) (*models.RebalanceEvent, error) {
	var e models.RebalanceEvent
	err := r.db.QueryRow(ctx, `
		SELECT `+rebalanceEventColumns+`
		FROM rebalance_events
		WHERE portfolio_id = $1 AND status = 'COMPLETED'
		ORDER BY date DESC
		LIMIT 1
	`, portfolioID).Scan(&e.ID, &e.PortfolioID, &e.Date, &e.TotalStocksAnalyzed, &e.BuySignalsGenerated,
		&e.SellSignalsGenerated, &e.TotalPortfolioValue, &e.Status, &e.ErrorMessage, &e.CreatedAt, &e.CompletedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rebalance event: %w", err)
	}

	return &e, nil
}
