package repository

import (
	"context"
	"fmt"

	"momentum-trader/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CreatePortfolio persists a new portfolio
func (r *Repository) CreatePortfolio(ctx context.Context, p *models.Portfolio) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO portfolios (id, name, initial_cash, current_cash, total_value, broker_account_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Name, p.InitialCash, p.CurrentCash, p.TotalValue, p.BrokerAccountID, p.IsActive, p.CreatedAt, p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	return nil
}

// GetPortfolio returns a single portfolio by ID
func (r *Repository) GetPortfolio(ctx context.Context, id uuid.UUID) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.QueryRow(ctx, `
		SELECT id, name, initial_cash, current_cash, total_value, broker_account_id, is_active, created_at, updated_at
		FROM portfolios WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.InitialCash, &p.CurrentCash, &p.TotalValue, &p.BrokerAccountID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}

	return &p, nil
}

// GetActivePortfolio returns the active portfolio, or nil when none exists.
// The system trades a single portfolio at a time.
func (r *Repository) GetActivePortfolio(ctx context.Context) (*models.Portfolio, error) {
	var p models.Portfolio
	err := r.db.QueryRow(ctx, `
		SELECT id, name, initial_cash, current_cash, total_value, broker_account_id, is_active, created_at, updated_at
		FROM portfolios
		WHERE is_active = true
		ORDER BY created_at
		LIMIT 1
	`).Scan(&p.ID, &p.Name, &p.InitialCash, &p.CurrentCash, &p.TotalValue, &p.BrokerAccountID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}

	return &p, nil
}

// UpdatePortfolioCash sets the portfolio's cash balance
func (r *Repository) UpdatePortfolioCash(ctx context.Context, id uuid.UUID, cash decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		UPDATE portfolios SET current_cash = $2, updated_at = NOW() WHERE id = $1
	`, id, cash)
	if err != nil {
		return fmt.Errorf("failed to update portfolio cash: %w", err)
	}
	return nil
}

// UpdatePortfolioValue sets the portfolio's marked total value
func (r *Repository) UpdatePortfolioValue(ctx context.Context, id uuid.UUID, totalValue decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		UPDATE portfolios SET total_value = $2, updated_at = NOW() WHERE id = $1
	`, id, totalValue)
	if err != nil {
		return fmt.Errorf("failed to update portfolio value: %w", err)
	}
	return nil
}
