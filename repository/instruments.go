package repository

import (
	"context"
	"fmt"

	"momentum-trader/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UpsertInstrument inserts an instrument or updates its metadata when the
// ticker already exists. The instrument's ID is populated from the database
// on return so callers always hold the canonical row ID.
func (r *Repository) UpsertInstrument(ctx context.Context, inst *models.Instrument) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO instruments (id, ticker, name, sector, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker) DO UPDATE
		SET name = EXCLUDED.name, sector = EXCLUDED.sector, is_active = EXCLUDED.is_active, updated_at = NOW()
		RETURNING id
	`, inst.ID, inst.Ticker, inst.Name, inst.Sector, inst.IsActive, inst.CreatedAt, inst.UpdatedAt).Scan(&inst.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert instrument: %w", err)
	}

	return nil
}

// GetInstrument returns a single instrument by ID
func (r *Repository) GetInstrument(ctx context.Context, id uuid.UUID) (*models.Instrument, error) {
	var inst models.Instrument
	err := r.db.QueryRow(ctx, `
		SELECT id, ticker, name, sector, is_active, created_at, updated_at
		FROM instruments WHERE id = $1
	`, id).Scan(&inst.ID, &inst.Ticker, &inst.Name, &inst.Sector, &inst.IsActive, &inst.CreatedAt, &inst.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument: %w", err)
	}

	return &inst, nil
}

// GetInstrumentByTicker returns an instrument by its ticker symbol
func (r *Repository) GetInstrumentByTicker(ctx context.Context, ticker string) (*models.Instrument, error) {
	var inst models.Instrument
	err := r.db.QueryRow(ctx, `
		SELECT id, ticker, name, sector, is_active, created_at, updated_at
		FROM instruments WHERE ticker = $1
	`, ticker).Scan(&inst.ID, &inst.Ticker, &inst.Name, &inst.Sector, &inst.IsActive, &inst.CreatedAt, &inst.UpdatedAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument: %w", err)
	}

	return &inst, nil
}

// GetActiveInstruments returns all instruments eligible for momentum analysis
func (r *Repository) GetActiveInstruments(ctx context.Context) ([]models.Instrument, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ticker, name, sector, is_active, created_at, updated_at
		FROM instruments
		WHERE is_active = true
		ORDER BY ticker
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query instruments: %w", err)
	}
	defer rows.Close()

	var instruments []models.Instrument
	for rows.Next() {
		var inst models.Instrument
		err := rows.Scan(&inst.ID, &inst.Ticker, &inst.Name, &inst.Sector, &inst.IsActive, &inst.CreatedAt, &inst.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instrument: %w", err)
		}
		instruments = append(instruments, inst)
	}

	return instruments, nil
}

// DeactivateInstrument marks an instrument as no longer part of the universe.
// Existing price history and scores are kept.
func (r *Repository) DeactivateInstrument(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		UPDATE instruments SET is_active = false, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate instrument: %w", err)
	}
	return nil
}
