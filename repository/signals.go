package repository

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/models"

	"github.com/google/uuid"
)

// CreateSignal persists a trading signal
func (r *Repository) CreateSignal(ctx context.Context, sig *models.TradingSignal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trading_signals (id, instrument_id, signal_date, signal_type, momentum_score_id, target_quantity, target_value, reason, is_executed, executed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, sig.ID, sig.InstrumentID, sig.SignalDate, sig.Type, sig.MomentumScoreID, sig.TargetQuantity, sig.TargetValue, sig.Reason, sig.IsExecuted, sig.ExecutedAt, sig.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create signal: %w", err)
	}

	return nil
}

// GetSignalsByDate returns all signals for a signal date joined with tickers
func (r *Repository) GetSignalsByDate(ctx context.Context, signalDate time.Time) ([]models.TradingSignal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.instrument_id, i.ticker, s.signal_date, s.signal_type, s.momentum_score_id, s.target_quantity, s.target_value, s.reason, s.is_executed, s.executed_at, s.created_at
		FROM trading_signals s
		JOIN instruments i ON i.id = s.instrument_id
		WHERE s.signal_date = $1
		ORDER BY s.signal_type, i.ticker
	`, signalDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	var signals []models.TradingSignal
	for rows.Next() {
		var s models.TradingSignal
		err := rows.Scan(&s.ID, &s.InstrumentID, &s.Ticker, &s.SignalDate, &s.Type, &s.MomentumScoreID, &s.TargetQuantity, &s.TargetValue, &s.Reason, &s.IsExecuted, &s.ExecutedAt, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signals = append(signals, s)
	}

	return signals, nil
}

// MarkSignalExecuted flags a signal as executed with the execution timestamp
func (r *Repository) MarkSignalExecuted(ctx context.Context, id uuid.UUID, executedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE trading_signals SET is_executed = true, executed_at = $2 WHERE id = $1
	`, id, executedAt)
	if err != nil {
		return fmt.Errorf("failed to mark signal executed: %w", err)
	}
	return nil
}

// DeletePendingSignals removes unexecuted signals for a signal date. A new
// rebalance run on the same date starts from a clean slate; executed signals
// are kept as audit history.
func (r *Repository) DeletePendingSignals(ctx context.Context, signalDate time.Time) (int, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM trading_signals WHERE signal_date = $1 AND is_executed = false
	`, signalDate)
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending signals: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
