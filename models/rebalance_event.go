package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RebalanceStatus string

const (
	RebalanceStatusPending    RebalanceStatus = "PENDING"
	RebalanceStatusInProgress RebalanceStatus = "IN_PROGRESS"
	RebalanceStatusCompleted  RebalanceStatus = "COMPLETED"
	RebalanceStatusFailed     RebalanceStatus = "FAILED"
)

// RebalanceEvent is one audited rebalance attempt. Events are append-only:
// a COMPLETED or FAILED event is never mutated again, a retry creates a
// fresh event.
type RebalanceEvent struct {
	ID                   uuid.UUID           `json:"id"`
	PortfolioID          uuid.UUID           `json:"portfolio_id"`
	Date                 time.Time           `json:"date"`
	TotalStocksAnalyzed  int                 `json:"total_stocks_analyzed"`
	BuySignalsGenerated  int                 `json:"buy_signals_generated"`
	SellSignalsGenerated int                 `json:"sell_signals_generated"`
	TotalPortfolioValue  decimal.NullDecimal `json:"total_portfolio_value,omitempty"`
	Status               RebalanceStatus     `json:"status"`
	ErrorMessage         string              `json:"error_message,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	CompletedAt          *time.Time          `json:"completed_at,omitempty"`
}

func NewRebalanceEvent(portfolioID uuid.UUID, date time.Time) *RebalanceEvent {
	return &RebalanceEvent{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Date:        date,
		Status:      RebalanceStatusInProgress,
		CreatedAt:   time.Now(),
	}
}

// Complete marks the event COMPLETED with the final portfolio value.
func (e *RebalanceEvent) Complete(portfolioValue decimal.Decimal, at time.Time) {
	e.Status = RebalanceStatusCompleted
	e.TotalPortfolioValue = decimal.NewNullDecimal(portfolioValue)
	e.CompletedAt = &at
}

// Fail marks the event FAILED with the captured error detail.
func (e *RebalanceEvent) Fail(err error, at time.Time) {
	e.Status = RebalanceStatusFailed
	if err != nil {
		e.ErrorMessage = err.Error()
	}
	e.CompletedAt = &at
}
