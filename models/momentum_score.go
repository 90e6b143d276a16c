package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MomentumScore is the trailing-momentum score for one instrument on one
// calculation date. Rank and quintile are assigned in a second pass once
// every instrument in the batch has resolved.
type MomentumScore struct {
	ID              uuid.UUID       `json:"id"`
	InstrumentID    uuid.UUID       `json:"instrument_id"`
	Ticker          string          `json:"ticker,omitempty"`
	CalculationDate time.Time       `json:"calculation_date"`
	Score           decimal.Decimal `json:"score"`
	Rank            int             `json:"rank"`
	Quintile        int             `json:"quintile"`
	IsTopQuintile   bool            `json:"is_top_quintile"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	CreatedAt       time.Time       `json:"created_at"`
}

func NewMomentumScore(instrumentID uuid.UUID, calculationDate time.Time, score decimal.Decimal, periodStart, periodEnd time.Time) *MomentumScore {
	return &MomentumScore{
		ID:              uuid.New(),
		InstrumentID:    instrumentID,
		CalculationDate: calculationDate,
		Score:           score,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		CreatedAt:       time.Now(),
	}
}
