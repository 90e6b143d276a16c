package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SignalType string

const (
	SignalTypeBuy  SignalType = "BUY"
	SignalTypeSell SignalType = "SELL"
)

// TradingSignal is a generated buy or sell intent. MomentumScoreID is a weak
// reference: the justifying score may be deleted later, which leaves the
// signal valid but rankless. Signals are mutable until executed and
// deletable while pending.
type TradingSignal struct {
	ID              uuid.UUID           `json:"id"`
	InstrumentID    uuid.UUID           `json:"instrument_id"`
	Ticker          string              `json:"ticker,omitempty"`
	SignalDate      time.Time           `json:"signal_date"`
	Type            SignalType          `json:"signal_type"`
	MomentumScoreID *uuid.UUID          `json:"momentum_score_id,omitempty"`
	TargetQuantity  int64               `json:"target_quantity,omitempty"`
	TargetValue     decimal.NullDecimal `json:"target_value,omitempty"`
	Reason          string              `json:"reason"`
	IsExecuted      bool                `json:"is_executed"`
	ExecutedAt      *time.Time          `json:"executed_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func NewTradingSignal(instrumentID uuid.UUID, signalDate time.Time, signalType SignalType) *TradingSignal {
	return &TradingSignal{
		ID:           uuid.New(),
		InstrumentID: instrumentID,
		SignalDate:   signalDate,
		Type:         signalType,
		CreatedAt:    time.Now(),
	}
}

// MarkExecuted records that an order has been submitted against the signal.
func (s *TradingSignal) MarkExecuted(at time.Time) {
	s.IsExecuted = true
	s.ExecutedAt = &at
}
