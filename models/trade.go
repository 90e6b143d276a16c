package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

type TradeStatus string

const (
	TradeStatusPending         TradeStatus = "PENDING"
	TradeStatusSubmitted       TradeStatus = "SUBMITTED"
	TradeStatusFilled          TradeStatus = "FILLED"
	TradeStatusPartiallyFilled TradeStatus = "PARTIALLY_FILLED"
	TradeStatusCancelled       TradeStatus = "CANCELLED"
	TradeStatusRejected        TradeStatus = "REJECTED"
)

// IsTerminal reports whether the status can no longer change.
func (s TradeStatus) IsTerminal() bool {
	return s == TradeStatusFilled || s == TradeStatusCancelled || s == TradeStatusRejected
}

// Trade records one buy or sell order and its lifecycle against the broker.
type Trade struct {
	ID              uuid.UUID           `json:"id"`
	PortfolioID     uuid.UUID           `json:"portfolio_id"`
	InstrumentID    uuid.UUID           `json:"instrument_id"`
	Ticker          string              `json:"ticker"`
	Side            TradeSide           `json:"side"`
	Quantity        int64               `json:"quantity"`
	Price           decimal.NullDecimal `json:"price,omitempty"`
	FilledQuantity  int64               `json:"filled_quantity"`
	FilledPrice     decimal.NullDecimal `json:"filled_price,omitempty"`
	Commission      decimal.Decimal     `json:"commission"`
	Status          TradeStatus         `json:"status"`
	ExternalOrderID string              `json:"external_order_id,omitempty"`
	ErrorMessage    string              `json:"error_message,omitempty"`
	SubmittedAt     *time.Time          `json:"submitted_at,omitempty"`
	FilledAt        *time.Time          `json:"filled_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func NewTrade(portfolioID, instrumentID uuid.UUID, ticker string, side TradeSide, quantity int64) *Trade {
	return &Trade{
		ID:           uuid.New(),
		PortfolioID:  portfolioID,
		InstrumentID: instrumentID,
		Ticker:       ticker,
		Side:         side,
		Quantity:     quantity,
		Commission:   decimal.Zero,
		Status:       TradeStatusPending,
		CreatedAt:    time.Now(),
	}
}

// OrderValue is the requested notional, when a reference price is known.
func (t *Trade) OrderValue() decimal.Decimal {
	if !t.Price.Valid {
		return decimal.Zero
	}
	return decimal.NewFromInt(t.Quantity).Mul(t.Price.Decimal)
}

// MarkSubmitted transitions the trade out of PENDING once the broker accepts
// the order.
func (t *Trade) MarkSubmitted(externalOrderID string, at time.Time) {
	t.ExternalOrderID = externalOrderID
	t.Status = TradeStatusSubmitted
	t.SubmittedAt = &at
}
