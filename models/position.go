package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is a holding within a portfolio, unique per
// (portfolio, instrument). A closed position is zeroed, never deleted.
type Position struct {
	ID                  uuid.UUID       `json:"id"`
	PortfolioID         uuid.UUID       `json:"portfolio_id"`
	InstrumentID        uuid.UUID       `json:"instrument_id"`
	Ticker              string          `json:"ticker,omitempty"`
	Quantity            int64           `json:"quantity"`
	AverageCost         decimal.Decimal `json:"average_cost"`
	CurrentPrice        decimal.Decimal `json:"current_price"`
	CurrentValue        decimal.Decimal `json:"current_value"`
	UnrealizedPL        decimal.Decimal `json:"unrealized_pl"`
	UnrealizedPLPercent decimal.Decimal `json:"unrealized_pl_percent"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func NewPosition(portfolioID, instrumentID uuid.UUID) *Position {
	now := time.Now()
	return &Position{
		ID:           uuid.New(),
		PortfolioID:  portfolioID,
		InstrumentID: instrumentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (p *Position) IsOpen() bool {
	return p.Quantity > 0
}

// AddShares applies a buy fill, recomputing the volume-weighted average cost.
func (p *Position) AddShares(quantity int64, price decimal.Decimal) {
	if p.Quantity > 0 {
		oldCost := decimal.NewFromInt(p.Quantity).Mul(p.AverageCost)
		newCost := decimal.NewFromInt(quantity).Mul(price)
		totalShares := decimal.NewFromInt(p.Quantity + quantity)
		p.AverageCost = oldCost.Add(newCost).Div(totalShares)
	} else {
		p.AverageCost = price
	}
	p.Quantity += quantity
	p.MarkPrice(price)
}

// RemoveShares applies a sell fill. Removing at least the held quantity
// fully closes the position; quantity never goes negative.
func (p *Position) RemoveShares(quantity int64, price decimal.Decimal) {
	if quantity >= p.Quantity {
		p.Quantity = 0
		p.AverageCost = decimal.Zero
		p.CurrentValue = decimal.Zero
		p.UnrealizedPL = decimal.Zero
		p.UnrealizedPLPercent = decimal.Zero
		return
	}
	p.Quantity -= quantity
	p.MarkPrice(price)
}

// MarkPrice updates the reference price and recomputes the derived value and
// unrealized P&L fields.
func (p *Position) MarkPrice(price decimal.Decimal) {
	if price.IsPositive() {
		p.CurrentPrice = price
	}

	if p.CurrentPrice.IsPositive() && p.Quantity > 0 {
		qty := decimal.NewFromInt(p.Quantity)
		p.CurrentValue = qty.Mul(p.CurrentPrice)
		costBasis := qty.Mul(p.AverageCost)
		p.UnrealizedPL = p.CurrentValue.Sub(costBasis)
		if costBasis.IsPositive() {
			p.UnrealizedPLPercent = p.UnrealizedPL.Div(costBasis).Mul(decimal.NewFromInt(100))
		} else {
			p.UnrealizedPLPercent = decimal.Zero
		}
	} else {
		p.CurrentValue = decimal.Zero
		p.UnrealizedPL = decimal.Zero
		p.UnrealizedPLPercent = decimal.Zero
	}
}
