package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Portfolio holds the authoritative cash balance and broker linkage for one
// account. TotalValue is derived and only changes through RecomputeTotalValue.
type Portfolio struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	InitialCash     decimal.Decimal `json:"initial_cash"`
	CurrentCash     decimal.Decimal `json:"current_cash"`
	TotalValue      decimal.Decimal `json:"total_value"`
	BrokerAccountID string          `json:"broker_account_id,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func NewPortfolio(name string, initialCash decimal.Decimal) *Portfolio {
	now := time.Now()
	return &Portfolio{
		ID:          uuid.New(),
		Name:        name,
		InitialCash: initialCash,
		CurrentCash: initialCash,
		TotalValue:  initialCash,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// RecomputeTotalValue sets total value to cash plus the value of all open
// positions and returns it.
func (p *Portfolio) RecomputeTotalValue(positions []Position) decimal.Decimal {
	total := p.CurrentCash
	for _, pos := range positions {
		if pos.IsOpen() {
			total = total.Add(pos.CurrentValue)
		}
	}
	p.TotalValue = total
	return total
}
