package models

import (
	"time"

	"github.com/google/uuid"
)

// Instrument is a tradeable equity in the universe. Instruments are never
// hard-deleted; they are deactivated instead.
type Instrument struct {
	ID        uuid.UUID `json:"id"`
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Sector    string    `json:"sector,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewInstrument(ticker string) *Instrument {
	now := time.Now()
	return &Instrument{
		ID:        uuid.New(),
		Ticker:    ticker,
		Name:      ticker,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
