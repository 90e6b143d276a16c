package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceBar is one daily OHLCV bar. At most one bar exists per
// (instrument, date), and bars are immutable once written: backfill fills
// gaps but never overwrites.
type PriceBar struct {
	ID            uuid.UUID           `json:"id"`
	InstrumentID  uuid.UUID           `json:"instrument_id"`
	Date          time.Time           `json:"date"`
	Open          decimal.Decimal     `json:"open"`
	High          decimal.Decimal     `json:"high"`
	Low           decimal.Decimal     `json:"low"`
	Close         decimal.Decimal     `json:"close"`
	Volume        int64               `json:"volume"`
	AdjustedClose decimal.NullDecimal `json:"adjusted_close,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func NewPriceBar(instrumentID uuid.UUID, date time.Time, open, high, low, closePrice decimal.Decimal, volume int64) *PriceBar {
	return &PriceBar{
		ID:           uuid.New(),
		InstrumentID: instrumentID,
		Date:         date,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closePrice,
		Volume:       volume,
		CreatedAt:    time.Now(),
	}
}
