package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is provider-shaped OHLCV data before it is persisted as a PriceBar.
type Bar struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	VWAP      decimal.Decimal `json:"vwap,omitempty"`
}

// BrokerPosition is a holding as reported by the brokerage during a
// portfolio sync.
type BrokerPosition struct {
	Symbol       string          `json:"symbol"`
	Quantity     int64           `json:"quantity"`
	AverageCost  decimal.Decimal `json:"average_cost"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// OrderStatus is the broker-reported lifecycle state of a submitted order.
type OrderStatus struct {
	ExternalOrderID string              `json:"external_order_id"`
	State           TradeStatus         `json:"state"`
	FilledQuantity  int64               `json:"filled_quantity"`
	FilledPrice     decimal.NullDecimal `json:"filled_price"`
}
