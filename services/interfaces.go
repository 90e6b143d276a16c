package services

import (
	"context"
	"time"

	"momentum-trader/models"

	"github.com/shopspring/decimal"
)

// BrokerageInterface defines the operations the order executor and portfolio
// sync need from a brokerage account.
type BrokerageInterface interface {
	GetCashBalance(ctx context.Context) (decimal.Decimal, error)
	ListPositions(ctx context.Context) ([]models.BrokerPosition, error)
	SubmitMarketOrder(ctx context.Context, symbol string, side models.TradeSide, quantity int64) (string, error)
	GetOrderStatus(ctx context.Context, orderID string) (*models.OrderStatus, error)
}

// MarketDataInterface defines price-history operations against the external
// market-data provider.
type MarketDataInterface interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)
	PriceNear(ctx context.Context, symbol string, target time.Time, toleranceDays int) (*models.Bar, error)
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Compile-time interface verification
var _ BrokerageInterface = (*AlpacaService)(nil)
var _ MarketDataInterface = (*FMPService)(nil)
