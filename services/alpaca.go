package services

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/models"
	"momentum-trader/observability"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
)

// alpacaTradeClient is the subset of the Alpaca SDK the brokerage adapter
// uses, kept as an interface so tests can substitute it.
type alpacaTradeClient interface {
	GetAccount() (*alpaca.Account, error)
	GetPositions() ([]alpaca.Position, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	GetOrder(orderID string) (*alpaca.Order, error)
}

// AlpacaService is the brokerage adapter backed by the Alpaca trading API
type AlpacaService struct {
	tradeClient alpacaTradeClient
}

// NewAlpacaService creates a new AlpacaService instance
func NewAlpacaService(apiKey, apiSecret, baseURL string) *AlpacaService {
	tradeClient := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})

	return &AlpacaService{tradeClient: tradeClient}
}

// GetCashBalance returns the account's settled cash balance
func (s *AlpacaService) GetCashBalance(ctx context.Context) (decimal.Decimal, error) {
	start := time.Now()
	account, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() (*alpaca.Account, error) {
		return s.tradeClient.GetAccount()
	})
	observability.GetMetrics().RecordExternalAPIRequest("alpaca", "get_account", time.Since(start), err)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get account: %w", err)
	}

	return account.Cash, nil
}

// ListPositions returns the broker's view of current holdings
func (s *AlpacaService) ListPositions(ctx context.Context) ([]models.BrokerPosition, error) {
	start := time.Now()
	positions, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() ([]alpaca.Position, error) {
		return s.tradeClient.GetPositions()
	})
	observability.GetMetrics().RecordExternalAPIRequest("alpaca", "list_positions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}

	result := make([]models.BrokerPosition, 0, len(positions))
	for _, pos := range positions {
		bp := models.BrokerPosition{
			Symbol:   pos.Symbol,
			Quantity: pos.Qty.IntPart(),
		}
		if pos.AvgEntryPrice.IsPositive() {
			bp.AverageCost = pos.AvgEntryPrice
		}
		if pos.CurrentPrice != nil {
			bp.CurrentPrice = *pos.CurrentPrice
		}
		result = append(result, bp)
	}

	return result, nil
}

// SubmitMarketOrder submits a day market order and returns the broker's
// order id
func (s *AlpacaService) SubmitMarketOrder(ctx context.Context, symbol string, side models.TradeSide, quantity int64) (string, error) {
	qty := decimal.NewFromInt(quantity)

	alpacaSide := alpaca.Buy
	if side == models.TradeSideSell {
		alpacaSide = alpaca.Sell
	}

	start := time.Now()
	order, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() (*alpaca.Order, error) {
		return s.tradeClient.PlaceOrder(alpaca.PlaceOrderRequest{
			Symbol:      symbol,
			Qty:         &qty,
			Side:        alpacaSide,
			Type:        alpaca.Market,
			TimeInForce: alpaca.Day,
		})
	})
	observability.GetMetrics().RecordExternalAPIRequest("alpaca", "submit_order", time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("failed to submit %s order for %s: %w", side, symbol, err)
	}

	return order.ID, nil
}

// GetOrderStatus returns the broker-reported lifecycle state of an order
func (s *AlpacaService) GetOrderStatus(ctx context.Context, orderID string) (*models.OrderStatus, error) {
	start := time.Now()
	order, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() (*alpaca.Order, error) {
		return s.tradeClient.GetOrder(orderID)
	})
	observability.GetMetrics().RecordExternalAPIRequest("alpaca", "get_order", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	status := &models.OrderStatus{
		ExternalOrderID: order.ID,
		State:           mapOrderStatus(order.Status),
		FilledQuantity:  order.FilledQty.IntPart(),
	}
	if order.FilledAvgPrice != nil {
		status.FilledPrice = decimal.NewNullDecimal(*order.FilledAvgPrice)
	}

	return status, nil
}

// mapOrderStatus translates Alpaca order states onto the trade lifecycle
func mapOrderStatus(status string) models.TradeStatus {
	switch status {
	case "filled":
		return models.TradeStatusFilled
	case "partially_filled":
		return models.TradeStatusPartiallyFilled
	case "canceled", "expired", "done_for_day":
		return models.TradeStatusCancelled
	case "rejected":
		return models.TradeStatusRejected
	default:
		// new, accepted, pending_new and friends are all still in flight
		return models.TradeStatusSubmitted
	}
}
