package strategy

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/models"
	"momentum-trader/observability"
	"momentum-trader/repository"
	"momentum-trader/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// cashReserveRatio is the fraction of cash usable for buying. The remaining
// 5% is always withheld as a buffer. Hard constant, not configurable.
var cashReserveRatio = decimal.NewFromFloat(0.95)

// AvailableCashForTrading returns the cash usable for buy allocations after
// the 5% reserve is withheld.
func AvailableCashForTrading(cash decimal.Decimal) decimal.Decimal {
	return cash.Mul(cashReserveRatio)
}

// OrderExecutor submits market orders against the broker and applies fills to
// the portfolio ledger. All ledger mutations for one portfolio are serialized
// through a per-portfolio mutex.
type OrderExecutor struct {
	store      repository.RepositoryInterface
	broker     services.BrokerageInterface
	marketData services.MarketDataInterface
	locks      *portfolioLocks
}

func NewOrderExecutor(store repository.RepositoryInterface, broker services.BrokerageInterface, marketData services.MarketDataInterface) *OrderExecutor {
	return &OrderExecutor{
		store:      store,
		broker:     broker,
		marketData: marketData,
		locks:      newPortfolioLocks(),
	}
}

// ExecuteSells submits a market sell for the full held quantity of each
// instrument. Instruments without an open position are skipped. A submission
// failure is recorded on its own trade and does not stop the batch.
func (e *OrderExecutor) ExecuteSells(ctx context.Context, portfolio *models.Portfolio, instruments []models.Instrument) ([]*models.Trade, error) {
	var trades []*models.Trade

	for _, inst := range instruments {
		pos, err := e.store.GetPosition(ctx, portfolio.ID, inst.ID)
		if err != nil {
			observability.Warn("failed to load position for sell", "ticker", inst.Ticker, "error", err)
			continue
		}
		if pos == nil || pos.Quantity <= 0 {
			observability.Info("no open position to sell, skipping", "ticker", inst.Ticker)
			continue
		}

		trade, err := e.submitOrder(ctx, portfolio, inst, models.TradeSideSell, pos.Quantity, pos.CurrentPrice)
		if err != nil {
			observability.Warn("sell submission failed", "ticker", inst.Ticker, "error", err)
		}
		if trade != nil {
			trades = append(trades, trade)
		}
	}

	return trades, nil
}

// ExecuteBuys splits totalValue equally across the instruments and submits a
// market buy for floor(allocation / price) shares each. The allocation here
// is authoritative; it is computed against live value, not the estimate made
// at signal-generation time. Zero-share allocations are skipped.
func (e *OrderExecutor) ExecuteBuys(ctx context.Context, portfolio *models.Portfolio, instruments []models.Instrument, totalValue decimal.Decimal) ([]*models.Trade, error) {
	if len(instruments) == 0 || !totalValue.IsPositive() {
		return nil, nil
	}

	allocation := totalValue.Div(decimal.NewFromInt(int64(len(instruments))))
	var trades []*models.Trade

	for _, inst := range instruments {
		price, err := e.marketData.LatestPrice(ctx, inst.Ticker)
		if err != nil {
			observability.Warn("failed to fetch reference price", "ticker", inst.Ticker, "error", err)
			continue
		}
		if !price.IsPositive() {
			observability.Warn("non-positive reference price, skipping buy", "ticker", inst.Ticker)
			continue
		}

		quantity := allocation.Div(price).IntPart()
		if quantity <= 0 {
			observability.Info("allocation below one share, skipping",
				"ticker", inst.Ticker, "allocation", allocation.StringFixed(2), "price", price.String())
			continue
		}

		trade, err := e.submitOrder(ctx, portfolio, inst, models.TradeSideBuy, quantity, price)
		if err != nil {
			observability.Warn("buy submission failed", "ticker", inst.Ticker, "error", err)
		}
		if trade != nil {
			trades = append(trades, trade)
		}
	}

	return trades, nil
}

// submitOrder creates the PENDING trade record, submits the market order, and
// moves the trade to SUBMITTED on acceptance. The broker gets one attempt;
// a rejected submission is recorded on the trade.
func (e *OrderExecutor) submitOrder(ctx context.Context, portfolio *models.Portfolio, inst models.Instrument, side models.TradeSide, quantity int64, referencePrice decimal.Decimal) (*models.Trade, error) {
	trade := models.NewTrade(portfolio.ID, inst.ID, inst.Ticker, side, quantity)
	if referencePrice.IsPositive() {
		trade.Price = decimal.NewNullDecimal(referencePrice)
	}

	if err := e.store.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to create trade record: %w", err)
	}

	metrics := observability.GetMetrics()

	orderID, err := e.broker.SubmitMarketOrder(ctx, inst.Ticker, side, quantity)
	if err != nil {
		trade.Status = models.TradeStatusRejected
		trade.ErrorMessage = err.Error()
		if updateErr := e.store.UpdateTrade(ctx, trade); updateErr != nil {
			observability.Error("failed to record rejected trade", "trade_id", trade.ID, "error", updateErr)
		}
		metrics.RecordOrderSubmission(string(side), "rejected")
		return trade, fmt.Errorf("order submission failed: %w", err)
	}

	trade.MarkSubmitted(orderID, time.Now())
	if err := e.store.UpdateTrade(ctx, trade); err != nil {
		return trade, fmt.Errorf("failed to record submitted trade: %w", err)
	}

	metrics.RecordOrderSubmission(string(side), "submitted")
	observability.Info("order submitted",
		"ticker", inst.Ticker, "side", side, "quantity", quantity, "order_id", orderID)

	return trade, nil
}

// PollStatus refreshes a trade from the broker. Terminal trades are a no-op.
// Returns true when the trade changed. A transition to FILLED with a fill
// price applies the fill to the ledger.
func (e *OrderExecutor) PollStatus(ctx context.Context, trade *models.Trade) (bool, error) {
	if trade.Status.IsTerminal() {
		return false, nil
	}
	if trade.ExternalOrderID == "" {
		return false, nil
	}

	status, err := e.broker.GetOrderStatus(ctx, trade.ExternalOrderID)
	if err != nil {
		return false, fmt.Errorf("failed to poll order status: %w", err)
	}

	if status.State == trade.Status && status.FilledQuantity == trade.FilledQuantity {
		return false, nil
	}

	if status.State == models.TradeStatusFilled && status.FilledPrice.Valid {
		if err := e.applyFill(ctx, trade, status); err != nil {
			return false, err
		}
		return true, nil
	}

	trade.Status = status.State
	trade.FilledQuantity = status.FilledQuantity
	trade.FilledPrice = status.FilledPrice
	if err := e.store.UpdateTrade(ctx, trade); err != nil {
		return false, fmt.Errorf("failed to update trade: %w", err)
	}

	return true, nil
}

// PollOpenTrades polls every non-terminal trade for a portfolio. Per-trade
// failures are logged and do not stop the sweep. Returns the number of
// trades that changed.
func (e *OrderExecutor) PollOpenTrades(ctx context.Context, portfolioID uuid.UUID) (int, error) {
	open, err := e.store.GetOpenTrades(ctx, portfolioID)
	if err != nil {
		return 0, fmt.Errorf("failed to load open trades: %w", err)
	}

	updated := 0
	for i := range open {
		changed, err := e.PollStatus(ctx, &open[i])
		if err != nil {
			observability.Warn("trade poll failed", "trade_id", open[i].ID, "error", err)
			continue
		}
		if changed {
			updated++
		}
	}

	return updated, nil
}

// applyFill moves the trade to FILLED and mutates the ledger in one
// transaction under the portfolio lock: the position is updated (buys
// re-average cost, sells zero on close) and cash is debited or credited net
// of commission. Portfolio total value is recomputed afterwards.
func (e *OrderExecutor) applyFill(ctx context.Context, trade *models.Trade, status *models.OrderStatus) error {
	lock := e.locks.get(trade.PortfolioID)
	lock.Lock()
	defer lock.Unlock()

	fillPrice := status.FilledPrice.Decimal
	fillQty := status.FilledQuantity
	if fillQty <= 0 {
		fillQty = trade.Quantity
	}

	now := time.Now()

	err := e.store.Transact(ctx, func(tx repository.RepositoryInterface) error {
		portfolio, err := tx.GetPortfolio(ctx, trade.PortfolioID)
		if err != nil {
			return err
		}
		if portfolio == nil {
			return fmt.Errorf("portfolio %s not found", trade.PortfolioID)
		}

		pos, err := tx.GetPosition(ctx, trade.PortfolioID, trade.InstrumentID)
		if err != nil {
			return err
		}

		gross := decimal.NewFromInt(fillQty).Mul(fillPrice)

		var cash decimal.Decimal
		switch trade.Side {
		case models.TradeSideBuy:
			if pos == nil {
				pos = models.NewPosition(trade.PortfolioID, trade.InstrumentID)
			}
			pos.AddShares(fillQty, fillPrice)
			cash = portfolio.CurrentCash.Sub(gross.Add(trade.Commission))

		case models.TradeSideSell:
			if pos == nil || pos.Quantity < fillQty {
				return fmt.Errorf("%w: ticker %s", ErrInsufficientPosition, trade.Ticker)
			}
			pos.RemoveShares(fillQty, fillPrice)
			cash = portfolio.CurrentCash.Add(gross.Sub(trade.Commission))

		default:
			return fmt.Errorf("unknown trade side %q", trade.Side)
		}

		if err := tx.UpsertPosition(ctx, pos); err != nil {
			return err
		}
		if err := tx.UpdatePortfolioCash(ctx, trade.PortfolioID, cash); err != nil {
			return err
		}

		trade.Status = models.TradeStatusFilled
		trade.FilledQuantity = fillQty
		trade.FilledPrice = status.FilledPrice
		trade.FilledAt = &now
		return tx.UpdateTrade(ctx, trade)
	})
	if err != nil {
		return fmt.Errorf("failed to apply fill: %w", err)
	}

	observability.GetMetrics().RecordFillApplied(string(trade.Side))
	observability.Info("fill applied",
		"ticker", trade.Ticker, "side", trade.Side, "quantity", fillQty, "price", fillPrice.String())

	return e.RevaluePortfolio(ctx, trade.PortfolioID)
}

// RevaluePortfolio recomputes and persists a portfolio's total value from
// cash plus open position values.
func (e *OrderExecutor) RevaluePortfolio(ctx context.Context, portfolioID uuid.UUID) error {
	portfolio, err := e.store.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to load portfolio: %w", err)
	}
	if portfolio == nil {
		return fmt.Errorf("portfolio %s not found", portfolioID)
	}

	positions, err := e.store.GetOpenPositions(ctx, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to load positions: %w", err)
	}

	total := portfolio.RecomputeTotalValue(positions)
	if err := e.store.UpdatePortfolioValue(ctx, portfolioID, total); err != nil {
		return fmt.Errorf("failed to persist portfolio value: %w", err)
	}

	return nil
}
