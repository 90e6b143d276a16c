package strategy

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/models"
	"momentum-trader/observability"
	"momentum-trader/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SignalGenerator turns a ranked score set and the current holdings into buy
// and sell signals. Generation only creates signal records; the ledger is
// untouched.
type SignalGenerator struct {
	store repository.RepositoryInterface
}

func NewSignalGenerator(store repository.RepositoryInterface) *SignalGenerator {
	return &SignalGenerator{store: store}
}

// Generate produces signals for a ranked score set:
//
//   - SELL for every held instrument in the bottom quintile, sized at the
//     full held quantity.
//   - BUY for every top-quintile instrument not already held, equal-weight
//     across the candidates from the cash available after the reserve.
//     Instruments already held never get a BUY, even when they re-qualify.
func (g *SignalGenerator) Generate(ctx context.Context, portfolio *models.Portfolio, ranked []models.MomentumScore, signalDate time.Time) (buys, sells []*models.TradingSignal, err error) {
	positions, err := g.store.GetOpenPositions(ctx, portfolio.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load positions: %w", err)
	}

	held := make(map[uuid.UUID]*models.Position, len(positions))
	for i := range positions {
		held[positions[i].InstrumentID] = &positions[i]
	}

	total := len(ranked)
	metrics := observability.GetMetrics()

	// Sells: held instruments that fell into the bottom quintile
	for i := range ranked {
		score := &ranked[i]
		if score.Quintile != 5 {
			continue
		}
		pos, ok := held[score.InstrumentID]
		if !ok || pos.Quantity <= 0 {
			continue
		}

		sig := models.NewTradingSignal(score.InstrumentID, signalDate, models.SignalTypeSell)
		sig.Ticker = score.Ticker
		sig.MomentumScoreID = &score.ID
		sig.TargetQuantity = pos.Quantity
		sig.TargetValue = decimal.NewNullDecimal(pos.CurrentValue)
		sig.Reason = fmt.Sprintf("bottom quintile: rank %d of %d", score.Rank, total)

		if err := g.store.CreateSignal(ctx, sig); err != nil {
			return nil, nil, fmt.Errorf("failed to persist sell signal: %w", err)
		}
		metrics.RecordSignal(string(models.SignalTypeSell))
		sells = append(sells, sig)
	}

	// Buys: top-quintile instruments not already held
	var candidates []*models.MomentumScore
	for i := range ranked {
		score := &ranked[i]
		if !score.IsTopQuintile {
			continue
		}
		if _, ok := held[score.InstrumentID]; ok {
			continue
		}
		candidates = append(candidates, score)
	}

	available := AvailableCashForTrading(portfolio.CurrentCash)
	if len(candidates) == 0 || !available.IsPositive() {
		return buys, sells, nil
	}

	targetValue := available.Div(decimal.NewFromInt(int64(len(candidates))))

	for _, score := range candidates {
		sig := models.NewTradingSignal(score.InstrumentID, signalDate, models.SignalTypeBuy)
		sig.Ticker = score.Ticker
		sig.MomentumScoreID = &score.ID
		sig.TargetValue = decimal.NewNullDecimal(targetValue)
		sig.Reason = fmt.Sprintf("top quintile: rank %d of %d", score.Rank, total)

		if err := g.store.CreateSignal(ctx, sig); err != nil {
			return nil, nil, fmt.Errorf("failed to persist buy signal: %w", err)
		}
		metrics.RecordSignal(string(models.SignalTypeBuy))
		buys = append(buys, sig)
	}

	return buys, sells, nil
}
