package strategy

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/config"
	"momentum-trader/models"
	"momentum-trader/momentum"
	"momentum-trader/observability"
	"momentum-trader/repository"
	"momentum-trader/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MomentumEngine is the scoring surface the orchestrator drives.
// *momentum.Calculator satisfies it.
type MomentumEngine interface {
	CalculateForUniverse(ctx context.Context, instruments []models.Instrument, calcDate time.Time) (*momentum.BatchResult, error)
}

// RankingEngine assigns ranks and quintiles for a calculation date.
// *momentum.Ranker satisfies it.
type RankingEngine interface {
	RankAndBucket(ctx context.Context, calcDate time.Time) ([]models.MomentumScore, error)
}

// Rebalancer runs the full rebalance sequence for a portfolio and records a
// RebalanceEvent per run.
type Rebalancer struct {
	store    repository.RepositoryInterface
	engine   MomentumEngine
	ranker   RankingEngine
	signals  *SignalGenerator
	executor *OrderExecutor
	broker   services.BrokerageInterface
	cfg      *config.Config
	universe []string
}

func NewRebalancer(store repository.RepositoryInterface, engine MomentumEngine, ranker RankingEngine,
	signals *SignalGenerator, executor *OrderExecutor, broker services.BrokerageInterface,
	cfg *config.Config, universe []string) *Rebalancer {
	return &Rebalancer{
		store:    store,
		engine:   engine,
		ranker:   ranker,
		signals:  signals,
		executor: executor,
		broker:   broker,
		cfg:      cfg,
		universe: universe,
	}
}

// ShouldRebalance reports whether the cadence gate is open for the portfolio:
// true when no COMPLETED rebalance exists, otherwise when enough days have
// passed for the configured frequency. An unknown frequency never
// auto-rebalances. Manual runs bypass this gate entirely.
func (r *Rebalancer) ShouldRebalance(ctx context.Context, portfolioID uuid.UUID, now time.Time) (bool, error) {
	last, err := r.store.GetLastCompletedRebalance(ctx, portfolioID)
	if err != nil {
		return false, fmt.Errorf("failed to look up last rebalance: %w", err)
	}
	if last == nil {
		return true, nil
	}

	days := int(now.Sub(last.Date).Hours() / 24)

	switch r.cfg.Rebalance.Frequency {
	case "weekly":
		return days >= 7, nil
	case "monthly":
		return days >= 30, nil
	default:
		return false, nil
	}
}

// ValidateSetup refuses a rebalance before any mutation when brokerage
// credentials or account linkage are missing. Thin local data is only a
// warning.
func (r *Rebalancer) ValidateSetup(ctx context.Context, portfolio *models.Portfolio) error {
	if !r.cfg.HasAlpaca() {
		return fmt.Errorf("%w: brokerage API credentials are not configured", ErrInvalidSetup)
	}
	if portfolio.BrokerAccountID == "" {
		return fmt.Errorf("%w: portfolio %s has no broker account linked", ErrInvalidSetup, portfolio.ID)
	}

	latest, err := r.store.GetLatestScoreDate(ctx)
	if err == nil && latest == nil {
		observability.Warn("no momentum history yet, first rebalance will compute from scratch")
	}

	return nil
}

// Run executes the rebalance sequence for calcDate: sync the universe, score
// it, rank it, generate signals, execute sells then buys, mark executed
// signals, and revalue the portfolio. The event is persisted IN_PROGRESS up
// front so an interrupted run leaves a record, and finishes COMPLETED or
// FAILED.
func (r *Rebalancer) Run(ctx context.Context, portfolio *models.Portfolio, calcDate time.Time) (*models.RebalanceEvent, error) {
	if err := r.ValidateSetup(ctx, portfolio); err != nil {
		return nil, err
	}

	started := time.Now()
	event := models.NewRebalanceEvent(portfolio.ID, calcDate)
	if err := r.store.CreateRebalanceEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create rebalance event: %w", err)
	}

	observability.Info("rebalance started",
		"portfolio", portfolio.Name, "date", calcDate.Format("2006-01-02"))

	total, err := r.run(ctx, portfolio, event, calcDate)
	if err != nil {
		event.Fail(err, time.Now())
		if updateErr := r.store.UpdateRebalanceEvent(ctx, event); updateErr != nil {
			observability.Error("failed to record rebalance failure", "event_id", event.ID, "error", updateErr)
		}
		observability.GetMetrics().RecordRebalance("failed", time.Since(started))
		observability.Error("rebalance failed", "portfolio", portfolio.Name, "error", err)
		return event, err
	}

	event.Complete(total, time.Now())
	if err := r.store.UpdateRebalanceEvent(ctx, event); err != nil {
		return event, fmt.Errorf("failed to record rebalance completion: %w", err)
	}

	observability.GetMetrics().RecordRebalance("completed", time.Since(started))
	observability.Info("rebalance complete",
		"portfolio", portfolio.Name,
		"analyzed", event.TotalStocksAnalyzed,
		"buys", event.BuySignalsGenerated,
		"sells", event.SellSignalsGenerated,
		"total_value", total.StringFixed(2))

	return event, nil
}

func (r *Rebalancer) run(ctx context.Context, portfolio *models.Portfolio, event *models.RebalanceEvent, calcDate time.Time) (decimal.Decimal, error) {
	// (1) refresh the instrument universe
	instruments, err := momentum.SyncUniverse(ctx, r.store, r.universe)
	if err != nil {
		return decimal.Zero, fmt.Errorf("universe sync failed: %w", err)
	}

	// (2) bulk momentum recomputation
	result, err := r.engine.CalculateForUniverse(ctx, instruments, calcDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("momentum calculation failed: %w", err)
	}
	event.TotalStocksAnalyzed = len(instruments)
	observability.GetMetrics().StocksAnalyzed.Observe(float64(len(result.Scored)))

	// (3) rank and bucket
	ranked, err := r.ranker.RankAndBucket(ctx, calcDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ranking failed: %w", err)
	}

	// (4) generate signals, discarding any unexecuted leftovers for the date
	if _, err := r.store.DeletePendingSignals(ctx, calcDate); err != nil {
		return decimal.Zero, fmt.Errorf("failed to clear pending signals: %w", err)
	}
	buys, sells, err := r.signals.Generate(ctx, portfolio, ranked, calcDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("signal generation failed: %w", err)
	}
	event.BuySignalsGenerated = len(buys)
	event.SellSignalsGenerated = len(sells)

	// (5) sells first to free cash, then buys sized from cash plus the
	// signaled sell proceeds. Proceeds are not confirmed realized at this
	// point; the estimate is an intentional upper bound.
	sellTrades, err := r.executor.ExecuteSells(ctx, portfolio, signalInstruments(sells))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sell execution failed: %w", err)
	}

	estimatedProceeds := decimal.Zero
	for _, sig := range sells {
		if sig.TargetValue.Valid {
			estimatedProceeds = estimatedProceeds.Add(sig.TargetValue.Decimal)
		}
	}
	buyBudget := AvailableCashForTrading(portfolio.CurrentCash.Add(estimatedProceeds))

	buyTrades, err := r.executor.ExecuteBuys(ctx, portfolio, signalInstruments(buys), buyBudget)
	if err != nil {
		return decimal.Zero, fmt.Errorf("buy execution failed: %w", err)
	}

	// (6) mark signals whose orders were accepted
	submitted := make(map[uuid.UUID]bool)
	for _, trade := range append(sellTrades, buyTrades...) {
		if trade.Status == models.TradeStatusSubmitted {
			submitted[trade.InstrumentID] = true
		}
	}
	now := time.Now()
	for _, sig := range append(sells, buys...) {
		if !submitted[sig.InstrumentID] {
			continue
		}
		if err := r.store.MarkSignalExecuted(ctx, sig.ID, now); err != nil {
			return decimal.Zero, fmt.Errorf("failed to mark signal executed: %w", err)
		}
		sig.MarkExecuted(now)
	}

	// (7) recompute and persist portfolio total value
	if err := r.executor.RevaluePortfolio(ctx, portfolio.ID); err != nil {
		return decimal.Zero, err
	}

	refreshed, err := r.store.GetPortfolio(ctx, portfolio.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to reload portfolio: %w", err)
	}
	if refreshed == nil {
		return decimal.Zero, fmt.Errorf("portfolio %s disappeared mid-rebalance", portfolio.ID)
	}

	return refreshed.TotalValue, nil
}

// SyncPortfolio reconciles the local ledger from brokerage truth: cash
// balance and every broker position, creating instruments as needed. Any
// external failure here is fatal; there is no per-item fallback for an
// authoritative sync.
func (r *Rebalancer) SyncPortfolio(ctx context.Context, portfolio *models.Portfolio) error {
	if r.broker == nil {
		return fmt.Errorf("%w: brokerage API credentials are not configured", ErrInvalidSetup)
	}

	cash, err := r.broker.GetCashBalance(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch broker cash balance: %w", err)
	}

	brokerPositions, err := r.broker.ListPositions(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch broker positions: %w", err)
	}

	if err := r.store.UpdatePortfolioCash(ctx, portfolio.ID, cash); err != nil {
		return err
	}
	portfolio.CurrentCash = cash

	for _, bp := range brokerPositions {
		inst, err := r.store.GetInstrumentByTicker(ctx, bp.Symbol)
		if err != nil {
			return err
		}
		if inst == nil {
			inst = models.NewInstrument(bp.Symbol)
			if err := r.store.UpsertInstrument(ctx, inst); err != nil {
				return err
			}
		}

		pos, err := r.store.GetPosition(ctx, portfolio.ID, inst.ID)
		if err != nil {
			return err
		}
		if pos == nil {
			pos = models.NewPosition(portfolio.ID, inst.ID)
		}

		pos.Quantity = bp.Quantity
		pos.AverageCost = bp.AverageCost
		pos.MarkPrice(bp.CurrentPrice)

		if err := r.store.UpsertPosition(ctx, pos); err != nil {
			return err
		}
	}

	if err := r.executor.RevaluePortfolio(ctx, portfolio.ID); err != nil {
		return err
	}

	observability.Info("portfolio synced from broker",
		"portfolio", portfolio.Name, "cash", cash.StringFixed(2), "positions", len(brokerPositions))

	return nil
}

func signalInstruments(signals []*models.TradingSignal) []models.Instrument {
	instruments := make([]models.Instrument, 0, len(signals))
	for _, sig := range signals {
		instruments = append(instruments, models.Instrument{ID: sig.InstrumentID, Ticker: sig.Ticker})
	}
	return instruments
}
