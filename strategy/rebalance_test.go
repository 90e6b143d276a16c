package strategy

import (
	"context"
	"errors"
	"testing"
	"time"

	"momentum-trader/config"
	"momentum-trader/models"
	"momentum-trader/momentum"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// mockEngine returns a scripted batch result.
type mockEngine struct {
	result *momentum.BatchResult
	err    error
}

func (m *mockEngine) CalculateForUniverse(_ context.Context, instruments []models.Instrument, _ time.Time) (*momentum.BatchResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &momentum.BatchResult{}, nil
}

// mockRanker returns scripted ranked scores.
type mockRanker struct {
	ranked []models.MomentumScore
	err    error
}

func (m *mockRanker) RankAndBucket(_ context.Context, _ time.Time) ([]models.MomentumScore, error) {
	return m.ranked, m.err
}

func rebalancerConfig() *config.Config {
	cfg := config.NewTestConfig()
	cfg.Alpaca.APIKey = "test-key"
	cfg.Alpaca.APISecret = "test-secret"
	return cfg
}

func TestShouldRebalanceCadence(t *testing.T) {
	now := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		frequency    string
		daysSince    int // -1 means no prior completed event
		want         bool
	}{
		{"no prior event", "weekly", -1, true},
		{"weekly too soon", "weekly", 6, false},
		{"weekly due", "weekly", 7, true},
		{"monthly too soon", "monthly", 29, false},
		{"monthly due", "monthly", 30, true},
		{"unknown frequency never fires", "daily", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepo()
			portfolio := models.NewPortfolio("test", decimal.NewFromInt(10000))
			repo.CreatePortfolio(context.Background(), portfolio)

			if tt.daysSince >= 0 {
				event := models.NewRebalanceEvent(portfolio.ID, now.AddDate(0, 0, -tt.daysSince))
				event.Complete(decimal.NewFromInt(10000), now.AddDate(0, 0, -tt.daysSince))
				repo.CreateRebalanceEvent(context.Background(), event)
			}

			cfg := rebalancerConfig()
			cfg.Rebalance.Frequency = tt.frequency

			r := NewRebalancer(repo, &mockEngine{}, &mockRanker{}, NewSignalGenerator(repo),
				NewOrderExecutor(repo, newMockBroker(), newMockMarketData()), newMockBroker(), cfg, nil)

			got, err := r.ShouldRebalance(context.Background(), portfolio.ID, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValidateSetup(t *testing.T) {
	repo := newMockRepo()
	portfolio := models.NewPortfolio("test", decimal.NewFromInt(10000))
	portfolio.BrokerAccountID = "acct-1"
	repo.CreatePortfolio(context.Background(), portfolio)

	executor := NewOrderExecutor(repo, newMockBroker(), newMockMarketData())

	t.Run("missing credentials", func(t *testing.T) {
		cfg := config.NewTestConfig() // no Alpaca keys
		r := NewRebalancer(repo, &mockEngine{}, &mockRanker{}, NewSignalGenerator(repo), executor, newMockBroker(), cfg, nil)
		if err := r.ValidateSetup(context.Background(), portfolio); !errors.Is(err, ErrInvalidSetup) {
			t.Errorf("expected ErrInvalidSetup, got %v", err)
		}
	})

	t.Run("missing broker account", func(t *testing.T) {
		unlinked := models.NewPortfolio("unlinked", decimal.NewFromInt(10000))
		r := NewRebalancer(repo, &mockEngine{}, &mockRanker{}, NewSignalGenerator(repo), executor, newMockBroker(), rebalancerConfig(), nil)
		if err := r.ValidateSetup(context.Background(), unlinked); !errors.Is(err, ErrInvalidSetup) {
			t.Errorf("expected ErrInvalidSetup, got %v", err)
		}
	})

	t.Run("valid setup", func(t *testing.T) {
		r := NewRebalancer(repo, &mockEngine{}, &mockRanker{}, NewSignalGenerator(repo), executor, newMockBroker(), rebalancerConfig(), nil)
		if err := r.ValidateSetup(context.Background(), portfolio); err != nil {
			t.Errorf("expected valid setup, got %v", err)
		}
	})
}

func TestRunRefusesInvalidSetupBeforeAnyMutation(t *testing.T) {
	repo := newMockRepo()
	portfolio := models.NewPortfolio("test", decimal.NewFromInt(10000))
	repo.CreatePortfolio(context.Background(), portfolio)

	cfg := config.NewTestConfig() // no credentials
	r := NewRebalancer(repo, &mockEngine{}, &mockRanker{}, NewSignalGenerator(repo),
		NewOrderExecutor(repo, newMockBroker(), newMockMarketData()), newMockBroker(), cfg, nil)

	_, err := r.Run(context.Background(), portfolio, time.Now())
	if !errors.Is(err, ErrInvalidSetup) {
		t.Fatalf("expected ErrInvalidSetup, got %v", err)
	}

	events, _ := repo.GetRebalanceEvents(context.Background(), portfolio.ID, 10)
	if len(events) != 0 {
		t.Errorf("expected no event recorded for refused rebalance, got %d", len(events))
	}
}

func TestRunEndToEnd(t *testing.T) {
	repo := newMockRepo()
	broker := newMockBroker()
	marketData := newMockMarketData()
	executor := NewOrderExecutor(repo, broker, marketData)

	portfolio := models.NewPortfolio("live", decimal.NewFromInt(10000))
	portfolio.BrokerAccountID = "acct-1"
	repo.CreatePortfolio(context.Background(), portfolio)

	calcDate := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	// Universe of two: WIN (top quintile, unheld) and LOSE (bottom, held)
	win := models.NewInstrument("WIN")
	lose := models.NewInstrument("LOSE")
	repo.UpsertInstrument(context.Background(), win)
	repo.UpsertInstrument(context.Background(), lose)

	pos := models.NewPosition(portfolio.ID, lose.ID)
	pos.AddShares(20, decimal.NewFromInt(50))
	repo.UpsertPosition(context.Background(), pos)

	ranked := []models.MomentumScore{
		{ID: uuid.New(), InstrumentID: win.ID, Ticker: "WIN", CalculationDate: calcDate,
			Score: decimal.NewFromFloat(0.8), Rank: 1, Quintile: 1, IsTopQuintile: true},
		{ID: uuid.New(), InstrumentID: lose.ID, Ticker: "LOSE", CalculationDate: calcDate,
			Score: decimal.NewFromFloat(-0.4), Rank: 2, Quintile: 5},
	}

	marketData.prices["WIN"] = decimal.NewFromInt(100)

	engine := &mockEngine{result: &momentum.BatchResult{}}
	r := NewRebalancer(repo, engine, &mockRanker{ranked: ranked}, NewSignalGenerator(repo),
		executor, broker, rebalancerConfig(), []string{"WIN", "LOSE"})

	event, err := r.Run(context.Background(), portfolio, calcDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.Status != models.RebalanceStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", event.Status)
	}
	if event.SellSignalsGenerated != 1 {
		t.Errorf("expected sell_signals_generated=1, got %d", event.SellSignalsGenerated)
	}
	if event.BuySignalsGenerated != 1 {
		t.Errorf("expected buy_signals_generated=1, got %d", event.BuySignalsGenerated)
	}
	if event.TotalStocksAnalyzed != 2 {
		t.Errorf("expected 2 stocks analyzed, got %d", event.TotalStocksAnalyzed)
	}
	if !event.TotalPortfolioValue.Valid {
		t.Errorf("expected final portfolio value recorded")
	}

	// Sell submitted for the full 20 shares, then a buy for WIN
	if len(broker.submissions) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(broker.submissions))
	}
	if broker.submissions[0].side != models.TradeSideSell || broker.submissions[0].symbol != "LOSE" {
		t.Errorf("expected sell of LOSE first, got %+v", broker.submissions[0])
	}
	if broker.submissions[1].side != models.TradeSideBuy || broker.submissions[1].symbol != "WIN" {
		t.Errorf("expected buy of WIN second, got %+v", broker.submissions[1])
	}

	// Executed signals are marked
	signals, _ := repo.GetSignalsByDate(context.Background(), calcDate)
	for _, sig := range signals {
		if !sig.IsExecuted {
			t.Errorf("signal %s (%s) not marked executed", sig.ID, sig.Type)
		}
	}

	// The event is persisted with its final state
	events, _ := repo.GetRebalanceEvents(context.Background(), portfolio.ID, 10)
	if len(events) != 1 || events[0].Status != models.RebalanceStatusCompleted {
		t.Errorf("expected 1 persisted COMPLETED event, got %+v", events)
	}
}

func TestRunFailureRecordsFailedEvent(t *testing.T) {
	repo := newMockRepo()
	portfolio := models.NewPortfolio("test", decimal.NewFromInt(10000))
	portfolio.BrokerAccountID = "acct-1"
	repo.CreatePortfolio(context.Background(), portfolio)

	engine := &mockEngine{err: errors.New("provider exploded")}
	r := NewRebalancer(repo, engine, &mockRanker{}, NewSignalGenerator(repo),
		NewOrderExecutor(repo, newMockBroker(), newMockMarketData()), newMockBroker(), rebalancerConfig(), []string{"AAA"})

	event, err := r.Run(context.Background(), portfolio, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if event == nil || event.Status != models.RebalanceStatusFailed {
		t.Fatalf("expected FAILED event, got %+v", event)
	}
	if event.ErrorMessage == "" {
		t.Error("expected captured error detail")
	}

	stored, _ := repo.GetRebalanceEvents(context.Background(), portfolio.ID, 10)
	if len(stored) != 1 || stored[0].Status != models.RebalanceStatusFailed {
		t.Errorf("expected persisted FAILED event, got %+v", stored)
	}
}

func TestSyncPortfolioReconcilesFromBroker(t *testing.T) {
	repo := newMockRepo()
	broker := newMockBroker()
	executor := NewOrderExecutor(repo, broker, newMockMarketData())

	portfolio := models.NewPortfolio("sync", decimal.NewFromInt(10000))
	portfolio.BrokerAccountID = "acct-1"
	repo.CreatePortfolio(context.Background(), portfolio)

	broker.cash = decimal.NewFromInt(8200)
	broker.positions = []models.BrokerPosition{
		{Symbol: "NEW", Quantity: 15, AverageCost: decimal.NewFromInt(40), CurrentPrice: decimal.NewFromInt(44)},
	}

	r := NewRebalancer(repo, &mockEngine{}, &mockRanker{}, NewSignalGenerator(repo), executor, broker, rebalancerConfig(), nil)

	if err := r.SyncPortfolio(context.Background(), portfolio); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := repo.GetPortfolio(context.Background(), portfolio.ID)
	if !p.CurrentCash.Equal(decimal.NewFromInt(8200)) {
		t.Errorf("expected cash synced to 8200, got %s", p.CurrentCash)
	}

	// Instrument auto-created and position mirrored
	inst, _ := repo.GetInstrumentByTicker(context.Background(), "NEW")
	if inst == nil {
		t.Fatal("expected instrument created for broker position")
	}
	pos, _ := repo.GetPosition(context.Background(), portfolio.ID, inst.ID)
	if pos == nil || pos.Quantity != 15 {
		t.Fatalf("expected mirrored position of 15 shares, got %+v", pos)
	}
	if !pos.CurrentValue.Equal(decimal.NewFromInt(660)) {
		t.Errorf("expected marked value 660, got %s", pos.CurrentValue)
	}
}

func TestSyncPortfolioFatalOnBrokerFailure(t *testing.T) {
	repo := newMockRepo()
	broker := newMockBroker()
	broker.listErr = errors.New("brokerage down")
	executor := NewOrderExecutor(repo, broker, newMockMarketData())

	portfolio := models.NewPortfolio("sync", decimal.NewFromInt(10000))
	repo.CreatePortfolio(context.Background(), portfolio)

	r := NewRebalancer(repo, &mockEngine{}, &mockRanker{}, NewSignalGenerator(repo), executor, broker, rebalancerConfig(), nil)

	if err := r.SyncPortfolio(context.Background(), portfolio); err == nil {
		t.Fatal("expected sync to be fatal on broker failure")
	}
}
