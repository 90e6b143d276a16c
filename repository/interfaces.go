package repository

import (
	"context"
	"time"

	"momentum-trader/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepositoryInterface defines all repository operations
type RepositoryInterface interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error

	// Transact runs fn inside a single transaction
	Transact(ctx context.Context, fn func(RepositoryInterface) error) error

	// Instruments
	UpsertInstrument(ctx context.Context, inst *models.Instrument) error
	GetInstrument(ctx context.Context, id uuid.UUID) (*models.Instrument, error)
	GetInstrumentByTicker(ctx context.Context, ticker string) (*models.Instrument, error)
	GetActiveInstruments(ctx context.Context) ([]models.Instrument, error)
	DeactivateInstrument(ctx context.Context, id uuid.UUID) error

	// Price bars
	SavePriceBars(ctx context.Context, bars []models.PriceBar) (int, error)
	GetPriceNear(ctx context.Context, instrumentID uuid.UUID, target time.Time, toleranceDays int) (*models.PriceBar, error)
	GetPriceBars(ctx context.Context, instrumentID uuid.UUID, start, end time.Time) ([]models.PriceBar, error)
	GetLatestBarDate(ctx context.Context, instrumentID uuid.UUID) (*time.Time, error)
	CountPriceBars(ctx context.Context, instrumentID uuid.UUID, start, end time.Time) (int, error)

	// Momentum scores
	SaveMomentumScore(ctx context.Context, score *models.MomentumScore) error
	GetMomentumScores(ctx context.Context, calculationDate time.Time) ([]models.MomentumScore, error)
	GetScoresByQuintile(ctx context.Context, calculationDate time.Time, quintile int) ([]models.MomentumScore, error)
	GetLatestScoreDate(ctx context.Context) (*time.Time, error)

	// Trading signals
	CreateSignal(ctx context.Context, sig *models.TradingSignal) error
	GetSignalsByDate(ctx context.Context, signalDate time.Time) ([]models.TradingSignal, error)
	MarkSignalExecuted(ctx context.Context, id uuid.UUID, executedAt time.Time) error
	DeletePendingSignals(ctx context.Context, signalDate time.Time) (int, error)

	// Positions
	GetOpenPositions(ctx context.Context, portfolioID uuid.UUID) ([]models.Position, error)
	GetPosition(ctx context.Context, portfolioID, instrumentID uuid.UUID) (*models.Position, error)
	UpsertPosition(ctx context.Context, pos *models.Position) error

	// Trades
	CreateTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	GetOpenTrades(ctx context.Context, portfolioID uuid.UUID) ([]models.Trade, error)
	GetTradesByPortfolio(ctx context.Context, portfolioID uuid.UUID, limit int) ([]models.Trade, error)
	UpdateTrade(ctx context.Context, trade *models.Trade) error

	// Portfolios
	CreatePortfolio(ctx context.Context, p *models.Portfolio) error
	GetPortfolio(ctx context.Context, id uuid.UUID) (*models.Portfolio, error)
	GetActivePortfolio(ctx context.Context) (*models.Portfolio, error)
	UpdatePortfolioCash(ctx context.Context, id uuid.UUID, cash decimal.Decimal) error
	UpdatePortfolioValue(ctx context.Context, id uuid.UUID, totalValue decimal.Decimal) error

	// Rebalance events
	CreateRebalanceEvent(ctx context.Context, event *models.RebalanceEvent) error
	UpdateRebalanceEvent(ctx context.Context, event *models.RebalanceEvent) error
	GetRebalanceEvents(ctx context.Context, portfolioID uuid.UUID, limit int) ([]models.RebalanceEvent, error)
	GetLastCompletedRebalance(ctx context.Context, portfolioID uuid.UUID) (*models.RebalanceEvent, error)
}

// Verify Repository satisfies the interface
var _ RepositoryInterface = (*Repository)(nil)
