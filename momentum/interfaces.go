package momentum

import (
	"context"
	"time"

	"momentum-trader/models"

	"github.com/google/uuid"
)

// Store is the persistence surface the momentum engine depends on.
// *repository.Repository satisfies it.
type Store interface {
	UpsertInstrument(ctx context.Context, inst *models.Instrument) error
	GetActiveInstruments(ctx context.Context) ([]models.Instrument, error)
	SavePriceBars(ctx context.Context, bars []models.PriceBar) (int, error)
	GetPriceNear(ctx context.Context, instrumentID uuid.UUID, target time.Time, toleranceDays int) (*models.PriceBar, error)
	GetLatestBarDate(ctx context.Context, instrumentID uuid.UUID) (*time.Time, error)
	CountPriceBars(ctx context.Context, instrumentID uuid.UUID, start, end time.Time) (int, error)
	SaveMomentumScore(ctx context.Context, score *models.MomentumScore) error
	GetMomentumScores(ctx context.Context, calculationDate time.Time) ([]models.MomentumScore, error)
}

// PriceProvider is the external market-data surface used for fallback
// lookups and backfill. *services.FMPService satisfies it.
type PriceProvider interface {
	FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error)
	PriceNear(ctx context.Context, symbol string, target time.Time, toleranceDays int) (*models.Bar, error)
}
