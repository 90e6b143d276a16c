package momentum

import (
	"context"
	"fmt"

	"momentum-trader/models"
	"momentum-trader/observability"
)

// DefaultUniverse is the seed set of large-cap tickers tracked when no
// instruments exist yet.
var DefaultUniverse = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "BRK.B", "JPM", "V",
	"UNH", "XOM", "JNJ", "WMT", "MA", "PG", "HD", "AVGO", "CVX", "MRK",
	"ABBV", "KO", "PEP", "COST", "ADBE", "MCD", "CSCO", "CRM", "TMO", "ACN",
}

// SyncUniverse upserts the seed tickers and returns the full active universe.
// Existing instruments are untouched beyond the upsert; instruments outside
// the seed list stay active until explicitly deactivated.
func SyncUniverse(ctx context.Context, store Store, tickers []string) ([]models.Instrument, error) {
	if len(tickers) == 0 {
		tickers = DefaultUniverse
	}

	for _, ticker := range tickers {
		inst := models.NewInstrument(ticker)
		if err := store.UpsertInstrument(ctx, inst); err != nil {
			return nil, fmt.Errorf("failed to sync instrument %s: %w", ticker, err)
		}
	}

	instruments, err := store.GetActiveInstruments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load universe: %w", err)
	}

	observability.Info("universe synced", "instruments", len(instruments))
	return instruments, nil
}
