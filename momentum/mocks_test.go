package momentum

import (
	"context"
	"time"

	"momentum-trader/models"

	"github.com/google/uuid"
)

// mockStore is an in-memory Store for calculator and ranker tests.
type mockStore struct {
	instruments []models.Instrument
	bars        map[uuid.UUID][]models.PriceBar
	scores      map[string]models.MomentumScore

	priceNearErr error
	saveScoreErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		bars:   make(map[uuid.UUID][]models.PriceBar),
		scores: make(map[string]models.MomentumScore),
	}
}

func scoreKey(instrumentID uuid.UUID, calcDate time.Time) string {
	return instrumentID.String() + "|" + calcDate.Format("2006-01-02")
}

func (m *mockStore) UpsertInstrument(_ context.Context, inst *models.Instrument) error {
	for _, existing := range m.instruments {
		if existing.Ticker == inst.Ticker {
			inst.ID = existing.ID
			return nil
		}
	}
	m.instruments = append(m.instruments, *inst)
	return nil
}

func (m *mockStore) GetActiveInstruments(_ context.Context) ([]models.Instrument, error) {
	return m.instruments, nil
}

func (m *mockStore) SavePriceBars(_ context.Context, bars []models.PriceBar) (int, error) {
	inserted := 0
	for _, bar := range bars {
		dup := false
		for _, existing := range m.bars[bar.InstrumentID] {
			if existing.Date.Equal(bar.Date) {
				dup = true
				break
			}
		}
		if !dup {
			m.bars[bar.InstrumentID] = append(m.bars[bar.InstrumentID], bar)
			inserted++
		}
	}
	return inserted, nil
}

func (m *mockStore) GetPriceNear(_ context.Context, instrumentID uuid.UUID, target time.Time, toleranceDays int) (*models.PriceBar, error) {
	if m.priceNearErr != nil {
		return nil, m.priceNearErr
	}

	windowStart := target.AddDate(0, 0, -toleranceDays)
	windowEnd := target.AddDate(0, 0, toleranceDays)

	var best *models.PriceBar
	for i := range m.bars[instrumentID] {
		bar := m.bars[instrumentID][i]
		if bar.Date.Before(windowStart) || bar.Date.After(windowEnd) {
			continue
		}
		if best == nil || bar.Date.Before(best.Date) {
			best = &m.bars[instrumentID][i]
		}
	}
	return best, nil
}

func (m *mockStore) GetLatestBarDate(_ context.Context, instrumentID uuid.UUID) (*time.Time, error) {
	var latest *time.Time
	for i := range m.bars[instrumentID] {
		d := m.bars[instrumentID][i].Date
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest, nil
}

func (m *mockStore) CountPriceBars(_ context.Context, instrumentID uuid.UUID, start, end time.Time) (int, error) {
	count := 0
	for _, bar := range m.bars[instrumentID] {
		if !bar.Date.Before(start) && !bar.Date.After(end) {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) SaveMomentumScore(_ context.Context, score *models.MomentumScore) error {
	if m.saveScoreErr != nil {
		return m.saveScoreErr
	}
	m.scores[scoreKey(score.InstrumentID, score.CalculationDate)] = *score
	return nil
}

func (m *mockStore) GetMomentumScores(_ context.Context, calcDate time.Time) ([]models.MomentumScore, error) {
	var out []models.MomentumScore
	for _, s := range m.scores {
		if s.CalculationDate.Equal(calcDate) {
			out = append(out, s)
		}
	}
	return out, nil
}

// mockProvider is an in-memory PriceProvider.
type mockProvider struct {
	bars     map[string][]models.Bar
	fetchErr error
	nearErr  error

	priceNearCalls int
}

func newMockProvider() *mockProvider {
	return &mockProvider{bars: make(map[string][]models.Bar)}
}

func (m *mockProvider) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []models.Bar
	for _, bar := range m.bars[symbol] {
		if !bar.Date.Before(start) && !bar.Date.After(end) {
			out = append(out, bar)
		}
	}
	return out, nil
}

func (m *mockProvider) PriceNear(_ context.Context, symbol string, target time.Time, toleranceDays int) (*models.Bar, error) {
	m.priceNearCalls++
	if m.nearErr != nil {
		return nil, m.nearErr
	}

	windowStart := target.AddDate(0, 0, -toleranceDays)
	windowEnd := target.AddDate(0, 0, toleranceDays)

	var best *models.Bar
	for i := range m.bars[symbol] {
		bar := m.bars[symbol][i]
		if bar.Date.Before(windowStart) || bar.Date.After(windowEnd) {
			continue
		}
		if best == nil || bar.Date.Before(best.Date) {
			best = &m.bars[symbol][i]
		}
	}
	return best, nil
}
