package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"momentum-trader/models"
	"momentum-trader/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// mockRepo is an in-memory RepositoryInterface for strategy tests.
type mockRepo struct {
	instruments []models.Instrument
	portfolios  map[uuid.UUID]*models.Portfolio
	positions   map[string]*models.Position // portfolioID|instrumentID
	trades      map[uuid.UUID]*models.Trade
	signals     map[uuid.UUID]*models.TradingSignal
	scores      map[string]models.MomentumScore
	events      map[uuid.UUID]*models.RebalanceEvent
	bars        map[uuid.UUID][]models.PriceBar
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		portfolios: make(map[uuid.UUID]*models.Portfolio),
		positions:  make(map[string]*models.Position),
		trades:     make(map[uuid.UUID]*models.Trade),
		signals:    make(map[uuid.UUID]*models.TradingSignal),
		scores:     make(map[string]models.MomentumScore),
		events:     make(map[uuid.UUID]*models.RebalanceEvent),
		bars:       make(map[uuid.UUID][]models.PriceBar),
	}
}

var _ repository.RepositoryInterface = (*mockRepo)(nil)

func posKey(portfolioID, instrumentID uuid.UUID) string {
	return portfolioID.String() + "|" + instrumentID.String()
}

func (m *mockRepo) Close() {}

func (m *mockRepo) Health(_ context.Context) error { return nil }

func (m *mockRepo) Transact(_ context.Context, fn func(repository.RepositoryInterface) error) error {
	return fn(m)
}

func (m *mockRepo) UpsertInstrument(_ context.Context, inst *models.Instrument) error {
	for _, existing := range m.instruments {
		if existing.Ticker == inst.Ticker {
			inst.ID = existing.ID
			return nil
		}
	}
	m.instruments = append(m.instruments, *inst)
	return nil
}

func (m *mockRepo) GetInstrument(_ context.Context, id uuid.UUID) (*models.Instrument, error) {
	for i := range m.instruments {
		if m.instruments[i].ID == id {
			return &m.instruments[i], nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetInstrumentByTicker(_ context.Context, ticker string) (*models.Instrument, error) {
	for i := range m.instruments {
		if m.instruments[i].Ticker == ticker {
			return &m.instruments[i], nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetActiveInstruments(_ context.Context) ([]models.Instrument, error) {
	return m.instruments, nil
}

func (m *mockRepo) DeactivateInstrument(_ context.Context, id uuid.UUID) error {
	for i := range m.instruments {
		if m.instruments[i].ID == id {
			m.instruments[i].IsActive = false
		}
	}
	return nil
}

func (m *mockRepo) SavePriceBars(_ context.Context, bars []models.PriceBar) (int, error) {
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

func (m *mockRepo) GetPriceNear(_ context.Context, instrumentID uuid.UUID, target time.Time, toleranceDays int) (*models.PriceBar, error) {
	windowStart := target.AddDate(0, 0, -toleranceDays)
	windowEnd := target.AddDate(0, 0, toleranceDays)
	var best *models.PriceBar
	for i := range m.bars[instrumentID] {
		bar := &m.bars[instrumentID][i]
		if bar.Date.Before(windowStart) || bar.Date.After(windowEnd) {
			continue
		}
		if best == nil || bar.Date.Before(best.Date) {
			best = bar
		}
	}
	return best, nil
}

func (m *mockRepo) GetPriceBars(_ context.Context, instrumentID uuid.UUID, start, end time.Time) ([]models.PriceBar, error) {
	var out []models.PriceBar
	for _, bar := range m.bars[instrumentID] {
		if !bar.Date.Before(start) && !bar.Date.After(end) {
			out = append(out, bar)
		}
	}
	return out, nil
}

func (m *mockRepo) GetLatestBarDate(_ context.Context, instrumentID uuid.UUID) (*time.Time, error) {
	var latest *time.Time
	for i := range m.bars[instrumentID] {
		d := m.bars[instrumentID][i].Date
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest, nil
}

func (m *mockRepo) CountPriceBars(_ context.Context, instrumentID uuid.UUID, start, end time.Time) (int, error) {
	bars, _ := m.GetPriceBars(context.Background(), instrumentID, start, end)
	return len(bars), nil
}

func (m *mockRepo) SaveMomentumScore(_ context.Context, score *models.MomentumScore) error {
	m.scores[score.InstrumentID.String()+"|"+score.CalculationDate.Format("2006-01-02")] = *score
	return nil
}

func (m *mockRepo) GetMomentumScores(_ context.Context, calcDate time.Time) ([]models.MomentumScore, error) {
	var out []models.MomentumScore
	for _, s := range m.scores {
		if s.CalculationDate.Equal(calcDate) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepo) GetScoresByQuintile(_ context.Context, calcDate time.Time, quintile int) ([]models.MomentumScore, error) {
	var out []models.MomentumScore
	for _, s := range m.scores {
		if s.CalculationDate.Equal(calcDate) && s.Quintile == quintile {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockRepo) GetLatestScoreDate(_ context.Context) (*time.Time, error) {
	var latest *time.Time
	for _, s := range m.scores {
		d := s.CalculationDate
		if latest == nil || d.After(*latest) {
			latest = &d
		}
	}
	return latest, nil
}

func (m *mockRepo) CreateSignal(_ context.Context, sig *models.TradingSignal) error {
	copied := *sig
	m.signals[sig.ID] = &copied
	return nil
}

func (m *mockRepo) GetSignalsByDate(_ context.Context, signalDate time.Time) ([]models.TradingSignal, error) {
	var out []models.TradingSignal
	for _, s := range m.signals {
		if s.SignalDate.Equal(signalDate) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockRepo) MarkSignalExecuted(_ context.Context, id uuid.UUID, executedAt time.Time) error {
	sig, ok := m.signals[id]
	if !ok {
		return errors.New("signal not found")
	}
	sig.IsExecuted = true
	sig.ExecutedAt = &executedAt
	return nil
}

func (m *mockRepo) DeletePendingSignals(_ context.Context, signalDate time.Time) (int, error) {
	deleted := 0
	for id, s := range m.signals {
		if s.SignalDate.Equal(signalDate) && !s.IsExecuted {
			delete(m.signals, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockRepo) GetOpenPositions(_ context.Context, portfolioID uuid.UUID) ([]models.Position, error) {
	var out []models.Position
	for _, p := range m.positions {
		if p.PortfolioID == portfolioID && p.Quantity > 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepo) GetPosition(_ context.Context, portfolioID, instrumentID uuid.UUID) (*models.Position, error) {
	p, ok := m.positions[posKey(portfolioID, instrumentID)]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepo) UpsertPosition(_ context.Context, pos *models.Position) error {
	copied := *pos
	m.positions[posKey(pos.PortfolioID, pos.InstrumentID)] = &copied
	return nil
}

func (m *mockRepo) CreateTrade(_ context.Context, trade *models.Trade) error {
	copied := *trade
	m.trades[trade.ID] = &copied
	return nil
}

func (m *mockRepo) GetTrade(_ context.Context, id uuid.UUID) (*models.Trade, error) {
	t, ok := m.trades[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (m *mockRepo) GetOpenTrades(_ context.Context, portfolioID uuid.UUID) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range m.trades {
		if t.PortfolioID == portfolioID && !t.Status.IsTerminal() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockRepo) GetTradesByPortfolio(_ context.Context, portfolioID uuid.UUID, limit int) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range m.trades {
		if t.PortfolioID == portfolioID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockRepo) UpdateTrade(_ context.Context, trade *models.Trade) error {
	if _, ok := m.trades[trade.ID]; !ok {
		return errors.New("trade not found")
	}
	copied := *trade
	m.trades[trade.ID] = &copied
	return nil
}

func (m *mockRepo) CreatePortfolio(_ context.Context, p *models.Portfolio) error {
	copied := *p
	m.portfolios[p.ID] = &copied
	return nil
}

func (m *mockRepo) GetPortfolio(_ context.Context, id uuid.UUID) (*models.Portfolio, error) {
	p, ok := m.portfolios[id]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepo) GetActivePortfolio(_ context.Context) (*models.Portfolio, error) {
	for _, p := range m.portfolios {
		if p.IsActive {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) UpdatePortfolioCash(_ context.Context, id uuid.UUID, cash decimal.Decimal) error {
	p, ok := m.portfolios[id]
	if !ok {
		return errors.New("portfolio not found")
	}
	p.CurrentCash = cash
	return nil
}

func (m *mockRepo) UpdatePortfolioValue(_ context.Context, id uuid.UUID, totalValue decimal.Decimal) error {
	p, ok := m.portfolios[id]
	if !ok {
		return errors.New("portfolio not found")
	}
	p.TotalValue = totalValue
	return nil
}

func (m *mockRepo) CreateRebalanceEvent(_ context.Context, event *models.RebalanceEvent) error {
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *mockRepo) UpdateRebalanceEvent(_ context.Context, event *models.RebalanceEvent) error {
	if _, ok := m.events[event.ID]; !ok {
		return errors.New("event not found")
	}
	copied := *event
	m.events[event.ID] = &copied
	return nil
}

func (m *mockRepo) GetRebalanceEvents(_ context.Context, portfolioID uuid.UUID, limit int) ([]models.RebalanceEvent, error) {
	var out []models.RebalanceEvent
	for _, e := range m.events {
		if e.PortfolioID == portfolioID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockRepo) GetLastCompletedRebalance(_ context.Context, portfolioID uuid.UUID) (*models.RebalanceEvent, error) {
	var latest *models.RebalanceEvent
	for _, e := range m.events {
		if e.PortfolioID != portfolioID || e.Status != models.RebalanceStatusCompleted {
			continue
		}
		if latest == nil || e.Date.After(latest.Date) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

// mockBroker is a scriptable BrokerageInterface.
type mockBroker struct {
	cash       decimal.Decimal
	positions  []models.BrokerPosition
	orders     map[string]*models.OrderStatus
	submitErr  error
	statusErr  error
	cashErr    error
	listErr    error

	submissions []submittedOrder
	nextOrderID int
	statusCalls int
}

type submittedOrder struct {
	symbol   string
	side     models.TradeSide
	quantity int64
}

func newMockBroker() *mockBroker {
	return &mockBroker{orders: make(map[string]*models.OrderStatus)}
}

func (m *mockBroker) GetCashBalance(_ context.Context) (decimal.Decimal, error) {
	if m.cashErr != nil {
		return decimal.Zero, m.cashErr
	}
	return m.cash, nil
}

func (m *mockBroker) ListPositions(_ context.Context) ([]models.BrokerPosition, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.positions, nil
}

func (m *mockBroker) SubmitMarketOrder(_ context.Context, symbol string, side models.TradeSide, quantity int64) (string, error) {
	if m.submitErr != nil {
		return "", m.submitErr
	}
	m.nextOrderID++
	orderID := fmt.Sprintf("order-%d", m.nextOrderID)
	m.submissions = append(m.submissions, submittedOrder{symbol: symbol, side: side, quantity: quantity})
	m.orders[orderID] = &models.OrderStatus{
		ExternalOrderID: orderID,
		State:           models.TradeStatusSubmitted,
	}
	return orderID, nil
}

func (m *mockBroker) GetOrderStatus(_ context.Context, orderID string) (*models.OrderStatus, error) {
	m.statusCalls++
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	status, ok := m.orders[orderID]
	if !ok {
		return nil, errors.New("order not found")
	}
	return status, nil
}

// fill marks a scripted order as filled at the given price.
func (m *mockBroker) fill(orderID string, quantity int64, price decimal.Decimal) {
	m.orders[orderID] = &models.OrderStatus{
		ExternalOrderID: orderID,
		State:           models.TradeStatusFilled,
		FilledQuantity:  quantity,
		FilledPrice:     decimal.NewNullDecimal(price),
	}
}

// mockMarketData serves scripted reference prices.
type mockMarketData struct {
	prices   map[string]decimal.Decimal
	priceErr error
}

func newMockMarketData() *mockMarketData {
	return &mockMarketData{prices: make(map[string]decimal.Decimal)}
}

func (m *mockMarketData) FetchDailyBars(_ context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	return nil, nil
}

func (m *mockMarketData) PriceNear(_ context.Context, symbol string, target time.Time, toleranceDays int) (*models.Bar, error) {
	return nil, nil
}

func (m *mockMarketData) LatestPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	if m.priceErr != nil {
		return decimal.Zero, m.priceErr
	}
	price, ok := m.prices[symbol]
	if !ok {
		return decimal.Zero, errors.New("no price for " + symbol)
	}
	return price, nil
}
