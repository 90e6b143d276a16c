package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"momentum-trader/models"
	"momentum-trader/observability"

	"github.com/shopspring/decimal"
)

// FMPService is the market-data adapter backed by the Financial Modeling
// Prep API. It serves momentum anchor lookups, backfill and reference
// prices for order sizing.
type FMPService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewFMPService creates a new FMPService instance
func NewFMPService(apiKey string) *FMPService {
	return &FMPService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://financialmodelingprep.com/api/v3",
	}
}

// fmpHistoricalResponse represents the daily price history payload
type fmpHistoricalResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date     string  `json:"date"`
		Open     float64 `json:"open"`
		High     float64 `json:"high"`
		Low      float64 `json:"low"`
		Close    float64 `json:"close"`
		AdjClose float64 `json:"adjClose"`
		Volume   int64   `json:"volume"`
	} `json:"historical"`
}

// fmpQuoteShortResponse represents one entry of the short quote payload
type fmpQuoteShortResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

// FetchDailyBars returns daily bars for the date range, oldest first
func (s *FMPService) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.Bar, error) {
	began := time.Now()
	bars, err := WithCircuitBreaker(ctx, BreakerFMP, func() ([]models.Bar, error) {
		params := url.Values{}
		params.Set("apikey", s.apiKey)
		params.Set("from", start.Format("2006-01-02"))
		params.Set("to", end.Format("2006-01-02"))

		reqURL := fmt.Sprintf("%s/historical-price-full/%s?%s", s.baseURL, url.PathEscape(symbol), params.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch price history for %s: %w", symbol, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("price history API returned status %d", resp.StatusCode)
		}

		var histResp fmpHistoricalResponse
		if err := json.NewDecoder(resp.Body).Decode(&histResp); err != nil {
			return nil, fmt.Errorf("failed to decode price history response: %w", err)
		}

		bars := make([]models.Bar, 0, len(histResp.Historical))
		for _, h := range histResp.Historical {
			date, err := time.Parse("2006-01-02", h.Date)
			if err != nil {
				continue
			}
			bars = append(bars, models.Bar{
				Symbol: symbol,
				Date:   date,
				Open:   decimal.NewFromFloat(h.Open),
				High:   decimal.NewFromFloat(h.High),
				Low:    decimal.NewFromFloat(h.Low),
				Close:  decimal.NewFromFloat(h.Close),
				Volume: h.Volume,
			})
		}

		// The API returns newest first
		sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

		return bars, nil
	})
	observability.GetMetrics().RecordExternalAPIRequest("fmp", "daily_bars", time.Since(began), err)

	return bars, err
}

// PriceNear returns the earliest bar within toleranceDays of the target
// date, or nil when the window holds no bar.
func (s *FMPService) PriceNear(ctx context.Context, symbol string, target time.Time, toleranceDays int) (*models.Bar, error) {
	start := target.AddDate(0, 0, -toleranceDays)
	end := target.AddDate(0, 0, toleranceDays)

	bars, err := s.FetchDailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, nil
	}

	// FetchDailyBars sorts oldest first; the earliest bar in the window wins.
	return &bars[0], nil
}

// LatestPrice returns the most recent traded price for a symbol
func (s *FMPService) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	began := time.Now()
	price, err := WithCircuitBreaker(ctx, BreakerFMP, func() (decimal.Decimal, error) {
		reqURL := fmt.Sprintf("%s/quote-short/%s?apikey=%s", s.baseURL, url.PathEscape(symbol), s.apiKey)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to create quote request: %w", err)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return decimal.Zero, fmt.Errorf("quote API returned status %d", resp.StatusCode)
		}

		var quoteResp []fmpQuoteShortResponse
		if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
			return decimal.Zero, fmt.Errorf("failed to decode quote response: %w", err)
		}

		if len(quoteResp) == 0 {
			return decimal.Zero, fmt.Errorf("no quote data for symbol %s", symbol)
		}

		return decimal.NewFromFloat(quoteResp[0].Price), nil
	})
	observability.GetMetrics().RecordExternalAPIRequest("fmp", "quote", time.Since(began), err)

	return price, err
}
