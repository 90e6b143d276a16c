package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"momentum-trader/config"
	"momentum-trader/models"
	"momentum-trader/momentum"
	"momentum-trader/repository"
	"momentum-trader/strategy"

	"github.com/google/uuid"
)

// RebalanceRunner triggers an immediate rebalance, bypassing the cadence
// gate. *scheduler.Scheduler satisfies it.
type RebalanceRunner interface {
	RunNow(ctx context.Context) (*models.RebalanceEvent, error)
}

// TradePoller refreshes open trades from the broker.
// *strategy.OrderExecutor satisfies it.
type TradePoller interface {
	PollOpenTrades(ctx context.Context, portfolioID uuid.UUID) (int, error)
}

// PortfolioSyncer reconciles the local ledger from brokerage truth.
// *strategy.Rebalancer satisfies it.
type PortfolioSyncer interface {
	SyncPortfolio(ctx context.Context, portfolio *models.Portfolio) error
}

// Backfiller fills gaps in stored price history.
// *momentum.Backfiller satisfies it.
type Backfiller interface {
	Backfill(ctx context.Context, instruments []models.Instrument, end time.Time) (*momentum.BackfillReport, error)
}

// APIHandler handles HTTP API requests
type APIHandler struct {
	repo       repository.RepositoryInterface
	runner     RebalanceRunner
	poller     TradePoller
	syncer     PortfolioSyncer
	backfiller Backfiller
	cfg        *config.Config
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(repo repository.RepositoryInterface, runner RebalanceRunner, poller TradePoller,
	syncer PortfolioSyncer, backfiller Backfiller, cfg *config.Config) *APIHandler {
	return &APIHandler{repo: repo, runner: runner, poller: poller, syncer: syncer, backfiller: backfiller, cfg: cfg}
}

// handleHealth returns the health status of the application
func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "unknown",
		},
	}

	if h.repo != nil {
		if err := h.repo.Health(r.Context()); err == nil {
			status["services"].(map[string]string)["database"] = "connected"
		} else {
			status["services"].(map[string]string)["database"] = "disconnected"
			status["status"] = "degraded"
		}
	} else {
		status["services"].(map[string]string)["database"] = "not_configured"
	}

	h.jsonResponse(w, status)
}

// handleRebalance triggers a manual rebalance, bypassing the cadence gate
func (h *APIHandler) handleRebalance(w http.ResponseWriter, r *http.Request) {
	event, err := h.runner.RunNow(r.Context())
	if err != nil {
		if errors.Is(err, strategy.ErrInvalidSetup) {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		// A failed run still has a forensic event worth returning
		if event != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": err.Error(), "event": event})
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, event)
}

// handleGetRebalanceEvents returns recent rebalance events
func (h *APIHandler) handleGetRebalanceEvents(w http.ResponseWriter, r *http.Request) {
	portfolio, ok := h.activePortfolio(w, r)
	if !ok {
		return
	}

	limit := h.parseLimitParam(r, 50)
	events, err := h.repo.GetRebalanceEvents(r.Context(), portfolio.ID, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, events)
}

// handleGetPositions returns all open positions
func (h *APIHandler) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	portfolio, ok := h.activePortfolio(w, r)
	if !ok {
		return
	}

	positions, err := h.repo.GetOpenPositions(r.Context(), portfolio.ID)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]interface{}{
		"portfolio": portfolio,
		"positions": positions,
		"count":     len(positions),
	})
}

// handleGetSignals returns the signals for a date (default today)
func (h *APIHandler) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDateParam(r)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	signals, err := h.repo.GetSignalsByDate(r.Context(), date)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, signals)
}

// handleGetScores returns the ranked momentum scores for a date
func (h *APIHandler) handleGetScores(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDateParam(r)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	scores, err := h.repo.GetMomentumScores(r.Context(), date)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, scores)
}

// handleGetScoreStatistics returns the score distribution for a date
func (h *APIHandler) handleGetScoreStatistics(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDateParam(r)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats, err := momentum.ComputeStatistics(r.Context(), h.repo, date)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stats == nil {
		h.jsonError(w, "no scores for date", http.StatusNotFound)
		return
	}

	h.jsonResponse(w, stats)
}

// handleGetTrades returns recent trades
func (h *APIHandler) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	portfolio, ok := h.activePortfolio(w, r)
	if !ok {
		return
	}

	limit := h.parseLimitParam(r, 50)
	trades, err := h.repo.GetTradesByPortfolio(r.Context(), portfolio.ID, limit)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, trades)
}

// handlePollTrades refreshes open trades from the broker
func (h *APIHandler) handlePollTrades(w http.ResponseWriter, r *http.Request) {
	portfolio, ok := h.activePortfolio(w, r)
	if !ok {
		return
	}

	updated, err := h.poller.PollOpenTrades(r.Context(), portfolio.ID)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]int{"updated": updated})
}

// handleBackfill gap-fills price history for the active universe
func (h *APIHandler) handleBackfill(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.repo.GetActiveInstruments(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report, err := h.backfiller.Backfill(r.Context(), instruments, time.Now().UTC())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, report)
}

// handleSyncPortfolio reconciles positions and cash from the broker
func (h *APIHandler) handleSyncPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, ok := h.activePortfolio(w, r)
	if !ok {
		return
	}

	if err := h.syncer.SyncPortfolio(r.Context(), portfolio); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, map[string]string{"status": "synced"})
}

// Helper functions

func (h *APIHandler) activePortfolio(w http.ResponseWriter, r *http.Request) (*models.Portfolio, bool) {
	portfolio, err := h.repo.GetActivePortfolio(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if portfolio == nil {
		h.jsonError(w, "no active portfolio", http.StatusNotFound)
		return nil, false
	}
	return portfolio, true
}

func (h *APIHandler) parseDateParam(r *http.Request) (time.Time, error) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", dateStr)
}

func (h *APIHandler) parseLimitParam(r *http.Request, defaultLimit int) int {
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			return l
		}
	}
	return defaultLimit
}

func (h *APIHandler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
