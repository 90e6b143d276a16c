package scheduler

import (
	"context"
	"fmt"
	"time"

	"momentum-trader/config"
	"momentum-trader/models"
	"momentum-trader/observability"
	"momentum-trader/repository"
	"momentum-trader/strategy"

	"github.com/robfig/cron/v3"
)

// Scheduler drives the rebalance loop. The cron spec fires on trading-day
// mornings; each tick checks the cadence gate and polls open trades, so a
// weekly or monthly frequency only rebalances when enough days have passed.
type Scheduler struct {
	cron       *cron.Cron
	store      repository.RepositoryInterface
	rebalancer *strategy.Rebalancer
	executor   *strategy.OrderExecutor
	cfg        *config.Config
}

func NewScheduler(store repository.RepositoryInterface, rebalancer *strategy.Rebalancer,
	executor *strategy.OrderExecutor, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		store:      store,
		rebalancer: rebalancer,
		executor:   executor,
		cfg:        cfg,
	}
}

// Register adds the rebalance tick. Call before Start.
func (s *Scheduler) Register(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.Rebalance.CronSpec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("failed to register rebalance job: %w", err)
	}
	return nil
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	observability.Info("scheduler started", "spec", s.cfg.Rebalance.CronSpec, "frequency", s.cfg.Rebalance.Frequency)
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	observability.Info("scheduler stopped")
}

// tick polls open trades and rebalances when the cadence gate is open.
func (s *Scheduler) tick(ctx context.Context) {
	portfolio, err := s.store.GetActivePortfolio(ctx)
	if err != nil {
		observability.Error("scheduler tick failed to load portfolio", "error", err)
		return
	}
	if portfolio == nil {
		observability.Warn("no active portfolio, skipping tick")
		return
	}

	if updated, err := s.executor.PollOpenTrades(ctx, portfolio.ID); err != nil {
		observability.Warn("trade polling failed", "error", err)
	} else if updated > 0 {
		observability.Info("trades updated from broker", "count", updated)
	}

	now := time.Now()
	due, err := s.rebalancer.ShouldRebalance(ctx, portfolio.ID, now)
	if err != nil {
		observability.Error("cadence check failed", "error", err)
		return
	}
	if !due {
		observability.Debug("rebalance not due", "portfolio", portfolio.Name)
		return
	}

	if _, err := s.rebalancer.Run(ctx, portfolio, now); err != nil {
		observability.Error("scheduled rebalance failed", "error", err)
	}
}

// RunNow triggers a rebalance immediately, bypassing the cadence gate.
func (s *Scheduler) RunNow(ctx context.Context) (*models.RebalanceEvent, error) {
	portfolio, err := s.store.GetActivePortfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	if portfolio == nil {
		return nil, fmt.Errorf("no active portfolio")
	}

	return s.rebalancer.Run(ctx, portfolio, time.Now())
}
