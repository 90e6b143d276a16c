package scheduler

import (
	"context"
	"testing"

	"momentum-trader/config"
)

func TestRegisterAcceptsDefaultSpec(t *testing.T) {
	cfg := config.NewTestConfig()
	s := NewScheduler(nil, nil, nil, cfg)

	if err := s.Register(context.Background()); err != nil {
		t.Fatalf("default cron spec rejected: %v", err)
	}
}

func TestRegisterRejectsInvalidSpec(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Rebalance.CronSpec = "not a cron spec"
	s := NewScheduler(nil, nil, nil, cfg)

	if err := s.Register(context.Background()); err == nil {
		t.Fatal("expected invalid cron spec to be rejected")
	}
}
