package momentum

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestComputeStatistics(t *testing.T) {
	store := newMockStore()
	calcDate := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	for _, s := range makeScores(0.4, -0.2, 0.1, 0.3, 0.2) {
		s := s
		if err := store.SaveMomentumScore(context.Background(), &s); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	stats, err := ComputeStatistics(context.Background(), store, calcDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats == nil {
		t.Fatal("expected statistics")
	}

	if stats.Count != 5 {
		t.Errorf("expected count 5, got %d", stats.Count)
	}
	if !stats.Min.Equal(decimal.NewFromFloat(-0.2)) {
		t.Errorf("expected min -0.2, got %s", stats.Min)
	}
	if !stats.Max.Equal(decimal.NewFromFloat(0.4)) {
		t.Errorf("expected max 0.4, got %s", stats.Max)
	}
	if !stats.Median.Equal(decimal.NewFromFloat(0.2)) {
		t.Errorf("expected median 0.2, got %s", stats.Median)
	}
	if !stats.Mean.Equal(decimal.NewFromFloat(0.16)) {
		t.Errorf("expected mean 0.16, got %s", stats.Mean)
	}
}

func TestComputeStatisticsEmptyDate(t *testing.T) {
	store := newMockStore()
	calcDate := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

	stats, err := ComputeStatistics(context.Background(), store, calcDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != nil {
		t.Errorf("expected nil statistics for empty date, got %+v", stats)
	}
}
