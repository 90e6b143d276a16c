package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestTradeStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status TradeStatus
		want   bool
	}{
		{TradeStatusPending, false},
		{TradeStatusSubmitted, false},
		{TradeStatusPartiallyFilled, false},
		{TradeStatusFilled, true},
		{TradeStatusCancelled, true},
		{TradeStatusRejected, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestNewTrade(t *testing.T) {
	trade := NewTrade(uuid.New(), uuid.New(), "AAPL", TradeSideBuy, 47)

	if trade.Status != TradeStatusPending {
		t.Errorf("Status = %s, want PENDING", trade.Status)
	}
	if trade.Quantity != 47 {
		t.Errorf("Quantity = %d, want 47", trade.Quantity)
	}
	if !trade.Commission.IsZero() {
		t.Errorf("Commission = %s, want 0", trade.Commission)
	}
}

func TestTrade_OrderValue(t *testing.T) {
	trade := NewTrade(uuid.New(), uuid.New(), "MSFT", TradeSideBuy, 10)

	if !trade.OrderValue().IsZero() {
		t.Errorf("OrderValue with no price = %s, want 0", trade.OrderValue())
	}

	trade.Price = decimal.NewNullDecimal(decimal.NewFromInt(50))
	if !trade.OrderValue().Equal(decimal.NewFromInt(500)) {
		t.Errorf("OrderValue = %s, want 500", trade.OrderValue())
	}
}

func TestTrade_MarkSubmitted(t *testing.T) {
	trade := NewTrade(uuid.New(), uuid.New(), "NVDA", TradeSideSell, 5)
	now := time.Now()

	trade.MarkSubmitted("ord-123", now)

	if trade.Status != TradeStatusSubmitted {
		t.Errorf("Status = %s, want SUBMITTED", trade.Status)
	}
	if trade.ExternalOrderID != "ord-123" {
		t.Errorf("ExternalOrderID = %q, want ord-123", trade.ExternalOrderID)
	}
	if trade.SubmittedAt == nil || !trade.SubmittedAt.Equal(now) {
		t.Errorf("SubmittedAt = %v, want %v", trade.SubmittedAt, now)
	}
}
