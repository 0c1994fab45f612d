package economy

import (
	"math"
	"sync/atomic"
	"testing"
	"time"
)

func TestInflation_Disabled(t *testing.T) {
	inf := NewInflation(false, time.Minute, func() float64 { return 50.0 })
	if got := inf.BuyMultiplier(); got != 1.0 {
		t.Errorf("disabled BuyMultiplier = %v, want 1.0", got)
	}
	if got := inf.SellMultiplier(); got != 1.0 {
		t.Errorf("disabled SellMultiplier = %v, want 1.0", got)
	}
}

func TestInflation_Multipliers(t *testing.T) {
	inf := NewInflation(true, time.Minute, func() float64 { return 10.0 })

	if got := inf.BuyMultiplier(); math.Abs(got-1.10) > 1e-9 {
		t.Errorf("BuyMultiplier = %v, want 1.10", got)
	}
	if got := inf.SellMultiplier(); math.Abs(got-1.0/1.10) > 1e-9 {
		t.Errorf("SellMultiplier = %v, want %v", got, 1.0/1.10)
	}

	// Buy and sell move in opposite directions off the same base.
	base := 100.0
	if buy := base * inf.BuyMultiplier(); buy <= base {
		t.Errorf("inflated buy price %v should exceed base %v", buy, base)
	}
	if sell := base * inf.SellMultiplier(); sell >= base {
		t.Errorf("inflated sell price %v should be under base %v", sell, base)
	}
}

func TestInflation_Refresh(t *testing.T) {
	var rate atomic.Value
	rate.Store(5.0)

	inf := NewInflation(true, 10*time.Millisecond, func() float64 {
		return rate.Load().(float64)
	})
	inf.Start()
	defer inf.Stop()

	rate.Store(12.0)

	deadline := time.After(2 * time.Second)
	for inf.Rate() != 12.0 {
		select {
		case <-deadline:
			t.Fatalf("rate never refreshed: still %v", inf.Rate())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestInflation_StopIdempotent(t *testing.T) {
	inf := NewInflation(true, time.Minute, func() float64 { return 5.0 })

	// Stop before start, double stop, restart — none of these may panic.
	inf.Stop()
	inf.Start()
	inf.Start()
	inf.Stop()
	inf.Stop()
	inf.Start()
	inf.Stop()
}
