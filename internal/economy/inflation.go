// Package economy provides the global price adjustments layered on top of the
// stock-elasticity curve: inflation and flat transaction taxes.
package economy

import (
	"log/slog"
	"sync"
	"time"
)

// RateSource supplies the current configured inflation rate in percent.
// The periodic refresh re-reads it so config changes take effect without
// touching stock or stored prices.
type RateSource func() float64

// Inflation holds the global inflation rate and derives buy/sell multipliers.
// Readers always see a complete rate value: the rate is only ever replaced
// under the mutex, never updated in place.
type Inflation struct {
	enabled  bool
	source   RateSource
	interval time.Duration

	mu   sync.RWMutex
	rate float64 // percent

	stopOnce sync.Once
	stop     chan struct{}
	running  bool
}

// NewInflation creates an inflation controller seeded from the source.
// A disabled controller pins both multipliers at 1.0.
func NewInflation(enabled bool, interval time.Duration, source RateSource) *Inflation {
	inf := &Inflation{
		enabled:  enabled,
		source:   source,
		interval: interval,
	}
	if enabled && source != nil {
		inf.rate = source()
	}
	return inf
}

// Start launches the periodic rate refresh. Starting a disabled or already
// running controller is a no-op.
func (inf *Inflation) Start() {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	if !inf.enabled || inf.running || inf.interval <= 0 {
		return
	}
	inf.running = true
	inf.stop = make(chan struct{})
	inf.stopOnce = sync.Once{}

	go inf.refreshLoop(inf.stop)
	slog.Info("inflation refresh started", "rate", inf.rate, "interval", inf.interval)
}

// Stop halts the periodic refresh. Stopping a stopped controller is a no-op.
func (inf *Inflation) Stop() {
	inf.mu.Lock()
	defer inf.mu.Unlock()
	if !inf.running {
		return
	}
	inf.running = false
	inf.stopOnce.Do(func() { close(inf.stop) })
}

func (inf *Inflation) refreshLoop(stop chan struct{}) {
	ticker := time.NewTicker(inf.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			inf.refresh()
		case <-stop:
			return
		}
	}
}

func (inf *Inflation) refresh() {
	if inf.source == nil {
		return
	}
	newRate := inf.source()

	inf.mu.Lock()
	old := inf.rate
	inf.rate = newRate
	inf.mu.Unlock()

	if old != newRate {
		slog.Info("updated inflation rate", "old", old, "new", newRate)
	}
}

// Rate returns the current inflation rate in percent.
func (inf *Inflation) Rate() float64 {
	inf.mu.RLock()
	defer inf.mu.RUnlock()
	return inf.rate
}

// Enabled reports whether inflation is active.
func (inf *Inflation) Enabled() bool {
	return inf.enabled
}

// BuyMultiplier returns the multiplier applied to buy prices.
// Inflation raises what buyers pay.
func (inf *Inflation) BuyMultiplier() float64 {
	if !inf.enabled {
		return 1.0
	}
	return 1.0 + inf.Rate()/100.0
}

// SellMultiplier returns the multiplier applied to sell prices.
// Inflation proportionally lowers what sellers receive.
func (inf *Inflation) SellMultiplier() float64 {
	if !inf.enabled {
		return 1.0
	}
	return 1.0 / (1.0 + inf.Rate()/100.0)
}
