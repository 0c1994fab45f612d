// Package ledger defines the money-ledger capability the shop settles
// trades against, plus the bundled implementations. Which provider backs a
// shop is decided at construction time, not discovered at runtime.
package ledger

import (
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"
)

// Ledger is the external money account surface.
type Ledger interface {
	// Balance returns the actor's current balance.
	Balance(actor uuid.UUID) float64
	// Withdraw removes amount from the actor's balance, reporting success.
	Withdraw(actor uuid.UUID, amount float64) bool
	// Deposit adds amount to the actor's balance, reporting success.
	Deposit(actor uuid.UUID, amount float64) bool
}

// Memory is an in-process ledger backed by a map. Used by the standalone
// binary and by tests.
type Memory struct {
	mu       sync.Mutex
	balances map[uuid.UUID]float64
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{balances: make(map[uuid.UUID]float64)}
}

// Balance returns the actor's current balance.
func (m *Memory) Balance(actor uuid.UUID) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[actor]
}

// Withdraw removes amount if the actor can cover it.
func (m *Memory) Withdraw(actor uuid.UUID, amount float64) bool {
	if amount < 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[actor] < amount {
		return false
	}
	m.balances[actor] -= amount
	return true
}

// Deposit adds amount to the actor's balance.
func (m *Memory) Deposit(actor uuid.UUID, amount float64) bool {
	if amount < 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[actor] += amount
	return true
}

// Fallback chains two ledger providers: every operation is tried on the
// primary first and falls back to the secondary only when the primary
// refuses. When both are readable it can warn about balance drift between
// them.
type Fallback struct {
	primary   Ledger
	secondary Ledger
	checkSync bool
}

// NewFallback creates a ledger that prefers primary and falls back to
// secondary. checkSync enables balance-discrepancy warnings on reads.
func NewFallback(primary, secondary Ledger, checkSync bool) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, checkSync: checkSync}
}

// Balance returns the primary balance, warning when the providers disagree.
func (f *Fallback) Balance(actor uuid.UUID) float64 {
	balance := f.primary.Balance(actor)
	if f.checkSync {
		other := f.secondary.Balance(actor)
		if math.Abs(balance-other) > 0.01 {
			slog.Warn("ledger balance discrepancy",
				"actor", actor, "primary", balance, "secondary", other)
		}
	}
	return balance
}

// Withdraw tries the primary, then the secondary.
func (f *Fallback) Withdraw(actor uuid.UUID, amount float64) bool {
	if f.primary.Withdraw(actor, amount) {
		return true
	}
	return f.secondary.Withdraw(actor, amount)
}

// Deposit tries the primary, then the secondary.
func (f *Fallback) Deposit(actor uuid.UUID, amount float64) bool {
	if f.primary.Deposit(actor, amount) {
		return true
	}
	return f.secondary.Deposit(actor, amount)
}
