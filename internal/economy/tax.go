package economy

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Tax drain failures.
var (
	ErrNotOwner         = errors.New("actor is not the shop owner")
	ErrNothingCollected = errors.New("no taxes to collect")
)

// TaxPersister is notified of the new collected total after every change,
// while the controller's lock is held, so no increment can slip between a
// drain and its persistence.
type TaxPersister func(total float64) error

// Tax holds the flat buy/sell tax rates and the pool of collected taxes.
// Rates are fractions in [0,1], fixed at construction.
type Tax struct {
	buyRate  float64
	sellRate float64
	owner    uuid.UUID
	persist  TaxPersister

	mu        sync.Mutex
	collected float64
}

// NewTax creates a tax controller. The collected pool is seeded with any
// previously persisted total; persist may be nil.
func NewTax(buyRate, sellRate float64, owner uuid.UUID, collected float64, persist TaxPersister) *Tax {
	return &Tax{
		buyRate:   buyRate,
		sellRate:  sellRate,
		owner:     owner,
		persist:   persist,
		collected: collected,
	}
}

// BuyMultiplier returns the gross-up applied to buy prices.
func (t *Tax) BuyMultiplier() float64 { return 1.0 + t.buyRate }

// SellMultiplier returns the deduction applied to sell prices.
func (t *Tax) SellMultiplier() float64 { return 1.0 - t.sellRate }

// BuyRate returns the buy tax fraction.
func (t *Tax) BuyRate() float64 { return t.buyRate }

// SellRate returns the sell tax fraction.
func (t *Tax) SellRate() float64 { return t.sellRate }

// BuyTax returns the tax portion of a pre-tax buy price.
func (t *Tax) BuyTax(price float64) float64 { return price * t.buyRate }

// SellTax returns the tax portion of a gross sell price.
func (t *Tax) SellTax(price float64) float64 { return price * t.sellRate }

// Add accrues a collected tax amount. Non-positive amounts are ignored.
func (t *Tax) Add(amount float64) {
	if amount <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.collected += amount
	if t.persist != nil {
		if err := t.persist(t.collected); err != nil {
			// The in-memory pool stays authoritative; the next successful
			// persist writes the correct total.
			slog.Warn("failed to persist collected taxes", "total", t.collected, "error", err)
		}
	}
}

// Collected returns the current tax pool.
func (t *Tax) Collected() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collected
}

// IsOwner reports whether the actor is the configured shop owner.
func (t *Tax) IsOwner(actor uuid.UUID) bool {
	return t.owner != uuid.Nil && actor == t.owner
}

// Drain atomically reads and zeroes the collected pool. Only the configured
// owner may drain; crediting the returned amount is the caller's job.
func (t *Tax) Drain(actor uuid.UUID) (float64, error) {
	if !t.IsOwner(actor) {
		return 0, ErrNotOwner
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.collected <= 0 {
		return 0, ErrNothingCollected
	}

	amount := t.collected
	if t.persist != nil {
		// Zero the snapshot before paying out. If this fails the pool is
		// kept intact, otherwise a restart would re-seed the already-paid
		// total and let the owner drain it twice.
		if err := t.persist(0); err != nil {
			return 0, fmt.Errorf("persist drained taxes: %w", err)
		}
	}
	t.collected = 0
	return amount, nil
}
