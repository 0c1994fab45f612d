// Package shop provides the transaction orchestrator for the trading post:
// the buy / sell / sell-all protocols and the owner's tax drain, sequenced
// over the stock ledger, the pricing curve, and the external money and
// inventory collaborators.
package shop

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/tradepost/internal/catalog"
	"github.com/talgya/tradepost/internal/economy"
	"github.com/talgya/tradepost/internal/inventory"
	"github.com/talgya/tradepost/internal/ledger"
	"github.com/talgya/tradepost/internal/pricing"
	"github.com/talgya/tradepost/internal/store"
)

// Config wires an Engine's collaborators together.
type Config struct {
	Catalog   *catalog.Catalog
	Store     *store.Store
	Cache     *store.CachedStore
	Tax       *economy.Tax
	Inflation *economy.Inflation
	Ledger    ledger.Ledger
	Holder    inventory.Holder

	// Sensitivity steers the elasticity curve; clamped to the supported
	// range. FluctuationEnabled false pins the stock multiplier at 1.0.
	Sensitivity        float64
	FluctuationEnabled bool
}

// Engine is the transaction orchestrator. Commits are serialized per
// (category, item); quotes run concurrently against the cache.
type Engine struct {
	catalog     *catalog.Catalog
	store       *store.Store
	cache       *store.CachedStore
	tax         *economy.Tax
	inflation   *economy.Inflation
	ledger      ledger.Ledger
	holder      inventory.Holder
	sensitivity float64
	fluctuation bool

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Receipt summarizes one settled trade.
type Receipt struct {
	Category string  `json:"category"`
	Item     string  `json:"item"`
	Kind     string  `json:"kind"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"` // Total paid (buy) or received (sell).
	Tax      float64 `json:"tax"`
	NewStock int     `json:"new_stock"`
}

// BulkReceipt summarizes a sell-all settlement.
type BulkReceipt struct {
	Total    float64   `json:"total"` // Net amount credited to the seller.
	Tax      float64   `json:"tax"`
	Receipts []Receipt `json:"receipts"`
}

// New creates a shop engine.
func New(cfg Config) *Engine {
	return &Engine{
		catalog:     cfg.Catalog,
		store:       cfg.Store,
		cache:       cfg.Cache,
		tax:         cfg.Tax,
		inflation:   cfg.Inflation,
		ledger:      cfg.Ledger,
		holder:      cfg.Holder,
		sensitivity: pricing.ClampSensitivity(cfg.Sensitivity),
		fluctuation: cfg.FluctuationEnabled,
		locks:       make(map[string]*sync.Mutex),
	}
}

// itemLock returns the commit lock for one (category, item) pair.
func (e *Engine) itemLock(category, item string) *sync.Mutex {
	key := category + ":" + item
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	mu, ok := e.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		e.locks[key] = mu
	}
	return mu
}

// storeFailure maps a store error to the engine taxonomy.
func storeFailure(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrItemNotFound
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// LoadCatalog feeds every catalog definition through the store's idempotent
// upsert. Live stock and working prices survive a reload.
func (e *Engine) LoadCatalog() error {
	for _, category := range e.catalog.Categories() {
		n := 0
		for _, item := range e.catalog.All() {
			if item.Category != category {
				continue
			}
			err := e.store.InitializeItem(item.Category, item.ID, item.InitialStock, item.BuyPrice, item.SellPrice)
			if err != nil {
				return storeFailure(err)
			}
			n++
		}
		slog.Info("loaded category", "category", category, "items", n)
	}
	return nil
}

// Buy executes the purchase protocol for qty units of an item.
//
// Checks run in order against a snapshot — stock, inventory space, price,
// funds — and the commit is anchored on an atomic conditional stock
// decrement, so two concurrent buyers can never oversell.
func (e *Engine) Buy(actor uuid.UUID, category, itemID string, qty int) (*Receipt, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("buy quantity must be positive, got %d", qty)
	}

	item := e.catalog.Get(category, itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}

	mu := e.itemLock(category, itemID)
	mu.Lock()
	defer mu.Unlock()

	// Authoritative stock — the cache is for display only.
	stock, err := e.store.Stock(category, itemID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if stock < qty {
		return nil, ErrInsufficientStock
	}

	if !e.holder.HasCapacity(actor, item.Kind, qty) {
		return nil, ErrInsufficientSpace
	}

	price := e.buyPriceAt(item, stock, qty)
	if e.ledger.Balance(actor) < price {
		return nil, ErrInsufficientFunds
	}

	// Commit. The conditional decrement is the single atomic mutation point.
	newStock, applied, err := e.store.DecrementStock(category, itemID, qty)
	if err != nil {
		return nil, storeFailure(err)
	}
	if !applied {
		return nil, ErrInsufficientStock
	}

	if !e.ledger.Withdraw(actor, price) {
		// Restore the stock before releasing the item lock.
		if _, _, err := e.store.IncrementStock(category, itemID, qty, item.MaxStock); err != nil {
			slog.Error("failed to restore stock after refused withdrawal",
				"category", category, "item", itemID, "qty", qty, "error", err)
		}
		return nil, ErrInsufficientFunds
	}

	// The tax share of the gross price: price - price/(1+buyRate).
	tax := pricing.Round2(price - price/e.tax.BuyMultiplier())
	e.tax.Add(tax)

	e.holder.Grant(actor, item.Kind, qty)
	e.cache.NoteStock(category, itemID, newStock)

	e.logTransaction(store.Transaction{
		Actor: actor.String(), Side: "buy",
		Category: category, Item: itemID,
		Quantity: qty, Price: price, Tax: tax,
	})

	return &Receipt{
		Category: category, Item: itemID, Kind: item.Kind,
		Quantity: qty, Price: price, Tax: tax, NewStock: newStock,
	}, nil
}

// Sell executes the sale protocol for qty units of the given kind.
func (e *Engine) Sell(actor uuid.UUID, kind string, qty int) (*Receipt, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("sell quantity must be positive, got %d", qty)
	}

	item := e.catalog.FindByKind(kind)
	if item == nil {
		return nil, ErrNotSellable
	}

	if !e.holder.HasQuantity(actor, kind, qty) {
		return nil, ErrInsufficientItems
	}

	mu := e.itemLock(item.Category, item.ID)
	mu.Lock()
	defer mu.Unlock()

	receipt, err := e.sellLocked(actor, item, qty)
	if err != nil {
		return nil, err
	}

	if !e.ledger.Deposit(actor, receipt.Price) {
		// Undo the stock increment and give the items back.
		e.unwindSale(item.Category, item.ID, qty)
		e.holder.Grant(actor, kind, qty)
		return nil, fmt.Errorf("ledger refused deposit of %.2f for %s", receipt.Price, actor)
	}

	e.tax.Add(receipt.Tax)
	e.logTransaction(store.Transaction{
		Actor: actor.String(), Side: "sell",
		Category: item.Category, Item: item.ID,
		Quantity: qty, Price: receipt.Price, Tax: receipt.Tax,
	})
	return receipt, nil
}

// sellLocked performs the stock and inventory movement of a sale: price the
// lot at the pre-sale stock level, atomically add the units to stock, and
// take them from the seller. Money and tax settlement stay with the caller
// so sell-all can batch them. The item lock must be held.
func (e *Engine) sellLocked(actor uuid.UUID, item *catalog.Item, qty int) (*Receipt, error) {
	stock, err := e.store.Stock(item.Category, item.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if stock+qty > item.MaxStock {
		return nil, ErrMaxStock
	}

	net, tax := e.sellPriceAt(item, stock, qty)

	newStock, applied, err := e.store.IncrementStock(item.Category, item.ID, qty, item.MaxStock)
	if err != nil {
		return nil, storeFailure(err)
	}
	if !applied {
		return nil, ErrMaxStock
	}

	e.holder.Remove(actor, item.Kind, qty)
	e.cache.NoteStock(item.Category, item.ID, newStock)

	return &Receipt{
		Category: item.Category, Item: item.ID, Kind: item.Kind,
		Quantity: qty, Price: net, Tax: tax, NewStock: newStock,
	}, nil
}

// unwindSale takes a refused sale's units back out of stock. The item lock
// must be held. A concurrent buy may already have consumed the restored
// units; that leaves nothing to decrement and is logged.
func (e *Engine) unwindSale(category, itemID string, qty int) {
	newStock, applied, err := e.store.DecrementStock(category, itemID, qty)
	if err != nil {
		slog.Error("failed to restore stock after refused deposit",
			"category", category, "item", itemID, "error", err)
		return
	}
	if !applied {
		slog.Error("stock already consumed, cannot restore after refused deposit",
			"category", category, "item", itemID, "qty", qty)
		return
	}
	e.cache.NoteStock(category, itemID, newStock)
}

// SellAll sells every sellable stack the actor holds, skipping kinds that are
// not traded or would exceed max stock, and settles the proceeds as one
// deposit and one tax accrual.
func (e *Engine) SellAll(actor uuid.UUID) (*BulkReceipt, error) {
	bulk := &BulkReceipt{}

	for _, stack := range e.holder.Stacks(actor) {
		item := e.catalog.FindByKind(stack.Kind)
		if item == nil {
			continue
		}

		mu := e.itemLock(item.Category, item.ID)
		mu.Lock()
		receipt, err := e.sellLocked(actor, item, stack.Quantity)
		mu.Unlock()

		if errors.Is(err, ErrMaxStock) {
			// Skip, don't abort: the stack stays with the actor.
			continue
		}
		if err != nil {
			return nil, err
		}

		bulk.Total += receipt.Price
		bulk.Tax += receipt.Tax
		bulk.Receipts = append(bulk.Receipts, *receipt)
	}

	if len(bulk.Receipts) == 0 {
		return bulk, nil
	}

	bulk.Total = pricing.Round2(bulk.Total)
	bulk.Tax = pricing.Round2(bulk.Tax)

	if !e.ledger.Deposit(actor, bulk.Total) {
		// Unwind every movement of the batch. The per-item locks were
		// released after each sellLocked, so re-take them here.
		for _, r := range bulk.Receipts {
			mu := e.itemLock(r.Category, r.Item)
			mu.Lock()
			e.unwindSale(r.Category, r.Item, r.Quantity)
			mu.Unlock()
			e.holder.Grant(actor, r.Kind, r.Quantity)
		}
		return nil, fmt.Errorf("ledger refused deposit of %.2f for %s", bulk.Total, actor)
	}

	e.tax.Add(bulk.Tax)
	for _, r := range bulk.Receipts {
		e.logTransaction(store.Transaction{
			Actor: actor.String(), Side: "sell",
			Category: r.Category, Item: r.Item,
			Quantity: r.Quantity, Price: r.Price, Tax: r.Tax,
		})
	}
	return bulk, nil
}

// CollectTaxes drains the collected tax pool to the shop owner's balance.
func (e *Engine) CollectTaxes(actor uuid.UUID) (float64, error) {
	amount, err := e.tax.Drain(actor)
	if err != nil {
		return 0, err
	}

	if !e.ledger.Deposit(actor, amount) {
		// Put the pool back; the drain never happened as far as anyone can tell.
		e.tax.Add(amount)
		return 0, fmt.Errorf("ledger refused tax payout of %.2f", amount)
	}

	slog.Info("taxes collected", "owner", actor, "amount", amount)
	return amount, nil
}

// CollectedTaxes returns the current tax pool without draining it.
func (e *Engine) CollectedTaxes() float64 {
	return e.tax.Collected()
}

// logTransaction appends to the audit trail. The trade is already settled,
// so an audit write failure is logged rather than surfaced.
func (e *Engine) logTransaction(t store.Transaction) {
	if err := e.store.LogTransaction(t); err != nil {
		slog.Warn("failed to log transaction", "error", err)
	}
}
