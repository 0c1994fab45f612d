package shop

import (
	"math"

	"github.com/talgya/tradepost/internal/catalog"
	"github.com/talgya/tradepost/internal/pricing"
)

// priceDriftThreshold is how far the freshly computed per-unit buy price may
// drift from the stored working price before the store is rewritten.
// Price discovery is lazy: quotes trigger it, there is no recompute loop.
const priceDriftThreshold = 0.01

// stockMultiplier returns the elasticity multiplier for an item at the given
// stock level, or 1.0 when fluctuation is disabled.
func (e *Engine) stockMultiplier(item *catalog.Item, stock int) float64 {
	if !e.fluctuation {
		return 1.0
	}
	return pricing.Multiplier(stock, item.MaxStock, e.sensitivity)
}

// buyPriceAt computes the gross buy price for qty units at a known stock
// level: base → stock multiplier → inflation → tax, in that order.
func (e *Engine) buyPriceAt(item *catalog.Item, stock, qty int) float64 {
	price := item.BuyPrice * float64(qty)
	price *= e.stockMultiplier(item, stock)
	price *= e.inflation.BuyMultiplier()
	price *= e.tax.BuyMultiplier()
	return pricing.Finalize(price)
}

// sellPriceAt computes the sell settlement for qty units at a known stock
// level. net is what the seller receives, tax the portion accrued to the
// shop; net+tax is the gross price before the sell tax deduction.
func (e *Engine) sellPriceAt(item *catalog.Item, stock, qty int) (net, tax float64) {
	gross := item.SellPrice * float64(qty)
	gross *= e.stockMultiplier(item, stock)
	gross *= e.inflation.SellMultiplier()

	tax = pricing.Round2(e.tax.SellTax(gross))
	net = pricing.Finalize(gross - tax)
	return net, tax
}

// QuoteBuy returns the current total buy price for qty units. The quote is
// computed from the cached stock level; the commit path recomputes against
// the authoritative store regardless of what was displayed.
func (e *Engine) QuoteBuy(category, itemID string, qty int) (float64, error) {
	item := e.catalog.Get(category, itemID)
	if item == nil {
		return 0, ErrItemNotFound
	}

	stock, err := e.cache.Stock(category, itemID)
	if err != nil {
		return 0, storeFailure(err)
	}

	price := e.buyPriceAt(item, stock, qty)
	e.discoverPrices(item, stock, price, qty)
	return price, nil
}

// QuoteSell returns the net amount a seller would currently receive for qty
// units, with the sell tax already deducted.
func (e *Engine) QuoteSell(category, itemID string, qty int) (float64, error) {
	item := e.catalog.Get(category, itemID)
	if item == nil {
		return 0, ErrItemNotFound
	}

	stock, err := e.cache.Stock(category, itemID)
	if err != nil {
		return 0, storeFailure(err)
	}

	net, _ := e.sellPriceAt(item, stock, qty)
	return net, nil
}

// discoverPrices writes the freshly computed per-unit prices back to the
// store when the working buy price has drifted. Quotes always recompute from
// the base price, so a failure here only delays discovery — it never makes a
// quote wrong, and is therefore not surfaced to the caller.
func (e *Engine) discoverPrices(item *catalog.Item, stock int, totalBuy float64, qty int) {
	if qty <= 0 {
		return
	}
	unitBuy := pricing.Round2(totalBuy / float64(qty))

	storedBuy, _, err := e.cache.Prices(item.Category, item.ID)
	if err != nil {
		return
	}
	if math.Abs(storedBuy-unitBuy) <= priceDriftThreshold {
		return
	}

	unitSell, _ := e.sellPriceAt(item, stock, 1)
	if err := e.store.UpdatePrices(item.Category, item.ID, unitBuy, unitSell); err != nil {
		return
	}
	e.cache.NotePrices(item.Category, item.ID, unitBuy, unitSell)
}
