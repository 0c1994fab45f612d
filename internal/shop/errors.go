package shop

import (
	"errors"

	"github.com/talgya/tradepost/internal/economy"
)

// Business-rule rejections. All are normal outcomes a caller renders to the
// actor; none indicate engine failure.
var (
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrInsufficientFunds = errors.New("not enough money")
	ErrInsufficientSpace = errors.New("not enough inventory space")
	ErrInsufficientItems = errors.New("not enough items to sell")
	ErrMaxStock          = errors.New("sale would exceed max stock")
	ErrNotSellable       = errors.New("item is not traded here")

	// Re-exported tax drain rejections so callers match on one package.
	ErrNotOwner         = economy.ErrNotOwner
	ErrNothingCollected = economy.ErrNothingCollected
)

// ErrStoreUnavailable reports a persistence failure. The attempted operation
// is aborted with no partial mutation; the engine itself keeps running.
var ErrStoreUnavailable = errors.New("store unavailable")
