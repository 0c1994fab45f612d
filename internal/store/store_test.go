package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "shop.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInitializeItem_Idempotent(t *testing.T) {
	s := openTestStore(t)

	if err := s.InitializeItem("blocks", "stone", 500, 2.5, 1.0); err != nil {
		t.Fatalf("InitializeItem: %v", err)
	}

	// Simulate live mutation.
	if err := s.UpdateStock("blocks", "stone", 123); err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if err := s.UpdatePrices("blocks", "stone", 3.1, 1.2); err != nil {
		t.Fatalf("UpdatePrices: %v", err)
	}

	// Catalog reload with a changed base buy price.
	if err := s.InitializeItem("blocks", "stone", 500, 2.75, 1.0); err != nil {
		t.Fatalf("re-InitializeItem: %v", err)
	}

	rec, err := s.Item("blocks", "stone")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if rec.CurrentStock != 123 {
		t.Errorf("reload reset live stock: got %d, want 123", rec.CurrentStock)
	}
	if rec.CurrentBuyPrice != 3.1 || rec.CurrentSellPrice != 1.2 {
		t.Errorf("reload reset working prices: got %v/%v", rec.CurrentBuyPrice, rec.CurrentSellPrice)
	}
	if rec.BaseBuyPrice != 2.75 {
		t.Errorf("reload did not refresh base price: got %v, want 2.75", rec.BaseBuyPrice)
	}
}

func TestStock_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Stock("blocks", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stock on missing item: err = %v, want ErrNotFound", err)
	}
	if _, _, err := s.Prices("blocks", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Prices on missing item: err = %v, want ErrNotFound", err)
	}
	if err := s.UpdateStock("blocks", "missing", 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateStock on missing item: err = %v, want ErrNotFound", err)
	}
}

func TestDecrementStock(t *testing.T) {
	s := openTestStore(t)
	if err := s.InitializeItem("blocks", "stone", 10, 2.5, 1.0); err != nil {
		t.Fatal(err)
	}

	newStock, applied, err := s.DecrementStock("blocks", "stone", 6)
	if err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	if !applied || newStock != 4 {
		t.Errorf("first decrement: applied=%v stock=%d, want true/4", applied, newStock)
	}

	// Second decrement of 6 must be refused: only 4 remain.
	_, applied, err = s.DecrementStock("blocks", "stone", 6)
	if err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	if applied {
		t.Error("decrement below zero was applied")
	}

	stock, err := s.Stock("blocks", "stone")
	if err != nil {
		t.Fatal(err)
	}
	if stock != 4 {
		t.Errorf("stock = %d, want 4", stock)
	}
}

func TestIncrementStock_MaxBound(t *testing.T) {
	s := openTestStore(t)
	if err := s.InitializeItem("blocks", "stone", 95, 2.5, 1.0); err != nil {
		t.Fatal(err)
	}

	newStock, applied, err := s.IncrementStock("blocks", "stone", 5, 100)
	if err != nil {
		t.Fatalf("IncrementStock: %v", err)
	}
	if !applied || newStock != 100 {
		t.Errorf("increment to max: applied=%v stock=%d, want true/100", applied, newStock)
	}

	_, applied, err = s.IncrementStock("blocks", "stone", 1, 100)
	if err != nil {
		t.Fatalf("IncrementStock: %v", err)
	}
	if applied {
		t.Error("increment above max was applied")
	}
}

func TestTransactions(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		err := s.LogTransaction(Transaction{
			Actor: "a1", Side: "buy", Category: "blocks", Item: "stone",
			Quantity: i + 1, Price: float64(i) * 2.5, Tax: 0.5,
		})
		if err != nil {
			t.Fatalf("LogTransaction: %v", err)
		}
	}

	txs, err := s.RecentTransactions(2)
	if err != nil {
		t.Fatalf("RecentTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].Quantity != 3 {
		t.Errorf("newest first: got qty %d, want 3", txs[0].Quantity)
	}
}

func TestCollectedTaxes_Persistence(t *testing.T) {
	s := openTestStore(t)

	amount, err := s.CollectedTaxes()
	if err != nil {
		t.Fatalf("CollectedTaxes: %v", err)
	}
	if amount != 0 {
		t.Errorf("fresh store taxes = %v, want 0", amount)
	}

	if err := s.SaveCollectedTaxes(42.37); err != nil {
		t.Fatalf("SaveCollectedTaxes: %v", err)
	}
	amount, err = s.CollectedTaxes()
	if err != nil {
		t.Fatalf("CollectedTaxes: %v", err)
	}
	if amount != 42.37 {
		t.Errorf("taxes = %v, want 42.37", amount)
	}
}
