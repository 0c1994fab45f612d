package store

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T) (*CachedStore, *Store, *time.Time) {
	t.Helper()
	s := openTestStore(t)
	if err := s.InitializeItem("blocks", "stone", 50, 2.5, 1.0); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	c := NewCachedStore(s, 5*time.Second)
	c.now = func() time.Time { return now }
	c.epoch = now
	return c, s, &now
}

func TestCachedStore_ReadThrough(t *testing.T) {
	c, s, _ := newTestCache(t)

	stock, err := c.Stock("blocks", "stone")
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if stock != 50 {
		t.Errorf("stock = %d, want 50", stock)
	}

	// Write behind the cache's back: cached value must keep serving.
	if err := s.UpdateStock("blocks", "stone", 10); err != nil {
		t.Fatal(err)
	}
	stock, err = c.Stock("blocks", "stone")
	if err != nil {
		t.Fatal(err)
	}
	if stock != 50 {
		t.Errorf("stock = %d, want cached 50", stock)
	}
}

func TestCachedStore_EpochExpiry(t *testing.T) {
	c, s, now := newTestCache(t)

	if _, err := c.Stock("blocks", "stone"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStock("blocks", "stone", 10); err != nil {
		t.Fatal(err)
	}

	// Advance past the TTL: the whole cache is dropped and re-read.
	*now = now.Add(6 * time.Second)
	stock, err := c.Stock("blocks", "stone")
	if err != nil {
		t.Fatal(err)
	}
	if stock != 10 {
		t.Errorf("stock after expiry = %d, want 10", stock)
	}
}

func TestCachedStore_NoteAndInvalidate(t *testing.T) {
	c, _, _ := newTestCache(t)

	if _, err := c.Stock("blocks", "stone"); err != nil {
		t.Fatal(err)
	}

	c.NoteStock("blocks", "stone", 44)
	stock, err := c.Stock("blocks", "stone")
	if err != nil {
		t.Fatal(err)
	}
	if stock != 44 {
		t.Errorf("stock after NoteStock = %d, want 44", stock)
	}

	c.NotePrices("blocks", "stone", 3.3, 1.1)
	buy, sell, err := c.Prices("blocks", "stone")
	if err != nil {
		t.Fatal(err)
	}
	if buy != 3.3 || sell != 1.1 {
		t.Errorf("prices after NotePrices = %v/%v, want 3.3/1.1", buy, sell)
	}

	// Invalidate forces a re-read of the authoritative row.
	c.Invalidate("blocks", "stone")
	stock, err = c.Stock("blocks", "stone")
	if err != nil {
		t.Fatal(err)
	}
	if stock != 50 {
		t.Errorf("stock after Invalidate = %d, want store value 50", stock)
	}
}
