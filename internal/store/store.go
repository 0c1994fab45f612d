// Package store provides the durable stock-and-price ledger backing the shop.
// One row per (category, item); the database is the single source of truth
// for live stock and working prices.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports a read for an item that was never initialized.
var ErrNotFound = errors.New("item not in store")

// Store wraps a SQLite connection for shop ledger persistence.
type Store struct {
	conn *sqlx.DB
}

// Record is the persisted state of one shop item.
type Record struct {
	Category         string  `db:"category" json:"category"`
	Item             string  `db:"item_id" json:"item"`
	CurrentStock     int     `db:"current_stock" json:"current_stock"`
	CurrentBuyPrice  float64 `db:"current_buy_price" json:"current_buy_price"`
	CurrentSellPrice float64 `db:"current_sell_price" json:"current_sell_price"`
	BaseBuyPrice     float64 `db:"base_buy_price" json:"base_buy_price"`
	BaseSellPrice    float64 `db:"base_sell_price" json:"base_sell_price"`
	LastUpdate       int64   `db:"last_update" json:"last_update"`
}

// Transaction is one completed trade, kept as an append-only audit trail.
type Transaction struct {
	ID       int64   `db:"id" json:"id"`
	TS       int64   `db:"ts" json:"ts"`
	Actor    string  `db:"actor" json:"actor"`
	Side     string  `db:"side" json:"side"` // "buy" or "sell"
	Category string  `db:"category" json:"category"`
	Item     string  `db:"item_id" json:"item"`
	Quantity int     `db:"quantity" json:"quantity"`
	Price    float64 `db:"price" json:"price"`
	Tax      float64 `db:"tax" json:"tax"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Serialize writes through a single connection. SQLite allows one writer;
	// funneling through one conn turns lock contention into queueing.
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shop_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		item_id TEXT NOT NULL,
		current_stock INTEGER NOT NULL,
		current_buy_price REAL NOT NULL,
		current_sell_price REAL NOT NULL,
		base_buy_price REAL NOT NULL,
		base_sell_price REAL NOT NULL,
		last_update INTEGER NOT NULL,
		UNIQUE(category, item_id)
	);

	CREATE TABLE IF NOT EXISTS shop_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		actor TEXT NOT NULL,
		side TEXT NOT NULL,
		category TEXT NOT NULL,
		item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		tax REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_category ON shop_items(category);
	CREATE INDEX IF NOT EXISTS idx_transactions_ts ON transactions(ts);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// InitializeItem upserts an item definition. If the row already exists only
// the base prices are refreshed; live stock and working prices survive a
// catalog reload.
func (s *Store) InitializeItem(category, item string, initialStock int, buyPrice, sellPrice float64) error {
	_, err := s.conn.Exec(`INSERT INTO shop_items
		(category, item_id, current_stock, current_buy_price, current_sell_price,
		 base_buy_price, base_sell_price, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, item_id) DO UPDATE SET
			base_buy_price = excluded.base_buy_price,
			base_sell_price = excluded.base_sell_price`,
		category, item, initialStock, buyPrice, sellPrice, buyPrice, sellPrice,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("initialize item %s/%s: %w", category, item, err)
	}
	return nil
}

// Stock returns the current stock for an item.
func (s *Store) Stock(category, item string) (int, error) {
	var stock int
	err := s.conn.Get(&stock,
		"SELECT current_stock FROM shop_items WHERE category = ? AND item_id = ?",
		category, item,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get stock %s/%s: %w", category, item, err)
	}
	return stock, nil
}

// Prices returns the current working buy and sell prices for an item.
func (s *Store) Prices(category, item string) (buy, sell float64, err error) {
	var row struct {
		Buy  float64 `db:"current_buy_price"`
		Sell float64 `db:"current_sell_price"`
	}
	err = s.conn.Get(&row,
		"SELECT current_buy_price, current_sell_price FROM shop_items WHERE category = ? AND item_id = ?",
		category, item,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get prices %s/%s: %w", category, item, err)
	}
	return row.Buy, row.Sell, nil
}

// UpdateStock sets the stock level for an item unconditionally.
func (s *Store) UpdateStock(category, item string, newStock int) error {
	res, err := s.conn.Exec(
		"UPDATE shop_items SET current_stock = ?, last_update = ? WHERE category = ? AND item_id = ?",
		newStock, time.Now().Unix(), category, item,
	)
	if err != nil {
		return fmt.Errorf("update stock %s/%s: %w", category, item, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePrices sets the working per-unit prices for an item.
func (s *Store) UpdatePrices(category, item string, buy, sell float64) error {
	res, err := s.conn.Exec(
		"UPDATE shop_items SET current_buy_price = ?, current_sell_price = ?, last_update = ? WHERE category = ? AND item_id = ?",
		buy, sell, time.Now().Unix(), category, item,
	)
	if err != nil {
		return fmt.Errorf("update prices %s/%s: %w", category, item, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock atomically removes qty units if at least qty are available.
// Returns the resulting stock and whether the decrement applied. The check
// and the write are a single statement, so concurrent buyers cannot oversell.
func (s *Store) DecrementStock(category, item string, qty int) (newStock int, applied bool, err error) {
	err = s.conn.Get(&newStock, `UPDATE shop_items
		SET current_stock = current_stock - ?, last_update = ?
		WHERE category = ? AND item_id = ? AND current_stock >= ?
		RETURNING current_stock`,
		qty, time.Now().Unix(), category, item, qty,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("decrement stock %s/%s: %w", category, item, err)
	}
	return newStock, true, nil
}

// IncrementStock atomically adds qty units unless that would exceed maxStock.
// Returns the resulting stock and whether the increment applied.
func (s *Store) IncrementStock(category, item string, qty, maxStock int) (newStock int, applied bool, err error) {
	err = s.conn.Get(&newStock, `UPDATE shop_items
		SET current_stock = current_stock + ?, last_update = ?
		WHERE category = ? AND item_id = ? AND current_stock + ? <= ?
		RETURNING current_stock`,
		qty, time.Now().Unix(), category, item, qty, maxStock,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("increment stock %s/%s: %w", category, item, err)
	}
	return newStock, true, nil
}

// Item returns the full persisted record for one item.
func (s *Store) Item(category, item string) (*Record, error) {
	var rec Record
	err := s.conn.Get(&rec, `SELECT category, item_id, current_stock,
		current_buy_price, current_sell_price, base_buy_price, base_sell_price, last_update
		FROM shop_items WHERE category = ? AND item_id = ?`,
		category, item,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s/%s: %w", category, item, err)
	}
	return &rec, nil
}

// Items returns all persisted records ordered by category and item id.
func (s *Store) Items() ([]Record, error) {
	var recs []Record
	err := s.conn.Select(&recs, `SELECT category, item_id, current_stock,
		current_buy_price, current_sell_price, base_buy_price, base_sell_price, last_update
		FROM shop_items ORDER BY category, item_id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return recs, nil
}

// LogTransaction appends a completed trade to the audit trail.
func (s *Store) LogTransaction(t Transaction) error {
	if t.TS == 0 {
		t.TS = time.Now().Unix()
	}
	_, err := s.conn.Exec(`INSERT INTO transactions
		(ts, actor, side, category, item_id, quantity, price, tax)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TS, t.Actor, t.Side, t.Category, t.Item, t.Quantity, t.Price, t.Tax,
	)
	if err != nil {
		return fmt.Errorf("log transaction: %w", err)
	}
	return nil
}

// RecentTransactions returns the most recent N trades, newest first.
func (s *Store) RecentTransactions(limit int) ([]Transaction, error) {
	var txs []Transaction
	err := s.conn.Select(&txs, `SELECT id, ts, actor, side, category, item_id, quantity, price, tax
		FROM transactions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return txs, nil
}

// SaveMeta stores a key-value pair in shop metadata.
func (s *Store) SaveMeta(key, value string) error {
	_, err := s.conn.Exec(
		"INSERT OR REPLACE INTO shop_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("save meta %s: %w", key, err)
	}
	return nil
}

// GetMeta retrieves a metadata value, or defaultValue if the key is absent.
func (s *Store) GetMeta(key, defaultValue string) (string, error) {
	var value string
	err := s.conn.Get(&value, "SELECT value FROM shop_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultValue, nil
	}
	if err != nil {
		return defaultValue, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

const metaCollectedTaxes = "collected_taxes"

// SaveCollectedTaxes persists the running tax pool so it survives restarts.
func (s *Store) SaveCollectedTaxes(amount float64) error {
	return s.SaveMeta(metaCollectedTaxes, fmt.Sprintf("%.2f", amount))
}

// CollectedTaxes returns the persisted tax pool, defaulting to zero.
func (s *Store) CollectedTaxes() (float64, error) {
	value, err := s.GetMeta(metaCollectedTaxes, "0")
	if err != nil {
		return 0, err
	}
	var amount float64
	if _, err := fmt.Sscanf(value, "%f", &amount); err != nil {
		return 0, fmt.Errorf("parse collected taxes %q: %w", value, err)
	}
	return amount, nil
}
