// Package api provides the HTTP surface for the trading post.
// GET endpoints are public (read-only quotes and ledger state).
// POST endpoints require a bearer token (the owner's control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/tradepost/internal/catalog"
	"github.com/talgya/tradepost/internal/shop"
	"github.com/talgya/tradepost/internal/store"
)

// Server serves shop state over HTTP.
type Server struct {
	Engine   *shop.Engine
	Catalog  *catalog.Catalog
	Store    *store.Store
	Port     int
	AdminKey string    // Bearer token for POST endpoints. Empty = POST disabled.
	OwnerID  uuid.UUID // Actor credited by the tax-collect endpoint.
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	// Quotes hit the store through the cache; still, keep burst readers in check.
	quoteLimiter := NewRateLimiter(600, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/api/v1/items", s.handleItems)
	mux.HandleFunc("/api/v1/items/", s.handleItemDetail)
	mux.HandleFunc("/api/v1/quote/", RateLimitMiddleware(quoteLimiter, s.handleQuote))
	mux.HandleFunc("/api/v1/transactions", s.handleTransactions)
	mux.HandleFunc("/api/v1/taxes", s.handleTaxes)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/taxes/collect", s.adminOnly(s.handleCollectTaxes))

	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API listening", "addr", addr)
	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key configured)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"name":            "tradepost",
		"categories":      len(s.Catalog.Categories()),
		"items":           s.Catalog.Len(),
		"collected_taxes": s.Engine.CollectedTaxes(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	type itemEntry struct {
		Category  string  `json:"category"`
		ID        string  `json:"id"`
		Kind      string  `json:"kind"`
		BuyPrice  float64 `json:"base_buy_price"`
		SellPrice float64 `json:"base_sell_price"`
		MaxStock  int     `json:"max_stock"`
	}

	items := make([]itemEntry, 0, s.Catalog.Len())
	for _, item := range s.Catalog.All() {
		items = append(items, itemEntry{
			Category:  item.Category,
			ID:        item.ID,
			Kind:      item.Kind,
			BuyPrice:  item.BuyPrice,
			SellPrice: item.SellPrice,
			MaxStock:  item.MaxStock,
		})
	}
	writeJSON(w, map[string]any{"items": items})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	records, err := s.Store.Items()
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{"items": records})
}

// handleItemDetail returns the persisted record for one item:
// GET /api/v1/items/:category/:item
func (s *Server) handleItemDetail(w http.ResponseWriter, r *http.Request) {
	category, item, ok := splitItemPath(r.URL.Path, "/api/v1/items/")
	if !ok {
		http.Error(w, "expected /api/v1/items/:category/:item", http.StatusBadRequest)
		return
	}

	rec, err := s.Store.Item(category, item)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, rec)
}

// handleQuote returns a live price quote:
// GET /api/v1/quote/:category/:item?qty=N&side=buy|sell
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	category, item, ok := splitItemPath(r.URL.Path, "/api/v1/quote/")
	if !ok {
		http.Error(w, "expected /api/v1/quote/:category/:item", http.StatusBadRequest)
		return
	}

	qty := 1
	if q := r.URL.Query().Get("qty"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			http.Error(w, "qty must be a positive integer", http.StatusBadRequest)
			return
		}
		qty = n
	}

	side := r.URL.Query().Get("side")
	if side == "" {
		side = "buy"
	}

	var price float64
	var err error
	switch side {
	case "buy":
		price, err = s.Engine.QuoteBuy(category, item, qty)
	case "sell":
		price, err = s.Engine.QuoteSell(category, item, qty)
	default:
		http.Error(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, shop.ErrItemNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, map[string]any{
		"category": category,
		"item":     item,
		"side":     side,
		"quantity": qty,
		"price":    price,
	})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "limit must be in 1..1000", http.StatusBadRequest)
			return
		}
		limit = n
	}

	txs, err := s.Store.RecentTransactions(limit)
	if err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{"transactions": txs})
}

func (s *Server) handleTaxes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"collected": s.Engine.CollectedTaxes()})
}

// handleCollectTaxes drains the tax pool to the configured owner.
func (s *Server) handleCollectTaxes(w http.ResponseWriter, r *http.Request) {
	amount, err := s.Engine.CollectTaxes(s.OwnerID)
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrNotOwner):
			http.Error(w, "no shop owner configured", http.StatusForbidden)
		case errors.Is(err, shop.ErrNothingCollected):
			http.Error(w, "nothing to collect", http.StatusConflict)
		default:
			http.Error(w, "tax payout failed", http.StatusServiceUnavailable)
		}
		return
	}
	writeJSON(w, map[string]any{"collected": amount})
}

// splitItemPath extracts category and item from a path like prefix/:category/:item.
func splitItemPath(path, prefix string) (category, item string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
