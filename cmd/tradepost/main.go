// Command tradepost runs the trading-post pricing and stock-ledger engine
// as a standalone service with an HTTP API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/tradepost/internal/api"
	"github.com/talgya/tradepost/internal/catalog"
	"github.com/talgya/tradepost/internal/config"
	"github.com/talgya/tradepost/internal/economy"
	"github.com/talgya/tradepost/internal/inventory"
	"github.com/talgya/tradepost/internal/ledger"
	"github.com/talgya/tradepost/internal/shop"
	"github.com/talgya/tradepost/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML configuration file")
	flag.Parse()

	// Text logs on a terminal, JSON when piped to a collector.
	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	// ── Store ─────────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("store opened", "path", cfg.Database.Path)

	// ── Catalog ───────────────────────────────────────────────────────
	cat, err := catalog.Load(cfg.Catalog.Dir, cfg.Catalog.Categories)
	if err != nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "categories", len(cat.Categories()), "items", cat.Len())

	// ── Controllers ───────────────────────────────────────────────────
	collected, err := st.CollectedTaxes()
	if err != nil {
		slog.Error("failed to read persisted taxes", "error", err)
		os.Exit(1)
	}
	tax := economy.NewTax(cfg.BuyTaxRate(), cfg.SellTaxRate(), cfg.OwnerID(), collected,
		st.SaveCollectedTaxes)

	// The refresh re-reads the config file so rate edits land without a restart.
	inflation := economy.NewInflation(*cfg.Shop.Inflation.Enabled, cfg.InflationInterval(),
		func() float64 {
			fresh, err := config.LoadAndValidate(*configPath)
			if err != nil {
				slog.Warn("inflation refresh: config reload failed", "error", err)
				return cfg.Shop.Inflation.Rate
			}
			return fresh.Shop.Inflation.Rate
		})
	inflation.Start()
	defer inflation.Stop()

	// ── Engine ────────────────────────────────────────────────────────
	// Standalone mode settles against in-process money and inventory;
	// a host game server wires its own Ledger and Holder here instead.
	engine := shop.New(shop.Config{
		Catalog:            cat,
		Store:              st,
		Cache:              store.NewCachedStore(st, cfg.CacheTTL()),
		Tax:                tax,
		Inflation:          inflation,
		Ledger:             ledger.NewMemory(),
		Holder:             inventory.NewMemory(0),
		Sensitivity:        cfg.Shop.PriceFluctuation.Sensitivity,
		FluctuationEnabled: *cfg.Shop.PriceFluctuation.Enabled,
	})

	if err := engine.LoadCatalog(); err != nil {
		slog.Error("failed to initialize items", "error", err)
		os.Exit(1)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.API.AdminKey == "" {
		slog.Warn("api.admin_key not set — admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Engine:   engine,
		Catalog:  cat,
		Store:    st,
		Port:     cfg.API.Port,
		AdminKey: cfg.API.AdminKey,
		OwnerID:  cfg.OwnerID(),
	}
	apiServer.Start()

	// Periodic status line.
	statusTicker := time.NewTicker(5 * time.Minute)
	defer statusTicker.Stop()
	go func() {
		for range statusTicker.C {
			slog.Info("shop status",
				"collected_taxes", humanize.CommafWithDigits(engine.CollectedTaxes(), 2),
				"inflation_rate", inflation.Rate(),
			)
		}
	}()

	fmt.Printf("Trading post open: %d items across %d categories.\n",
		cat.Len(), len(cat.Categories()))
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)

	// ── Shutdown ──────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	inflation.Stop()
	if err := st.SaveCollectedTaxes(engine.CollectedTaxes()); err != nil {
		slog.Error("final tax save failed", "error", err)
	}
	fmt.Println("Trading post closed. Ledger saved.")
}
