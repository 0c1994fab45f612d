package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: test.db
`)
	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}

	if !*cfg.Shop.PriceFluctuation.Enabled {
		t.Error("fluctuation should default to enabled")
	}
	if cfg.Shop.PriceFluctuation.Sensitivity != DefaultSensitivity {
		t.Errorf("sensitivity = %v, want %v", cfg.Shop.PriceFluctuation.Sensitivity, DefaultSensitivity)
	}
	if got := cfg.BuyTaxRate(); got != 0.2 {
		t.Errorf("BuyTaxRate = %v, want 0.2", got)
	}
	if got := cfg.SellTaxRate(); got != 0.2 {
		t.Errorf("SellTaxRate = %v, want 0.2", got)
	}
	if cfg.Shop.Inflation.Rate != DefaultInflationRate {
		t.Errorf("inflation rate = %v, want %v", cfg.Shop.Inflation.Rate, DefaultInflationRate)
	}
	if cfg.CacheTTL() != DefaultCacheTTL {
		t.Errorf("CacheTTL = %v, want %v", cfg.CacheTTL(), DefaultCacheTTL)
	}
	if cfg.API.Port != DefaultAPIPort {
		t.Errorf("api port = %v, want %v", cfg.API.Port, DefaultAPIPort)
	}
}

func TestLoadAndValidate_ExplicitZeroTax(t *testing.T) {
	path := writeConfig(t, `
database:
  path: test.db
shop:
  tax:
    buy_tax: 0
    sell_tax: 0
`)
	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}
	if got := cfg.BuyTaxRate(); got != 0 {
		t.Errorf("BuyTaxRate = %v, want 0 (explicit zero must not be defaulted)", got)
	}
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"tax out of range", "database:\n  path: t.db\nshop:\n  tax:\n    buy_tax: 150\n"},
		{"negative inflation", "database:\n  path: t.db\nshop:\n  inflation:\n    rate: -5\n"},
		{"bad owner uuid", "database:\n  path: t.db\nshop:\n  owner:\n    uuid: not-a-uuid\n"},
		{"admin key without owner", "database:\n  path: t.db\napi:\n  admin_key: secret\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, c.yaml)
			if _, err := LoadAndValidate(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_BeforeDefaults(t *testing.T) {
	// Validate stands on its own; unset optionals must not panic it.
	cfg := &Config{Database: DatabaseConfig{Path: "t.db"}}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate without defaults: %v", err)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TP_DB_PATH", "expanded.db")
	path := writeConfig(t, "database:\n  path: ${TP_DB_PATH}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "expanded.db" {
		t.Errorf("path = %q, want expanded.db", cfg.Database.Path)
	}
}
