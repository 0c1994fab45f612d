// Package config loads the trading-post configuration from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the trading post.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Shop     ShopConfig     `yaml:"shop"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	API      APIConfig      `yaml:"api"`
}

// DatabaseConfig locates the sqlite stock ledger.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ShopConfig holds the pricing, tax, and inflation settings.
type ShopConfig struct {
	PriceFluctuation FluctuationConfig `yaml:"price_fluctuation"`
	Tax              TaxConfig         `yaml:"tax"`
	Inflation        InflationConfig   `yaml:"inflation"`
	Owner            OwnerConfig       `yaml:"owner"`
	CacheTTLSeconds  int               `yaml:"cache_ttl_seconds"`
}

// FluctuationConfig controls the stock-elasticity curve.
type FluctuationConfig struct {
	Enabled     *bool   `yaml:"enabled"`
	Sensitivity float64 `yaml:"sensitivity"`
}

// TaxConfig holds flat tax rates as percentages.
type TaxConfig struct {
	BuyTax  *float64 `yaml:"buy_tax"`
	SellTax *float64 `yaml:"sell_tax"`
}

// InflationConfig controls the global inflation multiplier.
type InflationConfig struct {
	Enabled               *bool   `yaml:"enabled"`
	Rate                  float64 `yaml:"rate"`
	UpdateIntervalMinutes int     `yaml:"update_interval"`
}

// OwnerConfig identifies the shop owner, the only actor allowed to drain taxes.
type OwnerConfig struct {
	UUID string `yaml:"uuid"`
}

// CatalogConfig maps category ids to their item definition files.
type CatalogConfig struct {
	Dir        string            `yaml:"dir"`
	Categories map[string]string `yaml:"categories"` // category id → file name
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	Port     int    `yaml:"port"`
	AdminKey string `yaml:"admin_key"` // Bearer token for admin endpoints. Empty = disabled.
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if buy := c.Shop.Tax.BuyTax; buy != nil && (*buy < 0 || *buy > 100) {
		return fmt.Errorf("shop.tax.buy_tax must be in [0,100], got %v", *buy)
	}
	if sell := c.Shop.Tax.SellTax; sell != nil && (*sell < 0 || *sell > 100) {
		return fmt.Errorf("shop.tax.sell_tax must be in [0,100], got %v", *sell)
	}
	if c.Shop.Inflation.Rate < 0 {
		return fmt.Errorf("shop.inflation.rate must be >= 0, got %v", c.Shop.Inflation.Rate)
	}
	if c.Shop.Owner.UUID != "" {
		if _, err := uuid.Parse(c.Shop.Owner.UUID); err != nil {
			return fmt.Errorf("shop.owner.uuid is not a valid UUID: %w", err)
		}
	}
	if c.API.AdminKey != "" && c.Shop.Owner.UUID == "" {
		return fmt.Errorf("api.admin_key is set but shop.owner.uuid is empty")
	}
	return nil
}

// BuyTaxRate returns the buy tax as a fraction in [0,1].
func (c *Config) BuyTaxRate() float64 { return *c.Shop.Tax.BuyTax / 100.0 }

// SellTaxRate returns the sell tax as a fraction in [0,1].
func (c *Config) SellTaxRate() float64 { return *c.Shop.Tax.SellTax / 100.0 }

// OwnerID returns the parsed owner UUID, or uuid.Nil when unset.
func (c *Config) OwnerID() uuid.UUID {
	if c.Shop.Owner.UUID == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(c.Shop.Owner.UUID)
	if err != nil {
		return uuid.Nil
	}
	return id
}
