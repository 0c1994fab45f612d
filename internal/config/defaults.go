package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBPath          = "data/tradepost.db"
	DefaultSensitivity     = 5.0
	DefaultBuyTaxPercent   = 20.0
	DefaultSellTaxPercent  = 20.0
	DefaultInflationRate   = 5.0
	DefaultInflationUpdate = 60 // minutes
	DefaultCacheTTL        = 5 * time.Second
	DefaultAPIPort         = 8080
	DefaultCatalogDir      = "shops"
)

func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

// ApplyDefaults fills in zero-valued optional fields.
func (c *Config) ApplyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}

	// Shop defaults
	if c.Shop.PriceFluctuation.Enabled == nil {
		c.Shop.PriceFluctuation.Enabled = boolPtr(true)
	}
	if c.Shop.PriceFluctuation.Sensitivity == 0 {
		c.Shop.PriceFluctuation.Sensitivity = DefaultSensitivity
	}
	if c.Shop.Tax.BuyTax == nil {
		c.Shop.Tax.BuyTax = floatPtr(DefaultBuyTaxPercent)
	}
	if c.Shop.Tax.SellTax == nil {
		c.Shop.Tax.SellTax = floatPtr(DefaultSellTaxPercent)
	}
	if c.Shop.Inflation.Enabled == nil {
		c.Shop.Inflation.Enabled = boolPtr(true)
	}
	if c.Shop.Inflation.Rate == 0 {
		c.Shop.Inflation.Rate = DefaultInflationRate
	}
	if c.Shop.Inflation.UpdateIntervalMinutes == 0 {
		c.Shop.Inflation.UpdateIntervalMinutes = DefaultInflationUpdate
	}
	if c.Shop.CacheTTLSeconds == 0 {
		c.Shop.CacheTTLSeconds = int(DefaultCacheTTL / time.Second)
	}

	// Catalog defaults
	if c.Catalog.Dir == "" {
		c.Catalog.Dir = DefaultCatalogDir
	}

	// API defaults
	if c.API.Port == 0 {
		c.API.Port = DefaultAPIPort
	}
}

// CacheTTL returns the quote cache lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Shop.CacheTTLSeconds) * time.Second
}

// InflationInterval returns the inflation refresh interval as a duration.
func (c *Config) InflationInterval() time.Duration {
	return time.Duration(c.Shop.Inflation.UpdateIntervalMinutes) * time.Minute
}
