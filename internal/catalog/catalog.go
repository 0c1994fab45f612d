// Package catalog loads the immutable item definitions the shop trades in.
// Definitions come from per-category YAML files; the engine never mutates them.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Item is one sellable definition. Base prices and max stock are fixed at
// load time; live stock and working prices belong to the store.
type Item struct {
	Category     string
	ID           string
	Kind         string // opaque display/reference token ("IRON_INGOT", ...)
	BuyPrice     float64
	SellPrice    float64
	InitialStock int
	MaxStock     int
}

// Catalog indexes items by (category, id) and by kind.
type Catalog struct {
	categories map[string]map[string]*Item
	byKind     map[string]*Item
}

// itemYAML is the on-disk shape of one item entry.
type itemYAML struct {
	Kind         string  `yaml:"kind"`
	BuyPrice     float64 `yaml:"buy_price"`
	SellPrice    float64 `yaml:"sell_price"`
	InitialStock int     `yaml:"initial_stock"`
	MaxStock     int     `yaml:"max_stock"`
}

type categoryYAML struct {
	Items map[string]itemYAML `yaml:"items"`
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		categories: make(map[string]map[string]*Item),
		byKind:     make(map[string]*Item),
	}
}

// Load reads every category file under dir. The files map is category id →
// file name, as referenced from the main config.
func Load(dir string, files map[string]string) (*Catalog, error) {
	c := New()

	// Deterministic load order so duplicate-kind resolution is stable.
	ids := make([]string, 0, len(files))
	for id := range files {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, categoryID := range ids {
		path := filepath.Join(dir, files[categoryID])
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read category %s: %w", categoryID, err)
		}

		var parsed categoryYAML
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse category %s: %w", categoryID, err)
		}

		for itemID, y := range parsed.Items {
			item := &Item{
				Category:     categoryID,
				ID:           itemID,
				Kind:         y.Kind,
				BuyPrice:     y.BuyPrice,
				SellPrice:    y.SellPrice,
				InitialStock: y.InitialStock,
				MaxStock:     y.MaxStock,
			}
			if err := c.Add(item); err != nil {
				return nil, fmt.Errorf("category %s: %w", categoryID, err)
			}
		}
	}

	return c, nil
}

// Add registers an item definition, validating its invariants.
func (c *Catalog) Add(item *Item) error {
	if item.Category == "" || item.ID == "" {
		return fmt.Errorf("item %s/%s: category and id are required", item.Category, item.ID)
	}
	if item.Kind == "" {
		return fmt.Errorf("item %s/%s: kind is required", item.Category, item.ID)
	}
	if item.BuyPrice < 0 || item.SellPrice < 0 {
		return fmt.Errorf("item %s/%s: base prices must be >= 0", item.Category, item.ID)
	}
	if item.MaxStock <= 0 {
		return fmt.Errorf("item %s/%s: max_stock must be > 0", item.Category, item.ID)
	}
	if item.InitialStock < 0 || item.InitialStock > item.MaxStock {
		return fmt.Errorf("item %s/%s: initial_stock %d outside [0,%d]",
			item.Category, item.ID, item.InitialStock, item.MaxStock)
	}

	items, ok := c.categories[item.Category]
	if !ok {
		items = make(map[string]*Item)
		c.categories[item.Category] = items
	}
	if _, dup := items[item.ID]; dup {
		return fmt.Errorf("duplicate item %s/%s", item.Category, item.ID)
	}
	items[item.ID] = item

	// First definition of a kind wins the sell-path lookup.
	if _, ok := c.byKind[item.Kind]; !ok {
		c.byKind[item.Kind] = item
	}
	return nil
}

// Get returns the definition for (category, id), or nil if absent.
func (c *Catalog) Get(category, id string) *Item {
	return c.categories[category][id]
}

// FindByKind resolves the catalog entry that accepts the given kind on the
// sell path, or nil if the kind is not traded.
func (c *Catalog) FindByKind(kind string) *Item {
	return c.byKind[kind]
}

// Categories returns the category ids in sorted order.
func (c *Catalog) Categories() []string {
	ids := make([]string, 0, len(c.categories))
	for id := range c.categories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// All returns every item, ordered by category then id.
func (c *Catalog) All() []*Item {
	var items []*Item
	for _, category := range c.Categories() {
		ids := make([]string, 0, len(c.categories[category]))
		for id := range c.categories[category] {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			items = append(items, c.categories[category][id])
		}
	}
	return items
}

// Len returns the total number of item definitions.
func (c *Catalog) Len() int {
	n := 0
	for _, items := range c.categories {
		n += len(items)
	}
	return n
}
