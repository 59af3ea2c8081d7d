// Package models defines the ledger's data types: the per-round catalog,
// sessions with their orders, lifetime user statistics, the access list,
// and the audit trail. Constructors enforce the structural invariants the
// services rely on, in particular that every order carries every catalog
// item as a key.
package models

import "sort"

// CatalogEntry describes a single orderable item within a round.
type CatalogEntry struct {
	MaxStock  int `json:"max_stock"`
	UnitPrice int `json:"unit_price"`
}

// Catalog is the price/stock-cap table in force for the active round.
// It is read-only at runtime; changes take effect only between rounds.
type Catalog struct {
	Items map[string]CatalogEntry `json:"items"`
}

// NewCatalog returns an empty catalog with an initialized item map.
func NewCatalog() Catalog {
	return Catalog{Items: map[string]CatalogEntry{}}
}

// Has reports whether item is part of the catalog.
func (c Catalog) Has(item string) bool {
	_, ok := c.Items[item]
	return ok
}

// Price returns the unit price of item, or 0 for unknown items.
func (c Catalog) Price(item string) int {
	return c.Items[item].UnitPrice
}

// MaxStock returns the per-round stock cap of item, or 0 for unknown items.
func (c Catalog) MaxStock(item string) int {
	return c.Items[item].MaxStock
}

// Names returns the item names in stable sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Items))
	for name := range c.Items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Empty reports whether the catalog has no items.
func (c Catalog) Empty() bool {
	return len(c.Items) == 0
}

// DefaultCatalog returns the stock and price table the system ships with.
// It is persisted on first start when no catalog document exists yet.
func DefaultCatalog() Catalog {
	return Catalog{Items: map[string]CatalogEntry{
		"sns":     {MaxStock: 20, UnitPrice: 500000},
		"9mm":     {MaxStock: 20, UnitPrice: 800000},
		"vintage": {MaxStock: 10, UnitPrice: 950000},
		"ceramic": {MaxStock: 10, UnitPrice: 950000},
		"xm3":     {MaxStock: 10, UnitPrice: 1500000},
		"deagle":  {MaxStock: 10, UnitPrice: 1700000},
		"pump":    {MaxStock: 10, UnitPrice: 2550000},
		"veste":   {MaxStock: 200, UnitPrice: 350000},
	}}
}
