package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is one user's accumulated item selection within one session.
//
// Invariants, maintained by the constructor and mutators:
//   - Items contains every catalog item as a key (0 if unordered), so
//     iteration and delta comparison are uniform everywhere.
//   - Total equals the sum of Items[i] * catalog price of i after every
//     mutation; it is recomputed synchronously, never trusted from state.
type Order struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	DisplayName string         `json:"user"`
	Items       map[string]int `json:"items"`
	Total       int            `json:"total"`
	CreatedAt   time.Time      `json:"time"`
}

// NewOrder creates the all-items-zero baseline order for a user. It is
// called on the user's first order intent within a session; afterwards the
// order is mutated in place and removed only by explicit admin delete.
func NewOrder(userID, displayName string, catalog Catalog) *Order {
	items := make(map[string]int, len(catalog.Items))
	for name := range catalog.Items {
		items[name] = 0
	}
	return &Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		DisplayName: displayName,
		Items:       items,
		CreatedAt:   time.Now(),
	}
}

// SetItem overwrites the quantity of a single item (set semantics, not an
// increment) and recomputes the total.
func (o *Order) SetItem(item string, quantity int, catalog Catalog) {
	o.Items[item] = quantity
	o.Recalculate(catalog)
}

// Recalculate rebuilds Total from Items and the catalog prices.
func (o *Order) Recalculate(catalog Catalog) {
	total := 0
	for item, qty := range o.Items {
		total += qty * catalog.Price(item)
	}
	o.Total = total
}

// Normalize restores the all-catalog-items-present invariant on orders
// loaded from storage (the catalog may have gained items since the order
// was written) and recomputes the total.
func (o *Order) Normalize(catalog Catalog) {
	if o.Items == nil {
		o.Items = make(map[string]int, len(catalog.Items))
	}
	for name := range catalog.Items {
		if _, ok := o.Items[name]; !ok {
			o.Items[name] = 0
		}
	}
	o.Recalculate(catalog)
}

// ItemsCopy returns a defensive copy of the item quantities.
func (o *Order) ItemsCopy() map[string]int {
	cp := make(map[string]int, len(o.Items))
	for item, qty := range o.Items {
		cp[item] = qty
	}
	return cp
}
