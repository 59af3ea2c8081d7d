// Package services contains the business logic of the order ledger: the
// inventory accountant, the ledger operations shared by both front ends,
// delta-safe lifetime statistics, the access list, and the audit trail.
package services

import "github.com/ordrebog/ordrebog/internal/models"

// used sums committed quantities per item across every order in the
// session, skipping the order with excludeOrderID ("" excludes nothing).
func used(s *models.Session, excludeOrderID string) map[string]int {
	totals := map[string]int{}
	for _, o := range s.Orders {
		if o.ID == excludeOrderID {
			continue
		}
		for item, qty := range o.Items {
			totals[item] += qty
		}
	}
	return totals
}

// Remaining computes per-item remaining stock for a session: catalog cap
// minus all committed orders, floored at zero. It is pure and recomputed
// from the live order set on every check; callers must not cache the
// result across mutations.
func Remaining(s *models.Session, catalog models.Catalog) map[string]int {
	return remainingExcluding(s, catalog, "")
}

// remainingExcluding is Remaining as if the given order did not exist,
// which is the budget available to that order when its quantities are
// overwritten (set semantics) rather than incremented.
func remainingExcluding(s *models.Session, catalog models.Catalog, excludeOrderID string) map[string]int {
	committed := used(s, excludeOrderID)
	remaining := make(map[string]int, len(catalog.Items))
	for item := range catalog.Items {
		left := catalog.MaxStock(item) - committed[item]
		if left < 0 {
			left = 0
		}
		remaining[item] = left
	}
	return remaining
}
