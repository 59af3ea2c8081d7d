package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ordrebog/ordrebog/internal/models"
)

func smallCatalog() models.Catalog {
	return models.Catalog{Items: map[string]models.CatalogEntry{
		"vest": {MaxStock: 5, UnitPrice: 100},
		"9mm":  {MaxStock: 20, UnitPrice: 800},
	}}
}

func TestRemaining_SumsAcrossOrders(t *testing.T) {
	c := smallCatalog()
	s := models.NewSession("bestilling1")

	a := models.NewOrder("u1", "Alice", c)
	a.SetItem("vest", 3, c)
	b := models.NewOrder("u2", "Bob", c)
	b.SetItem("vest", 1, c)
	b.SetItem("9mm", 20, c)
	s.Orders = append(s.Orders, a, b)

	remaining := Remaining(s, c)
	assert.Equal(t, 1, remaining["vest"])
	assert.Equal(t, 0, remaining["9mm"])
}

func TestRemaining_NeverNegative(t *testing.T) {
	c := smallCatalog()
	s := models.NewSession("bestilling1")

	// Overcommitted state (e.g. the catalog cap was lowered between rounds).
	o := models.NewOrder("u1", "Alice", c)
	o.Items["vest"] = 9
	s.Orders = append(s.Orders, o)

	assert.Equal(t, 0, Remaining(s, c)["vest"])
}

func TestRemainingExcluding_IgnoresOwnReservation(t *testing.T) {
	c := smallCatalog()
	s := models.NewSession("bestilling1")

	a := models.NewOrder("u1", "Alice", c)
	a.SetItem("vest", 4, c)
	b := models.NewOrder("u2", "Bob", c)
	b.SetItem("vest", 1, c)
	s.Orders = append(s.Orders, a, b)

	// From Alice's perspective the budget is cap minus Bob's share.
	assert.Equal(t, 4, remainingExcluding(s, c, a.ID)["vest"])
	assert.Equal(t, 0, Remaining(s, c)["vest"])
}

func TestRemaining_EmptySessionEqualsCaps(t *testing.T) {
	c := smallCatalog()
	s := models.NewSession("bestilling1")

	remaining := Remaining(s, c)
	assert.Equal(t, 5, remaining["vest"])
	assert.Equal(t, 20, remaining["9mm"])
}
