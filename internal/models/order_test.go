package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() Catalog {
	return Catalog{Items: map[string]CatalogEntry{
		"vest": {MaxStock: 5, UnitPrice: 100},
		"9mm":  {MaxStock: 20, UnitPrice: 800},
	}}
}

func TestNewOrder_AllItemsZeroBaseline(t *testing.T) {
	c := testCatalog()
	o := NewOrder("u1", "Alice", c)

	require.NotEmpty(t, o.ID)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, "Alice", o.DisplayName)
	assert.Equal(t, 0, o.Total)
	assert.Len(t, o.Items, len(c.Items))
	for item, qty := range o.Items {
		assert.Zero(t, qty, "item %s should start at zero", item)
	}
}

func TestOrder_SetItem_RecomputesTotal(t *testing.T) {
	c := testCatalog()
	o := NewOrder("u1", "Alice", c)

	o.SetItem("vest", 5, c)
	assert.Equal(t, 500, o.Total)

	// Set semantics: overwriting replaces, never increments.
	o.SetItem("vest", 2, c)
	assert.Equal(t, 200, o.Total)

	o.SetItem("9mm", 1, c)
	assert.Equal(t, 1000, o.Total)
}

func TestOrder_Normalize_FillsMissingCatalogItems(t *testing.T) {
	c := testCatalog()
	o := &Order{ID: "x", UserID: "u1", Items: map[string]int{"vest": 3}, Total: 999}

	o.Normalize(c)

	assert.Equal(t, 0, o.Items["9mm"])
	assert.Equal(t, 300, o.Total, "total is recomputed, not trusted from state")
}

func TestOrder_ItemsCopy_IsIndependent(t *testing.T) {
	c := testCatalog()
	o := NewOrder("u1", "Alice", c)
	o.SetItem("vest", 1, c)

	cp := o.ItemsCopy()
	cp["vest"] = 42

	assert.Equal(t, 1, o.Items["vest"])
}
