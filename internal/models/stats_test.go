package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserStats_ApplyOrder_DeltaSafeAcrossEdits(t *testing.T) {
	c := testCatalog()
	s := NewUserStats()
	o := NewOrder("u1", "Alice", c)

	// Edit a → b → c. Final contribution must equal the final state only.
	o.SetItem("vest", 5, c)
	s.ApplyOrder(o)
	o.SetItem("vest", 2, c)
	s.ApplyOrder(o)
	o.SetItem("vest", 3, c)
	s.ApplyOrder(o)

	assert.Equal(t, 3, s.Items["vest"])
	assert.Equal(t, 3, s.TotalItems)
	assert.Equal(t, 300, s.TotalSpent)
}

func TestUserStats_ApplyOrder_Idempotent(t *testing.T) {
	c := testCatalog()
	s := NewUserStats()
	o := NewOrder("u1", "Alice", c)
	o.SetItem("vest", 4, c)

	s.ApplyOrder(o)
	s.ApplyOrder(o)

	assert.Equal(t, 4, s.Items["vest"])
	assert.Equal(t, 4, s.TotalItems)
	assert.Equal(t, 400, s.TotalSpent)
}

func TestUserStats_ApplyOrder_AdminDecreaseFreesSpend(t *testing.T) {
	c := testCatalog()
	s := NewUserStats()
	o := NewOrder("u1", "Alice", c)

	o.SetItem("vest", 5, c)
	s.ApplyOrder(o)

	o.SetItem("vest", 2, c)
	s.ApplyOrder(o)

	assert.Equal(t, 200, s.TotalSpent, "total_spent decreases by exactly the delta")
}

func TestUserStats_ZeroedItemKeysAreRemoved(t *testing.T) {
	c := testCatalog()
	s := NewUserStats()
	o := NewOrder("u1", "Alice", c)

	o.SetItem("vest", 2, c)
	s.ApplyOrder(o)
	o.SetItem("vest", 0, c)
	s.ApplyOrder(o)

	assert.NotContains(t, s.Items, "vest")
	assert.Zero(t, s.TotalItems)
	assert.Zero(t, s.TotalSpent)
}

func TestUserStats_RemoveOrder_RollsBackContribution(t *testing.T) {
	c := testCatalog()
	s := NewUserStats()

	keep := NewOrder("u1", "Alice", c)
	keep.SetItem("9mm", 1, c)
	s.ApplyOrder(keep)

	gone := NewOrder("u1", "Alice", c)
	gone.SetItem("vest", 3, c)
	s.ApplyOrder(gone)

	s.RemoveOrder(gone.ID)

	assert.Equal(t, 1, s.TotalItems)
	assert.Equal(t, 800, s.TotalSpent)
	assert.NotContains(t, s.Items, "vest")
	assert.NotContains(t, s.Orders, gone.ID)

	// Removing twice is harmless.
	s.RemoveOrder(gone.ID)
	assert.Equal(t, 800, s.TotalSpent)
}

func TestUserStats_TopItem_RespectsExclusions(t *testing.T) {
	s := NewUserStats()
	s.Items = map[string]int{"veste": 50, "9mm": 7, "vintage": 7, "sns": 2}

	item, count := s.TopItem([]string{"veste"})
	assert.Equal(t, "9mm", item, "ties break alphabetically")
	assert.Equal(t, 7, count)

	item, _ = s.TopItem(nil)
	assert.Equal(t, "veste", item)
}

func TestStatsBook_User_CreatesOnDemand(t *testing.T) {
	b := StatsBook{}
	s := b.User("u1")
	assert.NotNil(t, s)
	assert.Same(t, s, b.User("u1"))
}
