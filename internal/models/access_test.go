package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessList_Seen(t *testing.T) {
	a := NewAccessList()
	first := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	a.Seen("u1", "Alice", first)
	u := a.Users["u1"]
	require.NotNil(t, u)
	assert.Equal(t, "member", u.Role)
	assert.Equal(t, first, u.FirstSeen)

	a.Seen("u1", "Alice2", later)
	assert.Equal(t, "Alice2", u.DisplayName)
	assert.Equal(t, first, u.FirstSeen, "first_seen never moves")
	assert.Equal(t, later, u.LastSeen)
}

func TestAccessList_BlockUnblock_Idempotent(t *testing.T) {
	a := NewAccessList()

	a.Block("u1")
	a.Block("u1")
	assert.True(t, a.IsBlocked("u1"))
	assert.Len(t, a.Blocked, 1)

	a.Unblock("u1")
	a.Unblock("u1")
	assert.False(t, a.IsBlocked("u1"))
}
