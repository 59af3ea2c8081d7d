package docs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "ordrebog.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(ctx, KeySessions)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, KeySessions, []byte(`{"current":""}`)))
	require.NoError(t, store.Save(ctx, KeySessions, []byte(`{"current":"bestilling1"}`)))

	data, err := store.Load(ctx, KeySessions)
	require.NoError(t, err)
	assert.JSONEq(t, `{"current":"bestilling1"}`, string(data))
}

func TestSQLite_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ordrebog.db")

	store, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, KeyCatalog, []byte(`{"items":{}}`)))
	require.NoError(t, store.Close())

	// Reopening runs goose again; existing data must survive.
	store, err = NewSQLite(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	data, err := store.Load(ctx, KeyCatalog)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":{}}`, string(data))
}
