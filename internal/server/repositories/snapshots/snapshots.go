// Package snapshots is the typed persistence gateway between the services
// and the document store: each collection is loaded and saved as one whole
// JSON snapshot. Absent documents come back as empty, normalized values so
// first-run state needs no special handling upstream.
package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ordrebog/ordrebog/internal/models"
	"github.com/ordrebog/ordrebog/internal/server/repositories/docs"
)

// Gateway wraps a docs.Store with typed load/save per collection.
type Gateway struct {
	store docs.Store
}

// New returns a gateway over the given document store.
func New(store docs.Store) *Gateway {
	return &Gateway{store: store}
}

func (g *Gateway) load(ctx context.Context, key string, v any) (found bool, err error) {
	data, err := g.store.Load(ctx, key)
	if errors.Is(err, docs.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (g *Gateway) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return g.store.Save(ctx, key, data)
}

// LoadRoot returns the ledger root, normalized against the catalog.
func (g *Gateway) LoadRoot(ctx context.Context, catalog models.Catalog) (*models.Root, error) {
	root := models.NewRoot()
	if _, err := g.load(ctx, docs.KeySessions, root); err != nil {
		return nil, err
	}
	root.Normalize(catalog)
	return root, nil
}

// SaveRoot replaces the persisted ledger root.
func (g *Gateway) SaveRoot(ctx context.Context, root *models.Root) error {
	return g.save(ctx, docs.KeySessions, root)
}

// LoadCatalog returns the catalog, or an empty one when none is stored.
func (g *Gateway) LoadCatalog(ctx context.Context) (models.Catalog, error) {
	catalog := models.NewCatalog()
	if _, err := g.load(ctx, docs.KeyCatalog, &catalog); err != nil {
		return models.Catalog{}, err
	}
	if catalog.Items == nil {
		catalog.Items = map[string]models.CatalogEntry{}
	}
	return catalog, nil
}

// SaveCatalog replaces the persisted catalog.
func (g *Gateway) SaveCatalog(ctx context.Context, catalog models.Catalog) error {
	return g.save(ctx, docs.KeyCatalog, catalog)
}

// LoadAccess returns the access list, normalized.
func (g *Gateway) LoadAccess(ctx context.Context) (*models.AccessList, error) {
	access := models.NewAccessList()
	if _, err := g.load(ctx, docs.KeyAccess, access); err != nil {
		return nil, err
	}
	access.Normalize()
	return access, nil
}

// SaveAccess replaces the persisted access list.
func (g *Gateway) SaveAccess(ctx context.Context, access *models.AccessList) error {
	return g.save(ctx, docs.KeyAccess, access)
}

// LoadStats returns the stats book for all users.
func (g *Gateway) LoadStats(ctx context.Context) (models.StatsBook, error) {
	book := models.StatsBook{}
	if _, err := g.load(ctx, docs.KeyStats, &book); err != nil {
		return nil, err
	}
	return book, nil
}

// SaveStats replaces the persisted stats book.
func (g *Gateway) SaveStats(ctx context.Context, book models.StatsBook) error {
	return g.save(ctx, docs.KeyStats, book)
}

// LoadAudit returns the audit trail in insertion order.
func (g *Gateway) LoadAudit(ctx context.Context) ([]models.AuditEntry, error) {
	entries := []models.AuditEntry{}
	if _, err := g.load(ctx, docs.KeyAudit, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveAudit replaces the persisted audit trail.
func (g *Gateway) SaveAudit(ctx context.Context, entries []models.AuditEntry) error {
	return g.save(ctx, docs.KeyAudit, entries)
}
