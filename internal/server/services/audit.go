package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ordrebog/ordrebog/internal/logging"
	"github.com/ordrebog/ordrebog/internal/models"
	"github.com/ordrebog/ordrebog/internal/server/repositories/snapshots"
)

// Audit owns the append-only admin action trail.
type Audit struct {
	mu     sync.Mutex
	snaps  *snapshots.Gateway
	logger logging.Logger
	now    func() time.Time
}

// NewAudit constructs the audit service over the persistence gateway.
func NewAudit(snaps *snapshots.Gateway, logger logging.Logger) *Audit {
	return &Audit{
		snaps:  snaps,
		logger: logger.With("module", "audit"),
		now:    time.Now,
	}
}

// Record appends one entry to the trail. Entries are never mutated or
// compacted afterwards.
func (a *Audit) Record(ctx context.Context, action, admin, target string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.snaps.LoadAudit(ctx)
	if err != nil {
		return fmt.Errorf("load audit: %w", err)
	}
	entries = append(entries, models.AuditEntry{
		Time:   a.now().UTC(),
		Action: action,
		Admin:  admin,
		Target: target,
	})
	if err := a.snaps.SaveAudit(ctx, entries); err != nil {
		return fmt.Errorf("save audit: %w", err)
	}
	return nil
}

// List returns entries newest first, optionally filtered by action
// ("" means all actions).
func (a *Audit) List(ctx context.Context, action string) ([]models.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.snaps.LoadAudit(ctx)
	if err != nil {
		return nil, fmt.Errorf("load audit: %w", err)
	}

	result := make([]models.AuditEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if action != "" && entries[i].Action != action {
			continue
		}
		result = append(result, entries[i])
	}
	return result, nil
}
