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

// Access tracks every user seen by the front ends and the globally blocked
// set. Blocking is independent of per-session locks: a blocked user gets no
// service at all.
type Access struct {
	mu     sync.Mutex
	snaps  *snapshots.Gateway
	audit  *Audit
	logger logging.Logger
	now    func() time.Time
}

// NewAccess constructs the access service.
func NewAccess(snaps *snapshots.Gateway, audit *Audit, logger logging.Logger) *Access {
	return &Access{
		snaps:  snaps,
		audit:  audit,
		logger: logger.With("module", "access"),
		now:    time.Now,
	}
}

// Seen upserts a user sighting and reports whether the user is blocked,
// so chat handlers can do both in one storage round trip.
func (a *Access) Seen(ctx context.Context, userID, displayName string) (blocked bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	access, err := a.snaps.LoadAccess(ctx)
	if err != nil {
		return false, fmt.Errorf("load access: %w", err)
	}
	access.Seen(userID, displayName, a.now().UTC())
	if err := a.snaps.SaveAccess(ctx, access); err != nil {
		return false, fmt.Errorf("save access: %w", err)
	}
	return access.IsBlocked(userID), nil
}

// IsBlocked reports whether the user is globally blocked.
func (a *Access) IsBlocked(ctx context.Context, userID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	access, err := a.snaps.LoadAccess(ctx)
	if err != nil {
		return false, fmt.Errorf("load access: %w", err)
	}
	return access.IsBlocked(userID), nil
}

// List returns the full access list for the admin view.
func (a *Access) List(ctx context.Context) (*models.AccessList, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	access, err := a.snaps.LoadAccess(ctx)
	if err != nil {
		return nil, fmt.Errorf("load access: %w", err)
	}
	return access, nil
}

// Block adds a user to the global blocked set. Idempotent, audited.
func (a *Access) Block(ctx context.Context, userID, admin string) error {
	return a.setBlocked(ctx, userID, admin, true)
}

// Unblock removes a user from the global blocked set. Idempotent, audited.
func (a *Access) Unblock(ctx context.Context, userID, admin string) error {
	return a.setBlocked(ctx, userID, admin, false)
}

func (a *Access) setBlocked(ctx context.Context, userID, admin string, blocked bool) error {
	a.mu.Lock()

	access, err := a.snaps.LoadAccess(ctx)
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("load access: %w", err)
	}
	action := models.AuditUnblockUser
	if blocked {
		access.Block(userID)
		action = models.AuditBlockUser
	} else {
		access.Unblock(userID)
	}
	if err := a.snaps.SaveAccess(ctx, access); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("save access: %w", err)
	}
	a.mu.Unlock()

	if err := a.audit.Record(ctx, action, admin, userID); err != nil {
		a.logger.Error(ctx, "audit record failed", "action", action, "error", err)
	}
	return nil
}
