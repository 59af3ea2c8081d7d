package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ordrebog/ordrebog/internal/common"
	"github.com/ordrebog/ordrebog/internal/logging"
	"github.com/ordrebog/ordrebog/internal/models"
	"github.com/ordrebog/ordrebog/internal/server/repositories/snapshots"
)

// ItemChange describes one item adjustment made by an admin edit, kept for
// the audit trail and the notification text.
type ItemChange struct {
	Item   string
	Before int
	After  int
}

// Ledger owns the session root and implements every mutating operation on
// it. All mutations run their whole load-validate-mutate-save sequence
// under one mutex, so two concurrent writers can never overcommit an item
// past its catalog cap or silently lose each other's snapshot.
//
// Statistics are folded in strictly after the root snapshot has been
// committed. A stats or audit failure after a successful commit is logged
// and does not fail the user's operation; the two collections are not
// required to update atomically with the root.
type Ledger struct {
	mu     sync.Mutex
	snaps  *snapshots.Gateway
	stats  *Stats
	audit  *Audit
	prefix string
	logger logging.Logger
}

// NewLedger constructs the ledger service. prefix names new sessions
// (prefix + smallest unused positive integer).
func NewLedger(snaps *snapshots.Gateway, stats *Stats, audit *Audit, prefix string, logger logging.Logger) *Ledger {
	return &Ledger{
		snaps:  snaps,
		stats:  stats,
		audit:  audit,
		prefix: prefix,
		logger: logger.With("module", "ledger"),
	}
}

// loadState loads the catalog and the normalized root. Must be called with
// the ledger mutex held.
func (l *Ledger) loadState(ctx context.Context) (models.Catalog, *models.Root, error) {
	catalog, err := l.snaps.LoadCatalog(ctx)
	if err != nil {
		return models.Catalog{}, nil, fmt.Errorf("load catalog: %w", err)
	}
	root, err := l.snaps.LoadRoot(ctx, catalog)
	if err != nil {
		return models.Catalog{}, nil, fmt.Errorf("load sessions: %w", err)
	}
	return catalog, root, nil
}

func (l *Ledger) applyStats(ctx context.Context, order *models.Order) {
	if err := l.stats.ApplyOrder(ctx, order); err != nil {
		l.logger.Error(ctx, "stats update failed after commit", "order", order.ID, "error", err)
	}
}

func (l *Ledger) recordAudit(ctx context.Context, action, admin, target string) {
	if err := l.audit.Record(ctx, action, admin, target); err != nil {
		l.logger.Error(ctx, "audit record failed", "action", action, "error", err)
	}
}

// PlaceOrUpdate handles an order intent from the chat path: it sets (not
// increments) the quantity of one item on the user's order in the current
// session, creating the all-items-zero order on first contact.
//
// The stock check compares the requested quantity against the remaining
// stock excluding this user's own prior reservation of the item, since the
// call overwrites that reservation. Over-quantity requests are rejected
// hard with ErrInsufficientStock; nothing is mutated on any failure.
func (l *Ledger) PlaceOrUpdate(ctx context.Context, userID, displayName, item string, quantity int) (*models.Order, error) {
	if quantity < 0 {
		return nil, common.ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	catalog, root, err := l.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if !catalog.Has(item) {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownItem, item)
	}

	session := root.CurrentSession()
	if session == nil {
		return nil, common.ErrNoActiveSession
	}
	if !session.Open {
		return nil, common.ErrSessionClosed
	}
	if session.IsLocked(userID) {
		return nil, common.ErrUserLocked
	}

	order := session.OrderByUser(userID)
	excludeID := ""
	if order != nil {
		excludeID = order.ID
	}
	available := remainingExcluding(session, catalog, excludeID)[item]
	if quantity > available {
		return nil, fmt.Errorf("%w: only %d %s available", common.ErrInsufficientStock, available, item)
	}

	if order == nil {
		order = models.NewOrder(userID, displayName, catalog)
		session.Orders = append(session.Orders, order)
	}
	order.SetItem(item, quantity, catalog)

	if err := l.snaps.SaveRoot(ctx, root); err != nil {
		return nil, fmt.Errorf("save sessions: %w", err)
	}
	l.applyStats(ctx, order)
	return order, nil
}

// AdminSetItems overwrites an order's quantities from the web edit form.
// Unlike the chat path it never rejects an over-request: each quantity is
// clamped to the stock still available once every other order's
// reservations are counted. The returned change list backs the audit entry.
func (l *Ledger) AdminSetItems(ctx context.Context, sessionName, orderID string, requested map[string]int, admin string) ([]ItemChange, *models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	catalog, root, err := l.loadState(ctx)
	if err != nil {
		return nil, nil, err
	}
	session, ok := root.Sessions[sessionName]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrSessionNotFound, sessionName)
	}
	order := session.OrderByID(orderID)
	if order == nil {
		return nil, nil, fmt.Errorf("%w: %s", common.ErrOrderNotFound, orderID)
	}

	budget := remainingExcluding(session, catalog, order.ID)
	var changes []ItemChange
	for _, item := range catalog.Names() {
		req := requested[item]
		if req < 0 {
			req = 0
		}
		if req > budget[item] {
			req = budget[item]
		}
		before := order.Items[item]
		if before != req {
			changes = append(changes, ItemChange{Item: item, Before: before, After: req})
		}
		order.Items[item] = req
	}
	order.Recalculate(catalog)

	if err := l.snaps.SaveRoot(ctx, root); err != nil {
		return nil, nil, fmt.Errorf("save sessions: %w", err)
	}
	l.applyStats(ctx, order)
	l.recordAudit(ctx, models.AuditEditOrder, admin,
		fmt.Sprintf("%s/%s (%s): %d changes", sessionName, orderID, order.DisplayName, len(changes)))
	return changes, order, nil
}

// DeleteOrder removes an order from a session and returns the freed
// quantities. Reports ErrOrderNotFound rather than silently succeeding
// when the order does not exist.
func (l *Ledger) DeleteOrder(ctx context.Context, sessionName, orderID, admin string) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, root, err := l.loadState(ctx)
	if err != nil {
		return nil, err
	}
	session, ok := root.Sessions[sessionName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrSessionNotFound, sessionName)
	}
	order, ok := session.RemoveOrder(orderID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrOrderNotFound, orderID)
	}

	if err := l.snaps.SaveRoot(ctx, root); err != nil {
		return nil, fmt.Errorf("save sessions: %w", err)
	}

	freed := map[string]int{}
	for item, qty := range order.Items {
		if qty > 0 {
			freed[item] = qty
		}
	}
	if err := l.stats.RemoveOrder(ctx, order.UserID, order.ID); err != nil {
		l.logger.Error(ctx, "stats rollback failed after delete", "order", order.ID, "error", err)
	}
	l.recordAudit(ctx, models.AuditDeleteOrder, admin,
		fmt.Sprintf("%s/%s (%s)", sessionName, orderID, order.DisplayName))
	return freed, nil
}

// OpenSession closes the current session if any, creates the next
// sequentially named session open and empty, and marks it current.
func (l *Ledger) OpenSession(ctx context.Context, admin string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, root, err := l.loadState(ctx)
	if err != nil {
		return "", err
	}
	if current := root.CurrentSession(); current != nil {
		current.Open = false
	}

	name := root.NextName(l.prefix)
	root.Sessions[name] = models.NewSession(name)
	root.Current = name

	if err := l.snaps.SaveRoot(ctx, root); err != nil {
		return "", fmt.Errorf("save sessions: %w", err)
	}
	l.recordAudit(ctx, models.AuditOpenSession, admin, name)
	l.logger.Info(ctx, "session opened", "name", name, "admin", admin)
	return name, nil
}

// CloseSession marks the current session closed and clears the current
// pointer. No-op returning "" when no session is current.
func (l *Ledger) CloseSession(ctx context.Context, admin string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, root, err := l.loadState(ctx)
	if err != nil {
		return "", err
	}
	current := root.CurrentSession()
	if current == nil {
		return "", nil
	}

	current.Open = false
	root.Current = ""

	if err := l.snaps.SaveRoot(ctx, root); err != nil {
		return "", fmt.Errorf("save sessions: %w", err)
	}
	l.recordAudit(ctx, models.AuditCloseSession, admin, current.Name)
	l.logger.Info(ctx, "session closed", "name", current.Name, "admin", admin)
	return current.Name, nil
}

// DeleteSession removes a session entirely, cascading its orders. If it
// was current, the current pointer is cleared.
func (l *Ledger) DeleteSession(ctx context.Context, name, admin string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, root, err := l.loadState(ctx)
	if err != nil {
		return err
	}
	if _, ok := root.Sessions[name]; !ok {
		return fmt.Errorf("%w: %s", common.ErrSessionNotFound, name)
	}

	delete(root.Sessions, name)
	if root.Current == name {
		root.Current = ""
	}

	if err := l.snaps.SaveRoot(ctx, root); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	l.recordAudit(ctx, models.AuditDeleteSession, admin, name)
	return nil
}

// LockUser locks a user out of one session. Idempotent.
func (l *Ledger) LockUser(ctx context.Context, sessionName, userID, admin string) error {
	return l.setLocked(ctx, sessionName, userID, admin, true)
}

// UnlockUser restores a user's access to one session. Idempotent.
func (l *Ledger) UnlockUser(ctx context.Context, sessionName, userID, admin string) error {
	return l.setLocked(ctx, sessionName, userID, admin, false)
}

func (l *Ledger) setLocked(ctx context.Context, sessionName, userID, admin string, locked bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, root, err := l.loadState(ctx)
	if err != nil {
		return err
	}
	session, ok := root.Sessions[sessionName]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrSessionNotFound, sessionName)
	}

	action := models.AuditUnlockUser
	if locked {
		session.Lock(userID)
		action = models.AuditLockUser
	} else {
		session.Unlock(userID)
	}

	if err := l.snaps.SaveRoot(ctx, root); err != nil {
		return fmt.Errorf("save sessions: %w", err)
	}
	l.recordAudit(ctx, action, admin, fmt.Sprintf("%s/%s", sessionName, userID))
	return nil
}
