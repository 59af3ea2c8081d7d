package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ordrebog/ordrebog/internal/common"
	"github.com/ordrebog/ordrebog/internal/models"
)

// SessionView is one session rendered for a front end, including the
// remaining stock per item so callers never recompute it themselves.
type SessionView struct {
	Name        string          `json:"name"`
	Open        bool            `json:"open"`
	Current     bool            `json:"current"`
	Orders      []*models.Order `json:"orders"`
	LockedUsers []string        `json:"locked_users"`
	Remaining   map[string]int  `json:"remaining"`
	Total       int             `json:"total"`
}

// UserOrderView is a user's own order in the current session.
type UserOrderView struct {
	SessionName string         `json:"session_name"`
	Items       map[string]int `json:"items"`
	Total       int            `json:"total"`
}

// Overview lists all session names (sorted) and the current one.
func (l *Ledger) Overview(ctx context.Context) (names []string, current string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, root, err := l.loadState(ctx)
	if err != nil {
		return nil, "", err
	}
	for name := range root.Sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, root.Current, nil
}

// SessionView renders one session with its remaining stock.
func (l *Ledger) SessionView(ctx context.Context, name string) (*SessionView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	catalog, root, err := l.loadState(ctx)
	if err != nil {
		return nil, err
	}
	session, ok := root.Sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrSessionNotFound, name)
	}
	return &SessionView{
		Name:        session.Name,
		Open:        session.Open,
		Current:     root.Current == session.Name,
		Orders:      session.Orders,
		LockedUsers: session.LockedUsers,
		Remaining:   Remaining(session, catalog),
		Total:       session.Total(),
	}, nil
}

// CurrentRemaining returns the remaining stock of the current session,
// or ErrNoActiveSession.
func (l *Ledger) CurrentRemaining(ctx context.Context) (map[string]int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	catalog, root, err := l.loadState(ctx)
	if err != nil {
		return nil, err
	}
	session := root.CurrentSession()
	if session == nil {
		return nil, common.ErrNoActiveSession
	}
	return Remaining(session, catalog), nil
}

// UserOrder returns the user's order in the current session.
// ErrOrderNotFound when the user has not ordered yet.
func (l *Ledger) UserOrder(ctx context.Context, userID string) (*UserOrderView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, root, err := l.loadState(ctx)
	if err != nil {
		return nil, err
	}
	session := root.CurrentSession()
	if session == nil {
		return nil, common.ErrNoActiveSession
	}
	order := session.OrderByUser(userID)
	if order == nil {
		return nil, common.ErrOrderNotFound
	}
	return &UserOrderView{
		SessionName: session.Name,
		Items:       order.ItemsCopy(),
		Total:       order.Total,
	}, nil
}

// Catalog returns the catalog in force.
func (l *Ledger) Catalog(ctx context.Context) (models.Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snaps.LoadCatalog(ctx)
}

// OrdersHash returns a stable hash of a session's orders. The web page
// polls it to decide when to reload; the JSON encoding is deterministic
// (map keys are sorted, order slice keeps insertion order).
func (l *Ledger) OrdersHash(ctx context.Context, name string) (string, error) {
	view, err := l.SessionView(ctx, name)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(view.Orders)
	if err != nil {
		return "", fmt.Errorf("encode orders: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
