package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ordrebog/ordrebog/internal/logging"
	"github.com/ordrebog/ordrebog/internal/models"
	"github.com/ordrebog/ordrebog/internal/server/repositories/snapshots"
)

// UserStatsView is the lifetime summary exposed to the front ends.
type UserStatsView struct {
	TotalSpent    int            `json:"total_spent"`
	TotalItems    int            `json:"total_items"`
	Items         map[string]int `json:"items"`
	FavoriteItem  string         `json:"favorite_item"`
	FavoriteCount int            `json:"favorite_count"`
}

// Stats maintains the per-user lifetime aggregates. Updates are applied as
// deltas against the per-order memo (see models.UserStats), strictly after
// the corresponding order snapshot has been committed by the ledger.
type Stats struct {
	mu      sync.Mutex
	snaps   *snapshots.Gateway
	audit   *Audit
	exclude []string
	logger  logging.Logger
}

// NewStats constructs the statistics service. exclude lists item names
// skipped when computing a user's favorite item.
func NewStats(snaps *snapshots.Gateway, audit *Audit, exclude []string, logger logging.Logger) *Stats {
	return &Stats{
		snaps:   snaps,
		audit:   audit,
		exclude: exclude,
		logger:  logger.With("module", "stats"),
	}
}

// ApplyOrder folds one committed order mutation into the user's lifetime
// aggregates. Must be called exactly once per ledger commit.
func (s *Stats) ApplyOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.snaps.LoadStats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	book.User(order.UserID).ApplyOrder(order)
	if err := s.snaps.SaveStats(ctx, book); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// RemoveOrder rolls a deleted order's contribution back out of the user's
// aggregates.
func (s *Stats) RemoveOrder(ctx context.Context, userID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.snaps.LoadStats(ctx)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	book.User(userID).RemoveOrder(orderID)
	if err := s.snaps.SaveStats(ctx, book); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return nil
}

// View returns the lifetime summary for a user.
func (s *Stats) View(ctx context.Context, userID string) (*UserStatsView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.snaps.LoadStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	stats := book.User(userID)
	favorite, count := stats.TopItem(s.exclude)

	items := make(map[string]int, len(stats.Items))
	for item, n := range stats.Items {
		items[item] = n
	}
	return &UserStatsView{
		TotalSpent:    stats.TotalSpent,
		TotalItems:    stats.TotalItems,
		Items:         items,
		FavoriteItem:  favorite,
		FavoriteCount: count,
	}, nil
}

// Reset wipes a user's lifetime aggregates. Admin-only; recorded in the
// audit trail.
func (s *Stats) Reset(ctx context.Context, userID, admin string) error {
	s.mu.Lock()

	book, err := s.snaps.LoadStats(ctx)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("load stats: %w", err)
	}
	delete(book, userID)
	if err := s.snaps.SaveStats(ctx, book); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save stats: %w", err)
	}
	s.mu.Unlock()

	if err := s.audit.Record(ctx, models.AuditResetStats, admin, userID); err != nil {
		s.logger.Error(ctx, "audit record failed", "action", models.AuditResetStats, "error", err)
	}
	return nil
}
