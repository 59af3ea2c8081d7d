package models

// OrderMemo is the last-known state of an order inside a user's lifetime
// statistics. It is the memo that makes repeated edits delta-safe: the next
// mutation is applied as (new state - memo), never by re-summing sessions.
type OrderMemo struct {
	Total int            `json:"total"`
	Items map[string]int `json:"items"`
}

// UserStats is a cross-session, cross-round aggregate for one user. It is
// never reset except by an explicit admin reset.
type UserStats struct {
	TotalSpent int                  `json:"total_spent"`
	TotalItems int                  `json:"total_items"`
	Items      map[string]int       `json:"items"`
	Orders     map[string]OrderMemo `json:"orders"`
}

// NewUserStats returns a zeroed statistics record.
func NewUserStats() *UserStats {
	return &UserStats{
		Items:  map[string]int{},
		Orders: map[string]OrderMemo{},
	}
}

// normalize repairs nil maps on records loaded from storage.
func (s *UserStats) normalize() {
	if s.Items == nil {
		s.Items = map[string]int{}
	}
	if s.Orders == nil {
		s.Orders = map[string]OrderMemo{}
	}
}

// ApplyOrder folds an order mutation into the lifetime aggregates by the
// difference between the order's new state and its memo. Editing an order
// N times therefore contributes exactly its final state, not the sum of
// intermediate states.
//
// Item counters that a delta would drive negative are clamped at zero and
// the zeroed key is removed.
func (s *UserStats) ApplyOrder(o *Order) {
	s.normalize()
	previous := s.Orders[o.ID]

	for item, qty := range o.Items {
		delta := qty - previous.Items[item]
		s.addItem(item, delta)
		s.TotalItems += delta
	}
	// Items present only in the memo (catalog shrank between rounds).
	for item, prevQty := range previous.Items {
		if _, ok := o.Items[item]; !ok {
			s.addItem(item, -prevQty)
			s.TotalItems -= prevQty
		}
	}
	if s.TotalItems < 0 {
		s.TotalItems = 0
	}

	s.TotalSpent += o.Total - previous.Total
	if s.TotalSpent < 0 {
		s.TotalSpent = 0
	}

	s.Orders[o.ID] = OrderMemo{Total: o.Total, Items: o.ItemsCopy()}
}

// RemoveOrder rolls an order's memoized contribution back out of the
// aggregates and drops the memo. Used when an admin deletes an order.
func (s *UserStats) RemoveOrder(orderID string) {
	s.normalize()
	previous, ok := s.Orders[orderID]
	if !ok {
		return
	}
	for item, qty := range previous.Items {
		s.addItem(item, -qty)
		s.TotalItems -= qty
	}
	if s.TotalItems < 0 {
		s.TotalItems = 0
	}
	s.TotalSpent -= previous.Total
	if s.TotalSpent < 0 {
		s.TotalSpent = 0
	}
	delete(s.Orders, orderID)
}

// addItem adjusts one item counter, clamping at zero and removing the key
// when it reaches zero.
func (s *UserStats) addItem(item string, delta int) {
	if delta == 0 {
		return
	}
	n := s.Items[item] + delta
	if n <= 0 {
		delete(s.Items, item)
		return
	}
	s.Items[item] = n
}

// TopItem returns the most frequently ordered item and its count, skipping
// the excluded names. Ties break alphabetically for stable output. Returns
// ("", 0) when nothing qualifies.
func (s *UserStats) TopItem(exclude []string) (string, int) {
	excluded := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		excluded[e] = struct{}{}
	}

	best, bestCount := "", 0
	for item, count := range s.Items {
		if _, skip := excluded[item]; skip || count <= 0 {
			continue
		}
		if count > bestCount || (count == bestCount && (best == "" || item < best)) {
			best, bestCount = item, count
		}
	}
	return best, bestCount
}

// StatsBook maps user IDs to their lifetime statistics.
type StatsBook map[string]*UserStats

// User returns the stats record for userID, creating it if absent.
func (b StatsBook) User(userID string) *UserStats {
	s, ok := b[userID]
	if !ok {
		s = NewUserStats()
		b[userID] = s
		return s
	}
	s.normalize()
	return s
}
