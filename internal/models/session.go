package models

import (
	"fmt"
	"slices"
)

// Session is a bounded ordering window with its own open/closed state, one
// order per user, and a list of users locked out of this session.
type Session struct {
	Name        string   `json:"name"`
	Open        bool     `json:"open"`
	Orders      []*Order `json:"orders"`
	LockedUsers []string `json:"locked_users"`
}

// NewSession creates an open session with no orders and an empty lock list.
func NewSession(name string) *Session {
	return &Session{
		Name:        name,
		Open:        true,
		Orders:      []*Order{},
		LockedUsers: []string{},
	}
}

// OrderByUser returns the user's order within the session, or nil.
// At most one order per user exists; the ledger enforces this by always
// going through this lookup before creating a new order.
func (s *Session) OrderByUser(userID string) *Order {
	for _, o := range s.Orders {
		if o.UserID == userID {
			return o
		}
	}
	return nil
}

// OrderByID returns the order with the given ID, or nil.
func (s *Session) OrderByID(orderID string) *Order {
	for _, o := range s.Orders {
		if o.ID == orderID {
			return o
		}
	}
	return nil
}

// RemoveOrder deletes the order with the given ID and returns it.
// The second result is false if no such order exists.
func (s *Session) RemoveOrder(orderID string) (*Order, bool) {
	for i, o := range s.Orders {
		if o.ID == orderID {
			s.Orders = append(s.Orders[:i], s.Orders[i+1:]...)
			return o, true
		}
	}
	return nil, false
}

// IsLocked reports whether the user is locked out of this session.
func (s *Session) IsLocked(userID string) bool {
	return slices.Contains(s.LockedUsers, userID)
}

// Lock adds the user to the session's lock list. Idempotent.
func (s *Session) Lock(userID string) {
	if !s.IsLocked(userID) {
		s.LockedUsers = append(s.LockedUsers, userID)
	}
}

// Unlock removes the user from the session's lock list. Idempotent.
func (s *Session) Unlock(userID string) {
	s.LockedUsers = slices.DeleteFunc(s.LockedUsers, func(id string) bool {
		return id == userID
	})
}

// Total returns the sum of all order totals in the session.
func (s *Session) Total() int {
	total := 0
	for _, o := range s.Orders {
		total += o.Total
	}
	return total
}

// Root is the ledger root: the full session map plus the name of the single
// session currently accepting new order intents ("" when none is current).
// Exactly one root exists per deployment; it is mutated exclusively through
// load-modify-save snapshot transactions under the ledger mutex.
type Root struct {
	Current  string              `json:"current"`
	Sessions map[string]*Session `json:"sessions"`
}

// NewRoot returns an empty ledger root.
func NewRoot() *Root {
	return &Root{Sessions: map[string]*Session{}}
}

// CurrentSession returns the session accepting new order intents, or nil.
// A session that is open but not current accepts nothing from the chat
// path; the Current pointer, not the Open flag, decides.
func (r *Root) CurrentSession() *Session {
	if r.Current == "" {
		return nil
	}
	return r.Sessions[r.Current]
}

// NextName returns prefix plus the smallest unused positive integer.
func (r *Root) NextName(prefix string) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if _, exists := r.Sessions[name]; !exists {
			return name
		}
	}
}

// Normalize repairs structural gaps in a root loaded from storage: nil maps
// and slices, session names, a dangling Current pointer, and order item maps
// that predate catalog additions.
func (r *Root) Normalize(catalog Catalog) {
	if r.Sessions == nil {
		r.Sessions = map[string]*Session{}
	}
	for name, s := range r.Sessions {
		s.Name = name
		if s.Orders == nil {
			s.Orders = []*Order{}
		}
		if s.LockedUsers == nil {
			s.LockedUsers = []string{}
		}
		for _, o := range s.Orders {
			o.Normalize(catalog)
		}
	}
	if r.Current != "" {
		if _, ok := r.Sessions[r.Current]; !ok {
			r.Current = ""
		}
	}
}
