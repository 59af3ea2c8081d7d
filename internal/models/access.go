package models

import (
	"slices"
	"time"
)

// AccessUser records what is known about a user across all rounds.
type AccessUser struct {
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

// AccessList tracks every user ever seen plus the globally blocked set.
// Blocking is global and front-end independent, unlike per-session locks.
type AccessList struct {
	Users   map[string]*AccessUser `json:"users"`
	Blocked []string               `json:"blocked"`
}

// NewAccessList returns an empty access list.
func NewAccessList() *AccessList {
	return &AccessList{
		Users:   map[string]*AccessUser{},
		Blocked: []string{},
	}
}

// Normalize repairs nil maps and slices on records loaded from storage.
func (a *AccessList) Normalize() {
	if a.Users == nil {
		a.Users = map[string]*AccessUser{}
	}
	if a.Blocked == nil {
		a.Blocked = []string{}
	}
}

// Seen upserts a user sighting: first contact sets FirstSeen and the
// default role, every contact refreshes DisplayName and LastSeen.
func (a *AccessList) Seen(userID, displayName string, now time.Time) {
	u, ok := a.Users[userID]
	if !ok {
		a.Users[userID] = &AccessUser{
			DisplayName: displayName,
			Role:        "member",
			FirstSeen:   now,
			LastSeen:    now,
		}
		return
	}
	u.DisplayName = displayName
	u.LastSeen = now
}

// IsBlocked reports whether the user is globally blocked.
func (a *AccessList) IsBlocked(userID string) bool {
	return slices.Contains(a.Blocked, userID)
}

// Block adds the user to the blocked set. Idempotent.
func (a *AccessList) Block(userID string) {
	if !a.IsBlocked(userID) {
		a.Blocked = append(a.Blocked, userID)
	}
}

// Unblock removes the user from the blocked set. Idempotent.
func (a *AccessList) Unblock(userID string) {
	a.Blocked = slices.DeleteFunc(a.Blocked, func(id string) bool {
		return id == userID
	})
}
