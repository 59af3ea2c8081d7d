package models

import "time"

// Audit actions recorded for admin-originated changes.
const (
	AuditOpenSession   = "open_session"
	AuditCloseSession  = "close_session"
	AuditDeleteSession = "delete_session"
	AuditEditOrder     = "edit_order"
	AuditDeleteOrder   = "delete_order"
	AuditLockUser      = "lock_user"
	AuditUnlockUser    = "unlock_user"
	AuditBlockUser     = "block_user"
	AuditUnblockUser   = "unblock_user"
	AuditResetStats    = "reset_stats"
)

// AuditEntry is one record in the append-only admin action trail. Entries
// are ordered by insertion and never mutated or deleted.
type AuditEntry struct {
	Time   time.Time `json:"time"`
	Action string    `json:"action"`
	Admin  string    `json:"admin"`
	Target string    `json:"target"`
}
