package entities

import "time"

// User account statuses as stored in the users table.
const (
	StatusActive         = "active"
	StatusInactive       = "inactive"
	StatusOverdue        = "overdue"
	StatusPendingPayment = "pending_payment"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Company      string    `json:"company"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Plan         string    `json:"plan"`
	Status       string    `json:"status"`
	IsAdmin      bool      `json:"is_admin"`
	JoinedAt     time.Time `json:"joined_at"`
}

// CanQuery reports whether the account may run AI queries at all. Plan and
// status are mutated by billing/admin flows only; ledger and policy code just
// read them.
func (u *User) CanQuery() bool {
	return u.Status == StatusActive
}
