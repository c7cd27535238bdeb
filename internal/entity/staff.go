package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Role grants access to parts of the dashboard.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleWaiter  Role = "waiter"
	RoleKitchen Role = "kitchen"
	RoleCashier Role = "cashier"
)

// DefaultRole applies to profiles without a role row.
const DefaultRole = RoleWaiter

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleWaiter, RoleKitchen, RoleCashier:
		return true
	}
	return false
}

// StaffProfile is a staff account.
type StaffProfile struct {
	bun.BaseModel `bun:"table:staff_profiles"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// StaffRole assigns a role to a profile.
type StaffRole struct {
	bun.BaseModel `bun:"table:staff_roles"`

	UserID string `bun:"user_id,pk"`
	Role   Role   `bun:"role,notnull"`
}

// StaffMember is a profile merged with its role.
type StaffMember struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
