package models

import "time"

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Rank orders roles; unknown roles rank below staff.
func (r Role) Rank() int {
	switch r {
	case RoleStaff:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// Allows reports whether r grants at least the access of min.
func (r Role) Allows(min Role) bool {
	return r.Rank() >= min.Rank() && r.Rank() > 0
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Rank() > 0
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is the authenticated caller as resolved by the identity provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
