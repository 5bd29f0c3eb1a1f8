package models

import (
	"time"
)

// Role tags the privileges of a moderator account
type Role string

const (
	RoleModerator Role = "moderator"
	RoleSREC      Role = "SREC"
)

// ValidRoles defines allowed moderator roles
var ValidRoles = map[Role]bool{
	RoleModerator: true,
	RoleSREC:      true,
}

// Moderator represents a privileged account
type Moderator struct {
	ID           string    `json:"_id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"typeOfUser" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// CanApprove reports whether the account may transition article status
func (m *Moderator) CanApprove() bool {
	return m.Role == RoleModerator
}
