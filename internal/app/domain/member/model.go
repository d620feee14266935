// Package member defines participant identity and role records.
package member

import (
	"math/big"
	"time"
)

// Role is a participant's privilege tier. Roles are declared in ascending
// order of privilege, but gating is done with exact-match checks rather than
// tier comparisons.
type Role string

const (
	RoleNone        Role = "none"
	RoleMember      Role = "member"
	RoleExpert      Role = "expert"
	RoleUnderwriter Role = "underwriter"
	RoleAdmin       Role = "admin"
)

// Valid reports whether the role is one of the declared tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleMember, RoleExpert, RoleUnderwriter, RoleAdmin:
		return true
	}
	return false
}

// Participant represents a pool member. Records are created implicitly on
// first role assignment; a zero staked balance and RoleNone is the absent
// state.
type Participant struct {
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	Staked    *big.Int  `json:"staked"`
	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
