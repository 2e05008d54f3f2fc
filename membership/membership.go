// Package membership defines the Membership entity (the principal→team
// relationship), the team role order, and the membership store interface.
package membership

import (
	"errors"
	"time"

	"github.com/xraph/bastion/id"
)

// Store sentinels. The resolver distinguishes "not a member" (ErrNotFound)
// from a failed lookup, so backends must return ErrNotFound and nothing
// else when the row is simply absent.
var (
	// ErrNotFound is returned when no membership exists for a
	// (principal, team) pair.
	ErrNotFound = errors.New("membership: not found")

	// ErrDuplicate is returned when a membership already exists for a
	// (principal, team) pair. At most one membership per pair.
	ErrDuplicate = errors.New("membership: already exists")
)

// Role is a team-scoped membership role. Roles form a strict total order
// (viewer < developer < admin); there is no notion of independent
// capabilities per role, a higher role always implies every lower one.
type Role string

// The three membership roles, lowest to highest.
const (
	RoleViewer    Role = "viewer"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

// roleRank is the explicit order table. Comparison goes through this map
// rather than declaration order so the order is data, not syntax.
var roleRank = map[Role]int{
	RoleViewer:    1,
	RoleDeveloper: 2,
	RoleAdmin:     3,
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the numeric position of r in the role order, or 0 for an
// unknown role.
func (r Role) Rank() int {
	return roleRank[r]
}

// AtLeast reports whether r is equal to or higher than want in the role
// order. It is reflexive and transitive. An unknown role on either side
// never satisfies the comparison.
func (r Role) AtLeast(want Role) bool {
	have, ok := roleRank[r]
	if !ok {
		return false
	}
	min, ok := roleRank[want]
	if !ok {
		return false
	}
	return have >= min
}

// Membership binds a principal to a team with a role.
// Invariant: at most one membership per (principal, team) pair.
type Membership struct {
	ID          id.MembershipID `json:"id" db:"id"`
	TeamID      id.TeamID       `json:"team_id" db:"team_id"`
	PrincipalID string          `json:"principal_id" db:"principal_id"`
	Role        Role            `json:"role" db:"role"`
	GrantedBy   string          `json:"granted_by,omitempty" db:"granted_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing memberships.
type ListFilter struct {
	TeamID      *id.TeamID `json:"team_id,omitempty"`
	PrincipalID string     `json:"principal_id,omitempty"`
	Role        Role       `json:"role,omitempty"`
	Limit       int        `json:"limit,omitempty"`
	Offset      int        `json:"offset,omitempty"`
}
