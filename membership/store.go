package membership

import (
	"context"

	"github.com/xraph/bastion/id"
)

// Store defines persistence operations for memberships.
//
// GetMembership is the single read the authorization path depends on;
// it must always hit the backing store, never a cache, so that a role
// downgrade or removal takes effect on the very next decision.
type Store interface {
	// CreateMembership persists a new membership. Returns ErrDuplicate
	// if the (principal, team) pair already has one.
	CreateMembership(ctx context.Context, m *Membership) error

	// GetMembership retrieves the membership for a (principal, team)
	// pair. Returns ErrNotFound if the pair has none.
	GetMembership(ctx context.Context, teamID id.TeamID, principalID string) (*Membership, error)

	// UpdateMembershipRole changes the role of an existing membership.
	// Returns ErrNotFound if the pair has none.
	UpdateMembershipRole(ctx context.Context, teamID id.TeamID, principalID string, role Role) error

	// DeleteMembership removes the membership for a (principal, team)
	// pair. Returns ErrNotFound if the pair has none.
	DeleteMembership(ctx context.Context, teamID id.TeamID, principalID string) error

	// ListMemberships returns memberships matching the filter.
	ListMemberships(ctx context.Context, filter *ListFilter) ([]*Membership, error)

	// CountMemberships returns the number of memberships matching the filter.
	CountMemberships(ctx context.Context, filter *ListFilter) (int64, error)

	// ListPrincipalMemberships returns all memberships of a principal
	// across teams.
	ListPrincipalMemberships(ctx context.Context, principalID string) ([]*Membership, error)

	// CountTeamAdmins returns the number of admin memberships on a team.
	// Used for last-admin protection.
	CountTeamAdmins(ctx context.Context, teamID id.TeamID) (int64, error)

	// DeleteMembershipsByTeam removes all memberships of a team.
	DeleteMembershipsByTeam(ctx context.Context, teamID id.TeamID) error
}
