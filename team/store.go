package team

import (
	"context"

	"github.com/xraph/bastion/id"
)

// Store defines persistence operations for teams.
type Store interface {
	// CreateTeam persists a new team.
	CreateTeam(ctx context.Context, t *Team) error

	// GetTeam retrieves a team by ID. Returns ErrNotFound if absent.
	GetTeam(ctx context.Context, teamID id.TeamID) (*Team, error)

	// UpdateTeam persists changes to a team.
	UpdateTeam(ctx context.Context, t *Team) error

	// DeleteTeam removes a team by ID.
	DeleteTeam(ctx context.Context, teamID id.TeamID) error

	// ListTeams returns teams matching the filter.
	ListTeams(ctx context.Context, filter *ListFilter) ([]*Team, error)

	// CountTeams returns the number of teams matching the filter.
	CountTeams(ctx context.Context, filter *ListFilter) (int64, error)
}
