// Package project defines the Project entity, its ownership projection,
// and its store interface.
package project

import (
	"errors"
	"time"

	"github.com/xraph/bastion/id"
)

// ErrNotFound is returned when a project does not exist.
var ErrNotFound = errors.New("project: not found")

// Project is a unit of work owned by a principal and optionally attributed
// to a team. Both OwnerID and TeamID may be set at the same time: the owner
// is the creator, the team grants delegated access. Ownership always grants
// access regardless of team state.
type Project struct {
	ID        id.ProjectID   `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	OwnerID   string         `json:"owner_id" db:"owner_id"`
	TeamID    *id.TeamID     `json:"team_id,omitempty" db:"team_id"`
	Metadata  map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Ownership is the narrow projection the authorization path reads. Keeping
// it separate from the full record keeps decisions cheap and stops the
// resolver from coupling to unrelated project fields.
type Ownership struct {
	OwnerID string     `json:"owner_id" db:"owner_id"`
	TeamID  *id.TeamID `json:"team_id,omitempty" db:"team_id"`
}

// ListFilter contains filters for listing projects.
type ListFilter struct {
	OwnerID string     `json:"owner_id,omitempty"`
	TeamID  *id.TeamID `json:"team_id,omitempty"`
	Search  string     `json:"search,omitempty"`
	Limit   int        `json:"limit,omitempty"`
	Offset  int        `json:"offset,omitempty"`
}
