// Package environment defines the Environment entity, its ownership
// projection, and its store interface.
package environment

import (
	"errors"
	"time"

	"github.com/xraph/bastion/id"
)

// ErrNotFound is returned when an environment does not exist.
var ErrNotFound = errors.New("environment: not found")

// Environment is a runtime instance belonging to exactly one project.
// Environments never carry their own membership list: access is always
// derived transitively through the owning project (and, if that project
// is team-attributed, through the team).
type Environment struct {
	ID        id.EnvironmentID `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	CreatorID string           `json:"creator_id" db:"creator_id"`
	ProjectID id.ProjectID     `json:"project_id" db:"project_id"`
	Metadata  map[string]any   `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// Ownership is the narrow projection the authorization path reads.
// Callers compose it with project.Ownership to walk the chain
// environment → project → team.
type Ownership struct {
	CreatorID string       `json:"creator_id" db:"creator_id"`
	ProjectID id.ProjectID `json:"project_id" db:"project_id"`
}

// ListFilter contains filters for listing environments.
type ListFilter struct {
	ProjectID *id.ProjectID `json:"project_id,omitempty"`
	CreatorID string        `json:"creator_id,omitempty"`
	Search    string        `json:"search,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
}
