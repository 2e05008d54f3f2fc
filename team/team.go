// Package team defines the Team entity and its store interface.
package team

import (
	"errors"
	"time"

	"github.com/xraph/bastion/id"
)

// ErrNotFound is returned when a team does not exist.
var ErrNotFound = errors.New("team: not found")

// Team is a tenant grouping. It owns zero or more projects and carries a
// set of memberships (see the membership package).
type Team struct {
	ID        id.TeamID      `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Slug      string         `json:"slug" db:"slug"`
	Metadata  map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing teams.
type ListFilter struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
