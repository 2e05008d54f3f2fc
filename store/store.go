// Package store defines the aggregate persistence interface. Each entity
// (team, membership, project, environment, decisionlog) defines its own
// store interface. The composite Store composes them all.
// Backends: Postgres, SQLite, MongoDB, and Memory.
package store

import (
	"context"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/team"
)

// Store is the aggregate persistence interface. A single backend
// (postgres, sqlite, mongo, memory) implements all of the entity stores.
//
// The authorization path only ever issues the three point-lookups
// GetMembership, GetProjectOwnership, and GetEnvironmentOwnership; the
// rest of the interface serves the management surface.
type Store interface {
	team.Store
	membership.Store
	project.Store
	environment.Store
	decisionlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
