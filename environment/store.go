package environment

import (
	"context"

	"github.com/xraph/bastion/id"
)

// Store defines persistence operations for environments.
type Store interface {
	// CreateEnvironment persists a new environment.
	CreateEnvironment(ctx context.Context, e *Environment) error

	// GetEnvironment retrieves an environment by ID. Returns ErrNotFound
	// if absent.
	GetEnvironment(ctx context.Context, envID id.EnvironmentID) (*Environment, error)

	// GetEnvironmentOwnership retrieves the ownership projection for an
	// environment. Returns ErrNotFound if the environment does not exist.
	GetEnvironmentOwnership(ctx context.Context, envID id.EnvironmentID) (*Ownership, error)

	// DeleteEnvironment removes an environment by ID.
	DeleteEnvironment(ctx context.Context, envID id.EnvironmentID) error

	// ListEnvironments returns environments matching the filter.
	ListEnvironments(ctx context.Context, filter *ListFilter) ([]*Environment, error)

	// CountEnvironments returns the number of environments matching the filter.
	CountEnvironments(ctx context.Context, filter *ListFilter) (int64, error)
}
