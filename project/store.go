package project

import (
	"context"

	"github.com/xraph/bastion/id"
)

// Store defines persistence operations for projects.
type Store interface {
	// CreateProject persists a new project.
	CreateProject(ctx context.Context, p *Project) error

	// GetProject retrieves a project by ID. Returns ErrNotFound if absent.
	GetProject(ctx context.Context, projectID id.ProjectID) (*Project, error)

	// GetProjectOwnership retrieves the ownership projection for a
	// project. Returns ErrNotFound if the project does not exist.
	GetProjectOwnership(ctx context.Context, projectID id.ProjectID) (*Ownership, error)

	// UpdateProject persists changes to a project.
	UpdateProject(ctx context.Context, p *Project) error

	// DeleteProject removes a project by ID.
	DeleteProject(ctx context.Context, projectID id.ProjectID) error

	// ListProjects returns projects matching the filter.
	ListProjects(ctx context.Context, filter *ListFilter) ([]*Project, error)

	// CountProjects returns the number of projects matching the filter.
	CountProjects(ctx context.Context, filter *ListFilter) (int64, error)
}
