// Package plugin defines the plugin system for Bastion.
// Plugins are notified of lifecycle events (decision made, member added,
// project created, etc.) and can react: logging, metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/team"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Decision lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeDecision is called before a decision procedure is evaluated.
// The cap parameter is *bastion.Capability (passed as any to avoid import cycle).
type BeforeDecision interface {
	OnBeforeDecision(ctx context.Context, cap any) error
}

// AfterDecision is called after a decision procedure completes.
// The cap parameter is *bastion.Capability; verdict is *bastion.Verdict.
type AfterDecision interface {
	OnAfterDecision(ctx context.Context, cap, verdict any) error
}

// ──────────────────────────────────────────────────
// Team lifecycle hooks
// ──────────────────────────────────────────────────

// TeamCreated is called after a team is created.
type TeamCreated interface {
	OnTeamCreated(ctx context.Context, t *team.Team) error
}

// TeamDeleted is called after a team is deleted.
type TeamDeleted interface {
	OnTeamDeleted(ctx context.Context, teamID id.TeamID) error
}

// ──────────────────────────────────────────────────
// Membership lifecycle hooks
// ──────────────────────────────────────────────────

// MemberAdded is called after a principal is added to a team.
type MemberAdded interface {
	OnMemberAdded(ctx context.Context, m *membership.Membership) error
}

// MemberRoleChanged is called after a membership role is changed.
type MemberRoleChanged interface {
	OnMemberRoleChanged(ctx context.Context, m *membership.Membership) error
}

// MemberRemoved is called after a principal is removed from a team.
type MemberRemoved interface {
	OnMemberRemoved(ctx context.Context, teamID id.TeamID, principalID string) error
}

// ──────────────────────────────────────────────────
// Project lifecycle hooks
// ──────────────────────────────────────────────────

// ProjectCreated is called after a project is registered.
type ProjectCreated interface {
	OnProjectCreated(ctx context.Context, p *project.Project) error
}

// ProjectDeleted is called after a project is deleted.
type ProjectDeleted interface {
	OnProjectDeleted(ctx context.Context, projectID id.ProjectID) error
}

// ──────────────────────────────────────────────────
// Environment lifecycle hooks
// ──────────────────────────────────────────────────

// EnvironmentCreated is called after an environment is registered.
type EnvironmentCreated interface {
	OnEnvironmentCreated(ctx context.Context, e *environment.Environment) error
}

// EnvironmentDeleted is called after an environment is deleted.
type EnvironmentDeleted interface {
	OnEnvironmentDeleted(ctx context.Context, envID id.EnvironmentID) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
