package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/team"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeDecisionEntry struct {
	name string
	hook BeforeDecision
}
type afterDecisionEntry struct {
	name string
	hook AfterDecision
}
type teamCreatedEntry struct {
	name string
	hook TeamCreated
}
type teamDeletedEntry struct {
	name string
	hook TeamDeleted
}
type memberAddedEntry struct {
	name string
	hook MemberAdded
}
type memberRoleChangedEntry struct {
	name string
	hook MemberRoleChanged
}
type memberRemovedEntry struct {
	name string
	hook MemberRemoved
}
type projectCreatedEntry struct {
	name string
	hook ProjectCreated
}
type projectDeletedEntry struct {
	name string
	hook ProjectDeleted
}
type environmentCreatedEntry struct {
	name string
	hook EnvironmentCreated
}
type environmentDeletedEntry struct {
	name string
	hook EnvironmentDeleted
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeDecision     []beforeDecisionEntry
	afterDecision      []afterDecisionEntry
	teamCreated        []teamCreatedEntry
	teamDeleted        []teamDeletedEntry
	memberAdded        []memberAddedEntry
	memberRoleChanged  []memberRoleChangedEntry
	memberRemoved      []memberRemovedEntry
	projectCreated     []projectCreatedEntry
	projectDeleted     []projectDeletedEntry
	environmentCreated []environmentCreatedEntry
	environmentDeleted []environmentDeletedEntry
	shutdown           []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeDecision); ok {
		r.beforeDecision = append(r.beforeDecision, beforeDecisionEntry{name, h})
	}
	if h, ok := p.(AfterDecision); ok {
		r.afterDecision = append(r.afterDecision, afterDecisionEntry{name, h})
	}
	if h, ok := p.(TeamCreated); ok {
		r.teamCreated = append(r.teamCreated, teamCreatedEntry{name, h})
	}
	if h, ok := p.(TeamDeleted); ok {
		r.teamDeleted = append(r.teamDeleted, teamDeletedEntry{name, h})
	}
	if h, ok := p.(MemberAdded); ok {
		r.memberAdded = append(r.memberAdded, memberAddedEntry{name, h})
	}
	if h, ok := p.(MemberRoleChanged); ok {
		r.memberRoleChanged = append(r.memberRoleChanged, memberRoleChangedEntry{name, h})
	}
	if h, ok := p.(MemberRemoved); ok {
		r.memberRemoved = append(r.memberRemoved, memberRemovedEntry{name, h})
	}
	if h, ok := p.(ProjectCreated); ok {
		r.projectCreated = append(r.projectCreated, projectCreatedEntry{name, h})
	}
	if h, ok := p.(ProjectDeleted); ok {
		r.projectDeleted = append(r.projectDeleted, projectDeletedEntry{name, h})
	}
	if h, ok := p.(EnvironmentCreated); ok {
		r.environmentCreated = append(r.environmentCreated, environmentCreatedEntry{name, h})
	}
	if h, ok := p.(EnvironmentDeleted); ok {
		r.environmentDeleted = append(r.environmentDeleted, environmentDeletedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Decision event emitters
// ──────────────────────────────────────────────────

// EmitBeforeDecision notifies all plugins that implement BeforeDecision.
func (r *Registry) EmitBeforeDecision(ctx context.Context, cap any) {
	for _, e := range r.beforeDecision {
		if err := e.hook.OnBeforeDecision(ctx, cap); err != nil {
			r.logHookError("OnBeforeDecision", e.name, err)
		}
	}
}

// EmitAfterDecision notifies all plugins that implement AfterDecision.
func (r *Registry) EmitAfterDecision(ctx context.Context, cap, verdict any) {
	for _, e := range r.afterDecision {
		if err := e.hook.OnAfterDecision(ctx, cap, verdict); err != nil {
			r.logHookError("OnAfterDecision", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Team event emitters
// ──────────────────────────────────────────────────

// EmitTeamCreated notifies all plugins that implement TeamCreated.
func (r *Registry) EmitTeamCreated(ctx context.Context, t *team.Team) {
	for _, e := range r.teamCreated {
		if err := e.hook.OnTeamCreated(ctx, t); err != nil {
			r.logHookError("OnTeamCreated", e.name, err)
		}
	}
}

// EmitTeamDeleted notifies all plugins that implement TeamDeleted.
func (r *Registry) EmitTeamDeleted(ctx context.Context, teamID id.TeamID) {
	for _, e := range r.teamDeleted {
		if err := e.hook.OnTeamDeleted(ctx, teamID); err != nil {
			r.logHookError("OnTeamDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Membership event emitters
// ──────────────────────────────────────────────────

// EmitMemberAdded notifies all plugins that implement MemberAdded.
func (r *Registry) EmitMemberAdded(ctx context.Context, m *membership.Membership) {
	for _, e := range r.memberAdded {
		if err := e.hook.OnMemberAdded(ctx, m); err != nil {
			r.logHookError("OnMemberAdded", e.name, err)
		}
	}
}

// EmitMemberRoleChanged notifies all plugins that implement MemberRoleChanged.
func (r *Registry) EmitMemberRoleChanged(ctx context.Context, m *membership.Membership) {
	for _, e := range r.memberRoleChanged {
		if err := e.hook.OnMemberRoleChanged(ctx, m); err != nil {
			r.logHookError("OnMemberRoleChanged", e.name, err)
		}
	}
}

// EmitMemberRemoved notifies all plugins that implement MemberRemoved.
func (r *Registry) EmitMemberRemoved(ctx context.Context, teamID id.TeamID, principalID string) {
	for _, e := range r.memberRemoved {
		if err := e.hook.OnMemberRemoved(ctx, teamID, principalID); err != nil {
			r.logHookError("OnMemberRemoved", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Project event emitters
// ──────────────────────────────────────────────────

// EmitProjectCreated notifies all plugins that implement ProjectCreated.
func (r *Registry) EmitProjectCreated(ctx context.Context, p *project.Project) {
	for _, e := range r.projectCreated {
		if err := e.hook.OnProjectCreated(ctx, p); err != nil {
			r.logHookError("OnProjectCreated", e.name, err)
		}
	}
}

// EmitProjectDeleted notifies all plugins that implement ProjectDeleted.
func (r *Registry) EmitProjectDeleted(ctx context.Context, projectID id.ProjectID) {
	for _, e := range r.projectDeleted {
		if err := e.hook.OnProjectDeleted(ctx, projectID); err != nil {
			r.logHookError("OnProjectDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Environment event emitters
// ──────────────────────────────────────────────────

// EmitEnvironmentCreated notifies all plugins that implement EnvironmentCreated.
func (r *Registry) EmitEnvironmentCreated(ctx context.Context, env *environment.Environment) {
	for _, e := range r.environmentCreated {
		if err := e.hook.OnEnvironmentCreated(ctx, env); err != nil {
			r.logHookError("OnEnvironmentCreated", e.name, err)
		}
	}
}

// EmitEnvironmentDeleted notifies all plugins that implement EnvironmentDeleted.
func (r *Registry) EmitEnvironmentDeleted(ctx context.Context, envID id.EnvironmentID) {
	for _, e := range r.environmentDeleted {
		if err := e.hook.OnEnvironmentDeleted(ctx, envID); err != nil {
			r.logHookError("OnEnvironmentDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated; they must not block the pipeline.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
