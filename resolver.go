package bastion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/store"
)

// Resolver is the access decision engine. It composes the role order, the
// membership lookup, and the resource locators into the eight decision
// procedures. All procedures are pure functions of the backing data: they
// never mutate state, never cache, and every invocation re-reads the
// store so a revoked grant takes effect on the next decision.
//
// Collaborators are injected at construction and the Resolver is built
// once per process; there is no package-level instance.
type Resolver struct {
	store   store.Store
	logger  *slog.Logger
	plugins *plugin.Registry
	config  Config
	kinds   map[ResourceKind]resourceKind
}

// NewResolver creates a new Resolver with the given options.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		return nil, errors.New("bastion: store is required")
	}
	r.kinds = map[ResourceKind]resourceKind{
		KindProject:     projectKind{store: r.store},
		KindEnvironment: environmentKind{store: r.store},
	}
	return r, nil
}

// Store returns the underlying composite store.
func (r *Resolver) Store() store.Store { return r.store }

// Start readies the resolver. Decisions are stateless, so this only logs;
// it exists for symmetry with Stop in managed lifecycles.
func (r *Resolver) Start(_ context.Context) error {
	r.logger.Info("bastion: resolver started")
	return nil
}

// Stop notifies plugins of shutdown. The store's lifetime belongs to its
// owner and is not closed here.
func (r *Resolver) Stop(ctx context.Context) error {
	if r.plugins != nil {
		r.plugins.EmitShutdown(ctx)
	}
	r.logger.Info("bastion: resolver stopped")
	return nil
}

// Plugins returns the plugin registry (may be nil).
func (r *Resolver) Plugins() *plugin.Registry { return r.plugins }

// roleOf resolves the principal's role on a team. The second return is
// false when no membership exists; a store failure is reported as
// ErrLookupFailed so "not a member" and "could not determine" never
// collapse into each other.
func (r *Resolver) roleOf(ctx context.Context, principal PrincipalID, teamID id.TeamID) (membership.Role, bool, error) {
	m, err := r.store.GetMembership(ctx, teamID, string(principal))
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	return m.Role, true, nil
}

// teamExists distinguishes "no membership" from "no such team". It is only
// consulted after a membership miss, keeping the member happy path at a
// single read.
func (r *Resolver) teamExists(ctx context.Context, teamID id.TeamID) error {
	if _, err := r.store.GetTeam(ctx, teamID); err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("team %s: %w", teamID, err)
		}
		return fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	return nil
}

// TeamMembership allows iff the principal is a member of the team, with
// any role.
func (r *Resolver) TeamMembership(ctx context.Context, principal PrincipalID, teamID id.TeamID) (*Verdict, error) {
	_, ok, err := r.roleOf(ctx, principal, teamID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := r.teamExists(ctx, teamID); err != nil {
			return nil, err
		}
		return deny(ReasonNotAMember), nil
	}
	return allow(), nil
}

// TeamRole allows iff the principal is a member of the team with a role
// equal to or higher than minRole.
func (r *Resolver) TeamRole(ctx context.Context, principal PrincipalID, teamID id.TeamID, minRole membership.Role) (*Verdict, error) {
	if !minRole.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, minRole)
	}
	have, ok, err := r.roleOf(ctx, principal, teamID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if err := r.teamExists(ctx, teamID); err != nil {
			return nil, err
		}
		return deny(ReasonNotAMember), nil
	}
	if !have.AtLeast(minRole) {
		return deny(ReasonInsufficientRole), nil
	}
	return allow(), nil
}

// ProjectAccess allows iff the principal owns the project, or the project
// is team-attributed and the principal is a member of that team. A project
// with no team and a different owner denies unconditionally: there is no
// implicit public access.
func (r *Resolver) ProjectAccess(ctx context.Context, principal PrincipalID, projectID id.ProjectID) (*Verdict, error) {
	v, err := r.projectAccess(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Resolver) projectAccess(ctx context.Context, principal PrincipalID, projectID id.ProjectID) (*Verdict, error) {
	own, err := r.store.GetProjectOwnership(ctx, projectID)
	if err != nil {
		return nil, r.locateErr("project", projectID, err)
	}
	if own.OwnerID == string(principal) {
		return allow(), nil
	}
	if own.TeamID != nil {
		_, member, err := r.roleOf(ctx, principal, *own.TeamID)
		if err != nil {
			return nil, err
		}
		if member {
			return allow(), nil
		}
	}
	return deny(ReasonNoProjectAccess), nil
}

// ProjectOwnership allows iff the principal is the recorded project owner.
// Used for destructive operations that are not delegable to team members
// regardless of role.
func (r *Resolver) ProjectOwnership(ctx context.Context, principal PrincipalID, projectID id.ProjectID) (*Verdict, error) {
	own, err := r.store.GetProjectOwnership(ctx, projectID)
	if err != nil {
		return nil, r.locateErr("project", projectID, err)
	}
	if own.OwnerID != string(principal) {
		return deny(ReasonNotOwner), nil
	}
	return allow(), nil
}

// EnvironmentAccess resolves the environment's project and evaluates
// project access against it. Transitive by construction: environments
// never carry their own membership list.
func (r *Resolver) EnvironmentAccess(ctx context.Context, principal PrincipalID, envID id.EnvironmentID) (*Verdict, error) {
	own, err := r.store.GetEnvironmentOwnership(ctx, envID)
	if err != nil {
		return nil, r.locateErr("environment", envID, err)
	}
	v, err := r.projectAccess(ctx, principal, own.ProjectID)
	if err != nil {
		return nil, err
	}
	if !v.Allowed {
		return deny(ReasonNoEnvironmentAccess), nil
	}
	return allow(), nil
}

// OwnershipOrAdmin allows iff the principal owns the resource (owner for
// projects, creator for environments), or is an admin of the resource's
// team, resolved transitively for environments. Kind dispatch goes through
// the resourceKind table, so the procedure itself is kind-agnostic.
func (r *Resolver) OwnershipOrAdmin(ctx context.Context, principal PrincipalID, ref ResourceRef) (*Verdict, error) {
	kind, ok := r.kinds[ref.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown resource kind %q", ErrInvalidCapability, ref.Kind)
	}
	owner, err := kind.resolveOwner(ctx, ref.ID)
	if err != nil {
		return nil, r.locateErr(string(ref.Kind), ref.ID, err)
	}
	if owner == string(principal) {
		return allow(), nil
	}
	teamID, err := kind.resolveTeam(ctx, ref.ID)
	if err != nil {
		return nil, r.locateErr(string(ref.Kind), ref.ID, err)
	}
	if teamID == nil {
		return deny(ReasonInsufficientPermissions), nil
	}
	have, member, err := r.roleOf(ctx, principal, *teamID)
	if err != nil {
		return nil, err
	}
	if !member || !have.AtLeast(membership.RoleAdmin) {
		return deny(ReasonInsufficientPermissions), nil
	}
	return allow(), nil
}

// AnyTeamRole allows iff at least one membership of the principal holds a
// role equal to or higher than minRole. Used for platform-wide checks
// that are not scoped to a resource.
func (r *Resolver) AnyTeamRole(ctx context.Context, principal PrincipalID, minRole membership.Role) (*Verdict, error) {
	if !minRole.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, minRole)
	}
	memberships, err := r.store.ListPrincipalMemberships(ctx, string(principal))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	for _, m := range memberships {
		if m.Role.AtLeast(minRole) {
			return allow(), nil
		}
	}
	return deny(ReasonNoQualifyingTeam), nil
}

// CanRemoveMember decides whether the principal may remove member from
// the team. Admins may remove anyone, any member may remove themselves,
// and in both cases removing the team's last admin is refused so a team
// never loses its last administrator.
func (r *Resolver) CanRemoveMember(ctx context.Context, principal PrincipalID, teamID id.TeamID, member PrincipalID) (*Verdict, error) {
	target, err := r.store.GetMembership(ctx, teamID, string(member))
	if err != nil {
		if errors.Is(err, membership.ErrNotFound) {
			if terr := r.teamExists(ctx, teamID); terr != nil {
				return nil, terr
			}
			return nil, fmt.Errorf("member %s on team %s: %w", member, teamID, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	if principal != member {
		have, ok, err := r.roleOf(ctx, principal, teamID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return deny(ReasonNotAMember), nil
		}
		if !have.AtLeast(membership.RoleAdmin) {
			return deny(ReasonInsufficientRole), nil
		}
	}

	if target.Role == membership.RoleAdmin {
		admins, err := r.store.CountTeamAdmins(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
		}
		if admins <= 1 {
			return deny(ReasonLastAdmin), nil
		}
	}

	return allow(), nil
}

// locateErr normalizes locator failures: absence passes through with
// context attached, anything else is classified as a lookup failure.
func (r *Resolver) locateErr(kind string, resID id.ID, err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("%s %s: %w", kind, resID, err)
	}
	return fmt.Errorf("%w: %w", ErrLookupFailed, err)
}
