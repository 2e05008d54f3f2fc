package bastion

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/store"
	"github.com/xraph/bastion/store/memory"
	"github.com/xraph/bastion/team"
)

// fixture is the shared topology: team t1 with admin u1, developer u3 and
// viewer u4; project p1 owned by u2 and attributed to t1; environment e1
// created by u2 under p1; project p2 owned by u2 with no team.
type fixture struct {
	store *memory.Store
	r     *Resolver
	t1    id.TeamID
	p1    id.ProjectID
	p2    id.ProjectID
	e1    id.EnvironmentID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	f := &fixture{
		store: s,
		t1:    id.NewTeamID(),
		p1:    id.NewProjectID(),
		p2:    id.NewProjectID(),
		e1:    id.NewEnvironmentID(),
	}

	if err := s.CreateTeam(ctx, &team.Team{ID: f.t1, Name: "core", Slug: "core"}); err != nil {
		t.Fatal(err)
	}
	members := []struct {
		principal string
		role      membership.Role
	}{
		{"u1", membership.RoleAdmin},
		{"u3", membership.RoleDeveloper},
		{"u4", membership.RoleViewer},
	}
	for _, m := range members {
		err := s.CreateMembership(ctx, &membership.Membership{
			ID: id.NewMembershipID(), TeamID: f.t1, PrincipalID: m.principal, Role: m.role,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := s.CreateProject(ctx, &project.Project{ID: f.p1, Name: "app", OwnerID: "u2", TeamID: &f.t1}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateProject(ctx, &project.Project{ID: f.p2, Name: "scratch", OwnerID: "u2"}); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEnvironment(ctx, &environment.Environment{ID: f.e1, Name: "prod", CreatorID: "u2", ProjectID: f.p1}); err != nil {
		t.Fatal(err)
	}

	r, err := NewResolver(WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	f.r = r
	return f
}

func mustAllow(t *testing.T, v *Verdict, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	if !v.Allowed {
		t.Fatalf("expected allow, got deny (%s)", v.Reason)
	}
}

func mustDeny(t *testing.T, v *Verdict, err error, reason Reason) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	if v.Allowed {
		t.Fatal("expected deny, got allow")
	}
	if v.Reason != reason {
		t.Fatalf("expected reason %s, got %s", reason, v.Reason)
	}
}

func TestNewResolverRequiresStore(t *testing.T) {
	if _, err := NewResolver(); err == nil {
		t.Fatal("expected error when no store is provided")
	}
}

func TestTeamMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.r.TeamMembership(ctx, "u1", f.t1)
	mustAllow(t, v, err)
	v, err = f.r.TeamMembership(ctx, "u4", f.t1)
	mustAllow(t, v, err)
	v, err = f.r.TeamMembership(ctx, "u2", f.t1)
	mustDeny(t, v, err, ReasonNotAMember)
}

func TestTeamMembershipUnknownTeamIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.TeamMembership(context.Background(), "u1", id.NewTeamID())
	if !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
	if errors.Is(err, ErrAccessDenied) {
		t.Fatal("absence must not surface as a denial")
	}
}

func TestTeamRoleMonotonicity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A role satisfies every requirement at or below it.
	for _, min := range []membership.Role{membership.RoleViewer, membership.RoleDeveloper, membership.RoleAdmin} {
		v, err := f.r.TeamRole(ctx, "u1", f.t1, min)
		mustAllow(t, v, err)
	}
	v, err := f.r.TeamRole(ctx, "u3", f.t1, membership.RoleViewer)
	mustAllow(t, v, err)
	v, err = f.r.TeamRole(ctx, "u3", f.t1, membership.RoleDeveloper)
	mustAllow(t, v, err)
	v, err = f.r.TeamRole(ctx, "u3", f.t1, membership.RoleAdmin)
	mustDeny(t, v, err, ReasonInsufficientRole)
	v, err = f.r.TeamRole(ctx, "u4", f.t1, membership.RoleDeveloper)
	mustDeny(t, v, err, ReasonInsufficientRole)
	v, err = f.r.TeamRole(ctx, "u2", f.t1, membership.RoleViewer)
	mustDeny(t, v, err, ReasonNotAMember)
}

func TestTeamRoleRejectsUnknownMinRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.TeamRole(context.Background(), "u1", f.t1, "superuser")
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestProjectAccessOwnerBypassesTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// u2 owns p1 but holds no membership on t1.
	v, err := f.r.ProjectAccess(ctx, "u2", f.p1)
	mustAllow(t, v, err)
}

func TestProjectAccessViaTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Any role on the attributed team grants access.
	v, err := f.r.ProjectAccess(ctx, "u1", f.p1)
	mustAllow(t, v, err)
	v, err = f.r.ProjectAccess(ctx, "u4", f.p1)
	mustAllow(t, v, err)
	v, err = f.r.ProjectAccess(ctx, "u9", f.p1)
	mustDeny(t, v, err, ReasonNoProjectAccess)
}

func TestProjectAccessNoImplicitAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// p2 has no team: only its owner gets in, team roles elsewhere do
	// not help.
	v, err := f.r.ProjectAccess(ctx, "u2", f.p2)
	mustAllow(t, v, err)
	v, err = f.r.ProjectAccess(ctx, "u1", f.p2)
	mustDeny(t, v, err, ReasonNoProjectAccess)
}

func TestProjectAccessUnknownProjectIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.ProjectAccess(context.Background(), "u1", id.NewProjectID())
	if !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestProjectOwnershipNotDelegable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.r.ProjectOwnership(ctx, "u2", f.p1)
	mustAllow(t, v, err)
	// Team admin is not the owner.
	v, err = f.r.ProjectOwnership(ctx, "u1", f.p1)
	mustDeny(t, v, err, ReasonNotOwner)
}

func TestEnvironmentAccessTransitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Access flows through the parent project: owner and team members
	// reach e1, outsiders do not.
	v, err := f.r.EnvironmentAccess(ctx, "u2", f.e1)
	mustAllow(t, v, err)
	v, err = f.r.EnvironmentAccess(ctx, "u1", f.e1)
	mustAllow(t, v, err)
	v, err = f.r.EnvironmentAccess(ctx, "u4", f.e1)
	mustAllow(t, v, err)
	v, err = f.r.EnvironmentAccess(ctx, "u9", f.e1)
	mustDeny(t, v, err, ReasonNoEnvironmentAccess)
}

func TestEnvironmentAccessUnknownEnvironmentIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.EnvironmentAccess(context.Background(), "u1", id.NewEnvironmentID())
	if !errors.Is(err, ErrEnvironmentNotFound) {
		t.Fatalf("expected ErrEnvironmentNotFound, got %v", err)
	}
}

func TestOwnershipOrAdminProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := ResourceRef{Kind: KindProject, ID: id.ID(f.p1)}

	v, err := f.r.OwnershipOrAdmin(ctx, "u2", ref)
	mustAllow(t, v, err)
	v, err = f.r.OwnershipOrAdmin(ctx, "u1", ref)
	mustAllow(t, v, err)
	// Developer and viewer are below admin.
	v, err = f.r.OwnershipOrAdmin(ctx, "u3", ref)
	mustDeny(t, v, err, ReasonInsufficientPermissions)
	v, err = f.r.OwnershipOrAdmin(ctx, "u4", ref)
	mustDeny(t, v, err, ReasonInsufficientPermissions)
}

func TestOwnershipOrAdminEnvironmentWalksToProjectTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := ResourceRef{Kind: KindEnvironment, ID: id.ID(f.e1)}

	// u2 created e1; u1 is admin of the team attributed to e1's project.
	v, err := f.r.OwnershipOrAdmin(ctx, "u2", ref)
	mustAllow(t, v, err)
	v, err = f.r.OwnershipOrAdmin(ctx, "u1", ref)
	mustAllow(t, v, err)
	v, err = f.r.OwnershipOrAdmin(ctx, "u3", ref)
	mustDeny(t, v, err, ReasonInsufficientPermissions)
}

func TestOwnershipOrAdminTeamlessProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref := ResourceRef{Kind: KindProject, ID: id.ID(f.p2)}

	v, err := f.r.OwnershipOrAdmin(ctx, "u2", ref)
	mustAllow(t, v, err)
	// No team to be admin of.
	v, err = f.r.OwnershipOrAdmin(ctx, "u1", ref)
	mustDeny(t, v, err, ReasonInsufficientPermissions)
}

func TestAnyTeamRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.r.AnyTeamRole(ctx, "u1", membership.RoleAdmin)
	mustAllow(t, v, err)
	v, err = f.r.AnyTeamRole(ctx, "u4", membership.RoleViewer)
	mustAllow(t, v, err)
	v, err = f.r.AnyTeamRole(ctx, "u4", membership.RoleAdmin)
	mustDeny(t, v, err, ReasonNoQualifyingTeam)
	v, err = f.r.AnyTeamRole(ctx, "u9", membership.RoleViewer)
	mustDeny(t, v, err, ReasonNoQualifyingTeam)
}

func TestCanRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Admin removes a developer.
	v, err := f.r.CanRemoveMember(ctx, "u1", f.t1, "u3")
	mustAllow(t, v, err)
	// Self-removal without admin.
	v, err = f.r.CanRemoveMember(ctx, "u4", f.t1, "u4")
	mustAllow(t, v, err)
	// Developer cannot remove another member.
	v, err = f.r.CanRemoveMember(ctx, "u3", f.t1, "u4")
	mustDeny(t, v, err, ReasonInsufficientRole)
	// Outsider cannot remove anyone.
	v, err = f.r.CanRemoveMember(ctx, "u9", f.t1, "u4")
	mustDeny(t, v, err, ReasonNotAMember)
}

func TestCanRemoveMemberLastAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// u1 is the only admin: neither another admin path nor self-removal
	// may strand the team.
	v, err := f.r.CanRemoveMember(ctx, "u1", f.t1, "u1")
	mustDeny(t, v, err, ReasonLastAdmin)

	// Adding a second admin unblocks removal.
	err = f.store.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), TeamID: f.t1, PrincipalID: "u5", Role: membership.RoleAdmin,
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err = f.r.CanRemoveMember(ctx, "u1", f.t1, "u1")
	mustAllow(t, v, err)
	v, err = f.r.CanRemoveMember(ctx, "u5", f.t1, "u1")
	mustAllow(t, v, err)
}

func TestCanRemoveMemberAbsentTargetIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.CanRemoveMember(context.Background(), "u1", f.t1, "ghost")
	if !errors.Is(err, ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}

	_, err = f.r.CanRemoveMember(context.Background(), "u1", id.NewTeamID(), "u3")
	if !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}

func TestDecisionsReflectCurrentState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.r.TeamRole(ctx, "u3", f.t1, membership.RoleDeveloper)
	mustAllow(t, v, err)

	// Downgrade takes effect on the very next decision.
	if err := f.store.UpdateMembershipRole(ctx, f.t1, "u3", membership.RoleViewer); err != nil {
		t.Fatal(err)
	}
	v, err = f.r.TeamRole(ctx, "u3", f.t1, membership.RoleDeveloper)
	mustDeny(t, v, err, ReasonInsufficientRole)

	// Revocation likewise.
	if err := f.store.DeleteMembership(ctx, f.t1, "u3"); err != nil {
		t.Fatal(err)
	}
	v, err = f.r.TeamRole(ctx, "u3", f.t1, membership.RoleDeveloper)
	mustDeny(t, v, err, ReasonNotAMember)
}

// brokenMembershipStore fails membership reads to exercise the lookup
// failure classification.
type brokenMembershipStore struct {
	store.Store
}

func (brokenMembershipStore) GetMembership(context.Context, id.TeamID, string) (*membership.Membership, error) {
	return nil, errors.New("connection reset")
}

func TestStoreFailureIsLookupFailedNotDeny(t *testing.T) {
	f := newFixture(t)

	r, err := NewResolver(WithStore(brokenMembershipStore{Store: f.store}))
	if err != nil {
		t.Fatal(err)
	}

	v, err := r.TeamMembership(context.Background(), "u1", f.t1)
	if v != nil {
		t.Fatal("expected no verdict on store failure")
	}
	if !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("expected ErrLookupFailed, got %v", err)
	}
}
