package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/team"
)

func TestTeamCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	tm := &team.Team{ID: id.NewTeamID(), Name: "Platform", Slug: "platform"}
	if err := s.CreateTeam(ctx, tm); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTeam(ctx, tm.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Platform" {
		t.Fatalf("expected name Platform, got %q", got.Name)
	}

	got.Name = "Platform Eng"
	if err := s.UpdateTeam(ctx, got); err != nil {
		t.Fatal(err)
	}

	updated, err := s.GetTeam(ctx, tm.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Platform Eng" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}

	if err := s.DeleteTeam(ctx, tm.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTeam(ctx, tm.ID); !errors.Is(err, team.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTeamNotFound(t *testing.T) {
	s := New()
	_, err := s.GetTeam(context.Background(), id.NewTeamID())
	if !errors.Is(err, team.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMembershipLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	teamID := id.NewTeamID()

	m := &membership.Membership{
		ID:          id.NewMembershipID(),
		TeamID:      teamID,
		PrincipalID: "u1",
		Role:        membership.RoleDeveloper,
	}
	if err := s.CreateMembership(ctx, m); err != nil {
		t.Fatal(err)
	}

	// At most one membership per (principal, team) pair.
	dup := &membership.Membership{
		ID:          id.NewMembershipID(),
		TeamID:      teamID,
		PrincipalID: "u1",
		Role:        membership.RoleViewer,
	}
	if err := s.CreateMembership(ctx, dup); !errors.Is(err, membership.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := s.GetMembership(ctx, teamID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != membership.RoleDeveloper {
		t.Fatalf("expected developer, got %s", got.Role)
	}

	if err := s.UpdateMembershipRole(ctx, teamID, "u1", membership.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	got, err = s.GetMembership(ctx, teamID, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != membership.RoleAdmin {
		t.Fatalf("expected admin after update, got %s", got.Role)
	}

	if err := s.DeleteMembership(ctx, teamID, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetMembership(ctx, teamID, "u1"); !errors.Is(err, membership.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCountTeamAdmins(t *testing.T) {
	ctx := context.Background()
	s := New()
	teamID := id.NewTeamID()

	seed := []struct {
		principal string
		role      membership.Role
	}{
		{"u1", membership.RoleAdmin},
		{"u2", membership.RoleAdmin},
		{"u3", membership.RoleViewer},
	}
	for _, m := range seed {
		err := s.CreateMembership(ctx, &membership.Membership{
			ID: id.NewMembershipID(), TeamID: teamID, PrincipalID: m.principal, Role: m.role,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	count, err := s.CountTeamAdmins(ctx, teamID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 admins, got %d", count)
	}

	// Admins on another team do not count.
	other := id.NewTeamID()
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), TeamID: other, PrincipalID: "u9", Role: membership.RoleAdmin,
	})
	count, err = s.CountTeamAdmins(ctx, teamID)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 admins after unrelated insert, got %d", count)
	}
}

func TestListPrincipalMemberships(t *testing.T) {
	ctx := context.Background()
	s := New()

	t1, t2 := id.NewTeamID(), id.NewTeamID()
	_ = s.CreateMembership(ctx, &membership.Membership{ID: id.NewMembershipID(), TeamID: t1, PrincipalID: "u1", Role: membership.RoleViewer})
	_ = s.CreateMembership(ctx, &membership.Membership{ID: id.NewMembershipID(), TeamID: t2, PrincipalID: "u1", Role: membership.RoleAdmin})
	_ = s.CreateMembership(ctx, &membership.Membership{ID: id.NewMembershipID(), TeamID: t1, PrincipalID: "u2", Role: membership.RoleAdmin})

	list, err := s.ListPrincipalMemberships(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 memberships for u1, got %d", len(list))
	}
}

func TestProjectOwnershipProjection(t *testing.T) {
	ctx := context.Background()
	s := New()

	teamID := id.NewTeamID()
	p := &project.Project{
		ID:      id.NewProjectID(),
		Name:    "api",
		OwnerID: "u1",
		TeamID:  &teamID,
	}
	if err := s.CreateProject(ctx, p); err != nil {
		t.Fatal(err)
	}

	own, err := s.GetProjectOwnership(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if own.OwnerID != "u1" {
		t.Fatalf("expected owner u1, got %q", own.OwnerID)
	}
	if own.TeamID == nil || own.TeamID.String() != teamID.String() {
		t.Fatalf("expected team %s, got %v", teamID, own.TeamID)
	}

	_, err = s.GetProjectOwnership(ctx, id.NewProjectID())
	if !errors.Is(err, project.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnvironmentOwnershipProjection(t *testing.T) {
	ctx := context.Background()
	s := New()

	projID := id.NewProjectID()
	e := &environment.Environment{
		ID:        id.NewEnvironmentID(),
		Name:      "staging",
		CreatorID: "u2",
		ProjectID: projID,
	}
	if err := s.CreateEnvironment(ctx, e); err != nil {
		t.Fatal(err)
	}

	own, err := s.GetEnvironmentOwnership(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if own.CreatorID != "u2" || own.ProjectID.String() != projID.String() {
		t.Fatalf("unexpected ownership %+v", own)
	}

	_, err = s.GetEnvironmentOwnership(ctx, id.NewEnvironmentID())
	if !errors.Is(err, environment.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListProjectsByTeam(t *testing.T) {
	ctx := context.Background()
	s := New()

	teamID := id.NewTeamID()
	_ = s.CreateProject(ctx, &project.Project{ID: id.NewProjectID(), Name: "a", OwnerID: "u1", TeamID: &teamID})
	_ = s.CreateProject(ctx, &project.Project{ID: id.NewProjectID(), Name: "b", OwnerID: "u1"})

	list, err := s.ListProjects(ctx, &project.ListFilter{TeamID: &teamID})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "a" {
		t.Fatalf("expected only project a, got %d items", len(list))
	}
}

func TestDecisionLogQueryAndPurge(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	_ = s.CreateDecision(ctx, &decisionlog.Entry{
		ID: id.NewDecisionLogID(), PrincipalID: "u1", Procedure: "team_role",
		Decision: "deny", Reason: "insufficient-role", CreatedAt: old,
	})
	_ = s.CreateDecision(ctx, &decisionlog.Entry{
		ID: id.NewDecisionLogID(), PrincipalID: "u1", Procedure: "project_access",
		Decision: "allow", CreatedAt: recent,
	})
	_ = s.CreateDecision(ctx, &decisionlog.Entry{
		ID: id.NewDecisionLogID(), PrincipalID: "u2", Procedure: "project_access",
		Decision: "allow", CreatedAt: recent,
	})

	list, err := s.ListDecisions(ctx, &decisionlog.QueryFilter{PrincipalID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries for u1, got %d", len(list))
	}

	denied, err := s.ListDecisions(ctx, &decisionlog.QueryFilter{Decision: "deny"})
	if err != nil {
		t.Fatal(err)
	}
	if len(denied) != 1 || denied[0].Reason != "insufficient-role" {
		t.Fatalf("unexpected denied entries: %d", len(denied))
	}

	purged, err := s.PurgeDecisions(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged entry, got %d", purged)
	}

	remaining, err := s.CountDecisions(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 remaining entries, got %d", remaining)
	}
}

func TestCopySemantics(t *testing.T) {
	ctx := context.Background()
	s := New()

	tm := &team.Team{ID: id.NewTeamID(), Name: "orig", Slug: "orig"}
	_ = s.CreateTeam(ctx, tm)

	// Mutating the caller's struct must not leak into the store.
	tm.Name = "mutated"

	got, err := s.GetTeam(ctx, tm.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "orig" {
		t.Fatalf("store leaked caller mutation: %q", got.Name)
	}

	// Mutating a returned struct must not leak either.
	got.Name = "mutated again"
	again, err := s.GetTeam(ctx, tm.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "orig" {
		t.Fatalf("store leaked returned-value mutation: %q", again.Name)
	}
}
