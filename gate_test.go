package bastion

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/store"
)

func newTestGate(t *testing.T, opts ...Option) (*Gate, *fixture) {
	t.Helper()
	f := newFixture(t)
	r, err := NewResolver(append([]Option{WithStore(f.store)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	f.r = r
	return NewGate(r), f
}

// countingStore records how many reads the gate performed.
type countingStore struct {
	store.Store
	reads atomic.Int64
}

func (s *countingStore) GetMembership(ctx context.Context, teamID id.TeamID, principalID string) (*membership.Membership, error) {
	s.reads.Add(1)
	return s.Store.GetMembership(ctx, teamID, principalID)
}

func TestCheckRejectsMissingPrincipalBeforeAnyRead(t *testing.T) {
	f := newFixture(t)
	cs := &countingStore{Store: f.store}
	r, err := NewResolver(WithStore(cs))
	if err != nil {
		t.Fatal(err)
	}
	g := NewGate(r)

	_, err = g.Check(context.Background(), "", Capability{
		Procedure: ProcTeamMembership,
		TeamID:    f.t1,
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if n := cs.reads.Load(); n != 0 {
		t.Fatalf("expected no store reads for an unauthenticated caller, got %d", n)
	}
}

func TestCheckRejectsInvalidCapability(t *testing.T) {
	g, _ := newTestGate(t)

	// Each descriptor is missing a parameter its procedure requires,
	// except the last, whose procedure does not exist.
	cases := []Capability{
		{Procedure: ProcTeamMembership},
		{Procedure: ProcTeamRole, TeamID: id.NewTeamID()},
		{Procedure: ProcProjectAccess},
		{Procedure: ProcCanRemoveMember, TeamID: id.NewTeamID()},
		{Procedure: "launch_missiles"},
	}
	for _, c := range cases {
		if _, err := g.Check(context.Background(), "u1", c); !errors.Is(err, ErrInvalidCapability) {
			t.Fatalf("capability %+v: expected ErrInvalidCapability, got %v", c, err)
		}
	}
}

func TestCheckStampsVerdict(t *testing.T) {
	g, f := newTestGate(t)

	v, err := g.Check(context.Background(), "u1", Capability{
		Procedure: ProcTeamRole,
		TeamID:    f.t1,
		MinRole:   membership.RoleAdmin,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !v.Allowed {
		t.Fatalf("expected allow, got deny (%s)", v.Reason)
	}
	if v.Procedure != ProcTeamRole {
		t.Fatalf("expected procedure stamped on verdict, got %q", v.Procedure)
	}
	if v.EvalTimeNs < 0 {
		t.Fatalf("expected non-negative eval time, got %d", v.EvalTimeNs)
	}
}

func TestEnforce(t *testing.T) {
	g, f := newTestGate(t)
	ctx := context.Background()

	err := g.Enforce(ctx, "u2", Capability{Procedure: ProcProjectOwnership, ProjectID: f.p1})
	if err != nil {
		t.Fatal(err)
	}

	err = g.Enforce(ctx, "u1", Capability{Procedure: ProcProjectOwnership, ProjectID: f.p1})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if !strings.Contains(err.Error(), string(ReasonNotOwner)) {
		t.Fatalf("expected reason in error, got %q", err.Error())
	}
}

func TestEnforceAbsentResourceIsNotFound(t *testing.T) {
	g, _ := newTestGate(t)

	err := g.Enforce(context.Background(), "u1", Capability{
		Procedure: ProcProjectAccess,
		ProjectID: id.NewProjectID(),
	})
	if !IsNotFound(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
	if errors.Is(err, ErrAccessDenied) {
		t.Fatal("absence must not surface as ErrAccessDenied")
	}
}

func TestCheckWritesAuditEntry(t *testing.T) {
	g, f := newTestGate(t)
	ctx := context.Background()

	_, err := g.Check(ctx, "u4", Capability{
		Procedure: ProcTeamRole,
		TeamID:    f.t1,
		MinRole:   membership.RoleAdmin,
	})
	if err != nil {
		t.Fatal(err)
	}

	entries, err := f.store.ListDecisions(ctx, &decisionlog.QueryFilter{PrincipalID: "u4"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Procedure != string(ProcTeamRole) || e.Decision != string(DecisionDeny) {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.Reason != string(ReasonInsufficientRole) {
		t.Fatalf("expected insufficient-role reason, got %q", e.Reason)
	}
	if e.TeamID != f.t1.String() {
		t.Fatalf("expected team id %s, got %q", f.t1, e.TeamID)
	}
}

func TestAuditDisabled(t *testing.T) {
	off := false
	g, f := newTestGate(t, WithConfig(Config{EnableAudit: &off}))
	ctx := context.Background()

	if _, err := g.Check(ctx, "u1", Capability{Procedure: ProcTeamMembership, TeamID: f.t1}); err != nil {
		t.Fatal(err)
	}

	count, err := f.store.CountDecisions(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected no audit entries, got %d", count)
	}
}

func TestAuditDeniesOnly(t *testing.T) {
	off := false
	g, f := newTestGate(t, WithConfig(Config{AuditAllowed: &off}))
	ctx := context.Background()

	if _, err := g.Check(ctx, "u1", Capability{Procedure: ProcTeamMembership, TeamID: f.t1}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Check(ctx, "u9", Capability{Procedure: ProcTeamMembership, TeamID: f.t1}); err != nil {
		t.Fatal(err)
	}

	entries, err := f.store.ListDecisions(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the denial to be recorded, got %d entries", len(entries))
	}
	if entries[0].Decision != string(DecisionDeny) {
		t.Fatalf("expected the recorded entry to be a deny, got %s", entries[0].Decision)
	}
}

func TestAuditResourceRefMapsToKindColumn(t *testing.T) {
	g, f := newTestGate(t)
	ctx := context.Background()

	_, err := g.Check(ctx, "u2", Capability{
		Procedure: ProcOwnershipOrAdmin,
		Resource:  ResourceRef{Kind: KindEnvironment, ID: f.e1},
	})
	if err != nil {
		t.Fatal(err)
	}

	entries, err := f.store.ListDecisions(ctx, &decisionlog.QueryFilter{PrincipalID: "u2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].EnvironmentID != f.e1.String() {
		t.Fatalf("expected environment id %s in entry, got %q", f.e1, entries[0].EnvironmentID)
	}
}

func TestGateEndToEndScenario(t *testing.T) {
	g, f := newTestGate(t)
	ctx := context.Background()

	checks := []struct {
		principal PrincipalID
		cap       Capability
		want      bool
	}{
		{"u1", Capability{Procedure: ProcTeamRole, TeamID: f.t1, MinRole: membership.RoleAdmin}, true},
		{"u2", Capability{Procedure: ProcProjectAccess, ProjectID: f.p1}, true},
		{"u1", Capability{Procedure: ProcProjectAccess, ProjectID: f.p1}, true},
		{"u1", Capability{Procedure: ProcEnvironmentAccess, EnvironmentID: f.e1}, true},
		{"u2", Capability{Procedure: ProcEnvironmentAccess, EnvironmentID: f.e1}, true},
		{"u9", Capability{Procedure: ProcEnvironmentAccess, EnvironmentID: f.e1}, false},
		{"u2", Capability{Procedure: ProcOwnershipOrAdmin, Resource: ResourceRef{Kind: KindProject, ID: f.p1}}, true},
		{"u4", Capability{Procedure: ProcOwnershipOrAdmin, Resource: ResourceRef{Kind: KindProject, ID: f.p1}}, false},
	}
	for i, c := range checks {
		v, err := g.Check(ctx, c.principal, c.cap)
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if v.Allowed != c.want {
			t.Fatalf("check %d: principal %s, procedure %s: got allowed=%v, want %v (reason %s)",
				i, c.principal, c.cap.Procedure, v.Allowed, c.want, v.Reason)
		}
	}
}
