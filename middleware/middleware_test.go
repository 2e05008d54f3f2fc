package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/store/memory"
	"github.com/xraph/bastion/team"
)

// forgeContext is an alias so the embedded field name does not collide
// with the Context() method defined on fakeContext.
type forgeContext = forge.Context

// fakeContext implements the subset of forge.Context the middleware
// touches. Anything else panics through the embedded nil interface.
type fakeContext struct {
	forgeContext
	ctx        context.Context
	params     map[string]string
	paramReads int
	rec        *httptest.ResponseRecorder
}

func newFakeContext(ctx context.Context, params map[string]string) *fakeContext {
	return &fakeContext{ctx: ctx, params: params, rec: httptest.NewRecorder()}
}

func (f *fakeContext) Context() context.Context { return f.ctx }

func (f *fakeContext) Param(name string) string {
	f.paramReads++
	return f.params[name]
}

func (f *fakeContext) SetHeader(key, value string) { f.rec.Header().Set(key, value) }

func (f *fakeContext) Response() http.ResponseWriter { return f.rec }

func newTestGate(t *testing.T) (*bastion.Gate, id.TeamID) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()

	teamID := id.NewTeamID()
	if err := s.CreateTeam(ctx, &team.Team{ID: teamID, Name: "core", Slug: "core"}); err != nil {
		t.Fatal(err)
	}
	err := s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), TeamID: teamID, PrincipalID: "u1", Role: membership.RoleAdmin,
	})
	if err != nil {
		t.Fatal(err)
	}

	r, err := bastion.NewResolver(bastion.WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	return bastion.NewGate(r), teamID
}

func runRequire(gate *bastion.Gate, p Protected, fc *fakeContext) (nextCalled bool, err error) {
	handler := Require(gate, p)(func(forge.Context) error {
		nextCalled = true
		return nil
	})
	err = handler(fc)
	return nextCalled, err
}

func TestRequireUnauthenticatedIs401BeforeAnyParse(t *testing.T) {
	gate, _ := newTestGate(t)

	// No principal and a malformed team ID: authentication must be
	// decided first, without reading a single route parameter.
	fc := newFakeContext(context.Background(), map[string]string{"teamId": "not-an-id"})
	nextCalled, err := runRequire(gate, Protected{
		Procedure: bastion.ProcTeamMembership,
		TeamParam: "teamId",
	}, fc)
	if err != nil {
		t.Fatal(err)
	}
	if nextCalled {
		t.Fatal("handler must not run for an unauthenticated caller")
	}
	if fc.rec.Code != 401 {
		t.Fatalf("expected 401, got %d", fc.rec.Code)
	}
	if fc.paramReads != 0 {
		t.Fatalf("expected no parameter reads before authentication, got %d", fc.paramReads)
	}
}

func TestRequireAllowsMember(t *testing.T) {
	gate, teamID := newTestGate(t)

	fc := newFakeContext(bastion.WithPrincipal(context.Background(), "u1"),
		map[string]string{"teamId": teamID.String()})
	nextCalled, err := runRequire(gate, Protected{
		Procedure: bastion.ProcTeamMembership,
		TeamParam: "teamId",
	}, fc)
	if err != nil {
		t.Fatal(err)
	}
	if !nextCalled {
		t.Fatal("expected handler to run for a team member")
	}
}

func TestRequireDeniesNonMember(t *testing.T) {
	gate, teamID := newTestGate(t)

	fc := newFakeContext(bastion.WithPrincipal(context.Background(), "u9"),
		map[string]string{"teamId": teamID.String()})
	nextCalled, err := runRequire(gate, Protected{
		Procedure: bastion.ProcTeamMembership,
		TeamParam: "teamId",
	}, fc)
	if err != nil {
		t.Fatal(err)
	}
	if nextCalled {
		t.Fatal("handler must not run for a non-member")
	}
	if fc.rec.Code != 403 {
		t.Fatalf("expected 403, got %d", fc.rec.Code)
	}
}

func TestRequireMasksNotFound(t *testing.T) {
	gate, _ := newTestGate(t)
	authed := bastion.WithPrincipal(context.Background(), "u1")
	unknown := map[string]string{"teamId": id.NewTeamID().String()}

	fc := newFakeContext(authed, unknown)
	if _, err := runRequire(gate, Protected{
		Procedure: bastion.ProcTeamMembership,
		TeamParam: "teamId",
	}, fc); err != nil {
		t.Fatal(err)
	}
	if fc.rec.Code != 404 {
		t.Fatalf("expected 404 without masking, got %d", fc.rec.Code)
	}

	fc = newFakeContext(authed, unknown)
	if _, err := runRequire(gate, Protected{
		Procedure:    bastion.ProcTeamMembership,
		TeamParam:    "teamId",
		MaskNotFound: true,
	}, fc); err != nil {
		t.Fatal(err)
	}
	if fc.rec.Code != 403 {
		t.Fatalf("expected 403 with masking, got %d", fc.rec.Code)
	}
}
