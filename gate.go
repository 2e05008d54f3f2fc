package bastion

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/id"
)

// Gate is the boundary adapter invoked once per protected operation. It
// checks authentication strictly before authorization, dispatches the
// capability descriptor to the resolver, and translates the verdict into
// a pass/fail signal with a typed reason.
type Gate struct {
	resolver *Resolver
}

// NewGate creates a Gate over the given resolver.
func NewGate(r *Resolver) *Gate {
	return &Gate{resolver: r}
}

// Resolver returns the underlying resolver.
func (g *Gate) Resolver() *Resolver { return g.resolver }

// Check evaluates the capability and returns the raw verdict. The
// principal is validated first: an empty principal yields ErrUnauthorized
// before any store read. Resource absence and store failures surface as
// errors, never as a deny, so the boundary can distinguish 404 from 403.
func (g *Gate) Check(ctx context.Context, principal PrincipalID, cap Capability) (*Verdict, error) {
	if principal == "" {
		return nil, ErrUnauthorized
	}
	if err := cap.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	if p := g.resolver.plugins; p != nil {
		p.EmitBeforeDecision(ctx, &cap)
	}

	v, err := g.dispatch(ctx, principal, cap)
	if err != nil {
		return nil, err
	}
	v.Procedure = cap.Procedure
	v.EvalTimeNs = time.Since(start).Nanoseconds()

	if p := g.resolver.plugins; p != nil {
		p.EmitAfterDecision(ctx, &cap, v)
	}

	g.audit(ctx, principal, cap, v)

	return v, nil
}

// Enforce returns nil when the capability is held and a typed error
// otherwise: ErrUnauthorized for a missing principal, ErrAccessDenied
// (carrying the reason) for a denial, and the resolver's own NotFound or
// ErrLookupFailed errors unchanged.
func (g *Gate) Enforce(ctx context.Context, principal PrincipalID, cap Capability) error {
	v, err := g.Check(ctx, principal, cap)
	if err != nil {
		return err
	}
	if !v.Allowed {
		return fmt.Errorf("%w: %s", ErrAccessDenied, v.Reason)
	}
	return nil
}

func (g *Gate) dispatch(ctx context.Context, principal PrincipalID, cap Capability) (*Verdict, error) {
	r := g.resolver
	switch cap.Procedure {
	case ProcTeamMembership:
		return r.TeamMembership(ctx, principal, cap.TeamID)
	case ProcTeamRole:
		return r.TeamRole(ctx, principal, cap.TeamID, cap.MinRole)
	case ProcProjectAccess:
		return r.ProjectAccess(ctx, principal, cap.ProjectID)
	case ProcProjectOwnership:
		return r.ProjectOwnership(ctx, principal, cap.ProjectID)
	case ProcEnvironmentAccess:
		return r.EnvironmentAccess(ctx, principal, cap.EnvironmentID)
	case ProcOwnershipOrAdmin:
		return r.OwnershipOrAdmin(ctx, principal, cap.Resource)
	case ProcAnyTeamRole:
		return r.AnyTeamRole(ctx, principal, cap.MinRole)
	case ProcCanRemoveMember:
		return r.CanRemoveMember(ctx, principal, cap.TeamID, cap.MemberID)
	default:
		return nil, fmt.Errorf("%w: unknown procedure %q", ErrInvalidCapability, cap.Procedure)
	}
}

// audit records the decision. Best effort: a write failure is logged and
// never alters the verdict.
func (g *Gate) audit(ctx context.Context, principal PrincipalID, cap Capability, v *Verdict) {
	cfg := g.resolver.config
	if !cfg.auditEnabled() {
		return
	}
	if v.Allowed && !cfg.auditAllowed() {
		return
	}

	entry := &decisionlog.Entry{
		ID:            id.NewDecisionLogID(),
		PrincipalID:   string(principal),
		Procedure:     string(cap.Procedure),
		TeamID:        cap.TeamID.String(),
		ProjectID:     cap.ProjectID.String(),
		EnvironmentID: cap.EnvironmentID.String(),
		MemberID:      string(cap.MemberID),
		Decision:      string(v.Decision),
		Reason:        string(v.Reason),
		EvalTimeNs:    v.EvalTimeNs,
		CreatedAt:     time.Now().UTC(),
	}
	if cap.Procedure == ProcOwnershipOrAdmin {
		switch cap.Resource.Kind {
		case KindProject:
			entry.ProjectID = cap.Resource.ID.String()
		case KindEnvironment:
			entry.EnvironmentID = cap.Resource.ID.String()
		}
	}

	if err := g.resolver.store.CreateDecision(ctx, entry); err != nil {
		g.resolver.logger.Warn("bastion: decision log write failed",
			"procedure", cap.Procedure,
			"principal", principal,
			"error", err,
		)
	}
}
