// Package bastion resolves access decisions for platforms that organize
// resources into a Team → Project → Environment containment hierarchy.
//
// Given a principal, a target resource, and a required capability
// (membership, minimum role, or ownership), the resolver answers allow or
// deny across the inheritance chain: an environment derives its
// permissions from its project, which may in turn derive them from a
// team. Decisions are computed against a consistent read of the backing
// store at decision time; nothing is cached, so a role downgrade takes
// effect on the very next request.
//
//	res, err := bastion.NewResolver(
//	    bastion.WithStore(memStore),
//	)
//	gate := bastion.NewGate(res)
//	err = gate.Enforce(ctx, "user_123", bastion.Capability{
//	    Procedure: bastion.ProcProjectAccess,
//	    ProjectID: projectID,
//	})
package bastion

import "github.com/xraph/bastion/id"

// PrincipalID identifies an authenticated user. Principals are issued by
// the authentication layer before the resolver runs; bastion never mints
// or persists them.
type PrincipalID string

// ResourceKind names a resource kind that supports ownership-or-admin
// resolution.
type ResourceKind string

const (
	// KindProject is a project (owner field: owner_id).
	KindProject ResourceKind = "project"

	// KindEnvironment is an environment (owner field: creator_id).
	KindEnvironment ResourceKind = "environment"
)

// ResourceRef identifies a concrete resource for kind-polymorphic
// procedures.
type ResourceRef struct {
	Kind ResourceKind `json:"kind"`
	ID   id.ID        `json:"id"`
}
