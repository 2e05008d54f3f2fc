// Package middleware provides HTTP authorization middleware for Bastion.
package middleware

import (
	"encoding/json"
	"errors"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
)

// Protected describes the capability a route requires. The *Param fields
// name the route parameters the middleware reads the resource identifiers
// from; only the parameters the procedure needs have to be set.
type Protected struct {
	// Procedure is the decision procedure to run.
	Procedure bastion.Procedure

	// TeamParam names the route parameter carrying the team ID.
	TeamParam string

	// ProjectParam names the route parameter carrying the project ID.
	ProjectParam string

	// EnvironmentParam names the route parameter carrying the
	// environment ID.
	EnvironmentParam string

	// ResourceKind and ResourceParam identify the resource for the
	// ownership-or-admin procedure.
	ResourceKind  bastion.ResourceKind
	ResourceParam string

	// MemberParam names the route parameter carrying the member
	// principal for the removal procedure.
	MemberParam string

	// MinRole is the minimum role, for the procedures that take one.
	MinRole membership.Role

	// MaskNotFound responds 403 instead of 404 when the resource does
	// not exist, so a caller cannot probe for existence.
	MaskNotFound bool
}

// Require enforces a single protected capability. The principal comes from
// the authenticated user on the request context; requests without one are
// rejected before any lookup.
func Require(gate *bastion.Gate, p Protected) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			principal := resolvePrincipal(ctx)
			if principal == "" {
				return writeStatus(ctx, 401)
			}
			cap, err := p.capability(ctx)
			if err != nil {
				return writeStatus(ctx, p.maskedNotFound())
			}
			if err := gate.Enforce(ctx.Context(), principal, cap); err != nil {
				return writeError(ctx, p, err)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if any of the protected capabilities is
// held. The response reflects the last failure when none is.
func RequireAny(gate *bastion.Gate, protected ...Protected) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			principal := resolvePrincipal(ctx)
			if principal == "" {
				return writeStatus(ctx, 401)
			}
			var lastErr error
			for _, p := range protected {
				cap, err := p.capability(ctx)
				if err != nil {
					lastErr = bastion.ErrAccessDenied
					continue
				}
				v, err := gate.Check(ctx.Context(), principal, cap)
				if err == nil && v.Allowed {
					return next(ctx)
				}
				if err != nil {
					lastErr = err
				} else {
					lastErr = bastion.ErrAccessDenied
				}
			}
			if len(protected) > 0 {
				return writeError(ctx, protected[len(protected)-1], lastErr)
			}
			return writeStatus(ctx, 403)
		}
	}
}

// RequireAll allows the request only if every protected capability is held.
func RequireAll(gate *bastion.Gate, protected ...Protected) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			principal := resolvePrincipal(ctx)
			if principal == "" {
				return writeStatus(ctx, 401)
			}
			for _, p := range protected {
				cap, err := p.capability(ctx)
				if err != nil {
					return writeStatus(ctx, p.maskedNotFound())
				}
				if err := gate.Enforce(ctx.Context(), principal, cap); err != nil {
					return writeError(ctx, p, err)
				}
			}
			return next(ctx)
		}
	}
}

// capability assembles the descriptor from the request's route parameters.
func (p Protected) capability(ctx forge.Context) (bastion.Capability, error) {
	cap := bastion.Capability{
		Procedure: p.Procedure,
		MinRole:   p.MinRole,
	}

	if p.TeamParam != "" {
		teamID, err := id.ParseTeamID(ctx.Param(p.TeamParam))
		if err != nil {
			return cap, err
		}
		cap.TeamID = teamID
	}
	if p.ProjectParam != "" {
		projectID, err := id.ParseProjectID(ctx.Param(p.ProjectParam))
		if err != nil {
			return cap, err
		}
		cap.ProjectID = projectID
	}
	if p.EnvironmentParam != "" {
		envID, err := id.ParseEnvironmentID(ctx.Param(p.EnvironmentParam))
		if err != nil {
			return cap, err
		}
		cap.EnvironmentID = envID
	}
	if p.ResourceParam != "" {
		resID, err := id.ParseAny(ctx.Param(p.ResourceParam))
		if err != nil {
			return cap, err
		}
		cap.Resource = bastion.ResourceRef{Kind: p.ResourceKind, ID: resID}
	}
	if p.MemberParam != "" {
		cap.MemberID = bastion.PrincipalID(ctx.Param(p.MemberParam))
	}

	return cap, nil
}

func (p Protected) maskedNotFound() int {
	if p.MaskNotFound {
		return 403
	}
	return 404
}

// resolvePrincipal extracts the principal from the request context.
// Priority: Forge authenticated user, then an explicitly attached
// principal. An empty result is rejected by the gate as unauthorized.
func resolvePrincipal(ctx forge.Context) bastion.PrincipalID {
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return bastion.PrincipalID(userID)
	}
	p, _ := bastion.PrincipalFromContext(ctx.Context())
	return p
}

func writeError(ctx forge.Context, p Protected, err error) error {
	switch {
	case errors.Is(err, bastion.ErrUnauthorized):
		return writeStatus(ctx, 401)
	case errors.Is(err, bastion.ErrAccessDenied):
		return writeStatus(ctx, 403)
	case bastion.IsNotFound(err):
		return writeStatus(ctx, p.maskedNotFound())
	default:
		return writeStatus(ctx, 500)
	}
}

// writeStatus responds with a uniform body per status class. Deny reasons
// stay in the decision log; the wire message never reveals which check
// failed.
func writeStatus(ctx forge.Context, status int) error {
	msg := map[int]string{
		401: "authentication required",
		403: "access denied",
		404: "not found",
		500: "internal error",
	}[status]

	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(status)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}
