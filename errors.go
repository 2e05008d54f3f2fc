package bastion

import (
	"errors"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/team"
)

var (
	// ErrUnauthorized is returned when no valid principal was supplied.
	// It is raised strictly before any resource lookup, so an
	// unauthenticated caller never learns whether a resource exists.
	ErrUnauthorized = errors.New("bastion: unauthorized")

	// ErrAccessDenied is returned when a principal is known but lacks the
	// required capability. The wrapped message carries the deny reason.
	ErrAccessDenied = errors.New("bastion: access denied")

	// ErrLookupFailed is returned when the backing store could not be
	// queried. It must never be interpreted as a deny: callers should
	// fail the request, distinctly from a policy denial, so alerting
	// stays correct.
	ErrLookupFailed = errors.New("bastion: store lookup failed")

	// ErrLastAdmin is returned by the membership mutation path when a
	// removal or downgrade would leave a team without an admin.
	ErrLastAdmin = errors.New("bastion: cannot remove a team's last admin")

	// ErrInvalidRole is returned when a role outside the viewer,
	// developer, admin order is supplied.
	ErrInvalidRole = errors.New("bastion: invalid role")

	// ErrInvalidCapability is returned when a capability descriptor is
	// missing the parameters its procedure requires.
	ErrInvalidCapability = errors.New("bastion: invalid capability")
)

// Entity sentinels, re-exported so boundary code can match on a single
// package. Resource absence is always one of these, never a deny.
var (
	// ErrTeamNotFound is returned when a team does not exist.
	ErrTeamNotFound = team.ErrNotFound

	// ErrProjectNotFound is returned when a project does not exist.
	ErrProjectNotFound = project.ErrNotFound

	// ErrEnvironmentNotFound is returned when an environment does not exist.
	ErrEnvironmentNotFound = environment.ErrNotFound

	// ErrMembershipNotFound is returned when a membership does not exist.
	ErrMembershipNotFound = membership.ErrNotFound

	// ErrDecisionNotFound is returned when a decision log entry does not exist.
	ErrDecisionNotFound = decisionlog.ErrNotFound

	// ErrDuplicateMembership is returned when a principal is already a
	// member of the team.
	ErrDuplicateMembership = membership.ErrDuplicate
)

// IsNotFound reports whether err is a resource-absence error. The 404
// versus 403 choice belongs to the boundary layer; this helper only
// classifies.
func IsNotFound(err error) bool {
	return errors.Is(err, team.ErrNotFound) ||
		errors.Is(err, project.ErrNotFound) ||
		errors.Is(err, environment.ErrNotFound) ||
		errors.Is(err, membership.ErrNotFound) ||
		errors.Is(err, decisionlog.ErrNotFound)
}
