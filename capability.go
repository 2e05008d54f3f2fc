package bastion

import (
	"fmt"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
)

// Procedure names one of the eight decision procedures. Each protected
// operation declares the procedure it requires; the gate interprets the
// descriptor with a single generic enforcement path, so the set of
// enforceable capabilities stays enumerable.
type Procedure string

const (
	// ProcTeamMembership: the principal must be a member of the team.
	ProcTeamMembership Procedure = "team_membership"

	// ProcTeamRole: the principal must hold at least MinRole on the team.
	ProcTeamRole Procedure = "team_role"

	// ProcProjectAccess: the principal must own the project or belong to
	// its team.
	ProcProjectAccess Procedure = "project_access"

	// ProcProjectOwnership: the principal must be the project owner.
	// Not delegable to team members regardless of role.
	ProcProjectOwnership Procedure = "project_ownership"

	// ProcEnvironmentAccess: project access, derived transitively through
	// the environment's project.
	ProcEnvironmentAccess Procedure = "environment_access"

	// ProcOwnershipOrAdmin: the principal must own the resource or be an
	// admin of its (possibly transitive) team.
	ProcOwnershipOrAdmin Procedure = "ownership_or_admin"

	// ProcAnyTeamRole: the principal must hold at least MinRole on some
	// team. Platform-wide, not resource-scoped.
	ProcAnyTeamRole Procedure = "any_team_role"

	// ProcCanRemoveMember: the principal may remove MemberID from the
	// team, subject to last-admin protection.
	ProcCanRemoveMember Procedure = "can_remove_member"
)

// Capability is the declarative descriptor of a required capability: a
// procedure plus the identifiers it operates on. Only the fields the
// procedure needs are consulted; Validate rejects descriptors missing
// them.
type Capability struct {
	Procedure     Procedure        `json:"procedure"`
	TeamID        id.TeamID        `json:"team_id,omitzero"`
	ProjectID     id.ProjectID     `json:"project_id,omitzero"`
	EnvironmentID id.EnvironmentID `json:"environment_id,omitzero"`
	Resource      ResourceRef      `json:"resource,omitzero"`
	MemberID      PrincipalID      `json:"member_id,omitempty"`
	MinRole       membership.Role  `json:"min_role,omitempty"`
}

// Validate checks that the descriptor carries the parameters its
// procedure requires.
func (c Capability) Validate() error {
	switch c.Procedure {
	case ProcTeamMembership:
		if c.TeamID.IsNil() {
			return fmt.Errorf("%w: %s requires a team id", ErrInvalidCapability, c.Procedure)
		}
	case ProcTeamRole:
		if c.TeamID.IsNil() {
			return fmt.Errorf("%w: %s requires a team id", ErrInvalidCapability, c.Procedure)
		}
		if !c.MinRole.Valid() {
			return fmt.Errorf("%w: %s requires a valid min role, got %q", ErrInvalidCapability, c.Procedure, c.MinRole)
		}
	case ProcProjectAccess, ProcProjectOwnership:
		if c.ProjectID.IsNil() {
			return fmt.Errorf("%w: %s requires a project id", ErrInvalidCapability, c.Procedure)
		}
	case ProcEnvironmentAccess:
		if c.EnvironmentID.IsNil() {
			return fmt.Errorf("%w: %s requires an environment id", ErrInvalidCapability, c.Procedure)
		}
	case ProcOwnershipOrAdmin:
		if c.Resource.Kind != KindProject && c.Resource.Kind != KindEnvironment {
			return fmt.Errorf("%w: %s requires a resource kind of project or environment", ErrInvalidCapability, c.Procedure)
		}
		if c.Resource.ID.IsNil() {
			return fmt.Errorf("%w: %s requires a resource id", ErrInvalidCapability, c.Procedure)
		}
	case ProcAnyTeamRole:
		if !c.MinRole.Valid() {
			return fmt.Errorf("%w: %s requires a valid min role, got %q", ErrInvalidCapability, c.Procedure, c.MinRole)
		}
	case ProcCanRemoveMember:
		if c.TeamID.IsNil() {
			return fmt.Errorf("%w: %s requires a team id", ErrInvalidCapability, c.Procedure)
		}
		if c.MemberID == "" {
			return fmt.Errorf("%w: %s requires a member id", ErrInvalidCapability, c.Procedure)
		}
	default:
		return fmt.Errorf("%w: unknown procedure %q", ErrInvalidCapability, c.Procedure)
	}
	return nil
}
