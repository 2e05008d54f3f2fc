package bastion

// Decision is the outcome class of a decision procedure.
type Decision string

const (
	// DecisionAllow means the principal holds the required capability.
	DecisionAllow Decision = "allow"

	// DecisionDeny means the principal is known but lacks the capability.
	DecisionDeny Decision = "deny"
)

// Reason is the machine-readable cause of a denial. Reasons exist for
// audit logging; boundary layers should present a uniform generic message
// externally so a caller cannot learn which check failed.
type Reason string

const (
	// ReasonNotAMember: the principal has no membership on the team.
	ReasonNotAMember Reason = "not-a-member"

	// ReasonInsufficientRole: the principal is a member but below the
	// required role.
	ReasonInsufficientRole Reason = "insufficient-role"

	// ReasonNotOwner: the principal is not the recorded owner.
	ReasonNotOwner Reason = "not-owner"

	// ReasonNoProjectAccess: neither ownership nor team membership grants
	// access to the project.
	ReasonNoProjectAccess Reason = "no-project-access"

	// ReasonNoEnvironmentAccess: the transitive project check failed.
	ReasonNoEnvironmentAccess Reason = "no-environment-access"

	// ReasonInsufficientPermissions: neither ownership nor team admin
	// satisfies the ownership-or-admin check.
	ReasonInsufficientPermissions Reason = "insufficient-permissions"

	// ReasonNoQualifyingTeam: no membership of the principal satisfies
	// the platform-wide role requirement.
	ReasonNoQualifyingTeam Reason = "no-qualifying-team"

	// ReasonLastAdmin: removing the member would leave the team without
	// an admin.
	ReasonLastAdmin Reason = "last-admin"
)

// Verdict is the outcome of a single decision procedure invocation.
// A Verdict is only produced when the decision could be computed; resource
// absence and store failures surface as errors, never as a deny.
type Verdict struct {
	Allowed    bool      `json:"allowed"`
	Decision   Decision  `json:"decision"`
	Reason     Reason    `json:"reason,omitempty"`
	Procedure  Procedure `json:"procedure,omitempty"`
	EvalTimeNs int64     `json:"eval_time_ns"`
}

func allow() *Verdict {
	return &Verdict{Allowed: true, Decision: DecisionAllow}
}

func deny(reason Reason) *Verdict {
	return &Verdict{Decision: DecisionDeny, Reason: reason}
}
