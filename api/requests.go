package api

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for a capability check.
type CheckRequest struct {
	PrincipalID   string `json:"principal_id" description:"Principal the check is evaluated for"`
	Procedure     string `json:"procedure" description:"Decision procedure (team_membership, team_role, project_access, project_ownership, environment_access, ownership_or_admin, any_team_role, can_remove_member)"`
	TeamID        string `json:"team_id,omitempty" description:"Team ID"`
	ProjectID     string `json:"project_id,omitempty" description:"Project ID"`
	EnvironmentID string `json:"environment_id,omitempty" description:"Environment ID"`
	ResourceKind  string `json:"resource_kind,omitempty" description:"Resource kind for ownership_or_admin (project, environment)"`
	ResourceID    string `json:"resource_id,omitempty" description:"Resource ID for ownership_or_admin"`
	MemberID      string `json:"member_id,omitempty" description:"Member principal for can_remove_member"`
	MinRole       string `json:"min_role,omitempty" description:"Minimum role (viewer, developer, admin)"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" description:"List of capability checks"`
}

// ──────────────────────────────────────────────────
// Team requests
// ──────────────────────────────────────────────────

// CreateTeamRequest is the body for creating a team.
type CreateTeamRequest struct {
	Name     string         `json:"name" description:"Team name"`
	Slug     string         `json:"slug" description:"URL-safe slug"`
	Metadata map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateTeamRequest is the body for updating a team.
type UpdateTeamRequest struct {
	Name     string         `json:"name,omitempty" description:"Team name"`
	Metadata map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetTeamRequest is the path parameter for getting a team.
type GetTeamRequest struct {
	TeamID string `path:"teamId" description:"Team ID"`
}

// ListTeamsRequest holds query parameters for listing teams.
type ListTeamsRequest struct {
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Membership requests
// ──────────────────────────────────────────────────

// AddMemberRequest is the body for adding a member to a team.
type AddMemberRequest struct {
	PrincipalID string `json:"principal_id" description:"Principal to add"`
	Role        string `json:"role" description:"Role (viewer, developer, admin)"`
}

// UpdateMemberRoleRequest is the body for changing a member's role.
type UpdateMemberRoleRequest struct {
	Role string `json:"role" description:"New role (viewer, developer, admin)"`
}

// MemberPathRequest holds the path parameters identifying a membership.
type MemberPathRequest struct {
	TeamID      string `path:"teamId" description:"Team ID"`
	PrincipalID string `path:"principalId" description:"Member principal"`
}

// ListMembersRequest holds query parameters for listing team members.
type ListMembersRequest struct {
	Role   string `query:"role" description:"Filter by role"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Project requests
// ──────────────────────────────────────────────────

// CreateProjectRequest is the body for creating a project. The caller
// becomes the owner.
type CreateProjectRequest struct {
	Name     string         `json:"name" description:"Project name"`
	TeamID   string         `json:"team_id,omitempty" description:"Team to attribute the project to"`
	Metadata map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateProjectRequest is the body for updating a project.
type UpdateProjectRequest struct {
	Name     string         `json:"name,omitempty" description:"Project name"`
	TeamID   *string        `json:"team_id,omitempty" description:"Team attribution (empty string detaches)"`
	Metadata map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetProjectRequest is the path parameter for getting a project.
type GetProjectRequest struct {
	ProjectID string `path:"projectId" description:"Project ID"`
}

// ListProjectsRequest holds query parameters for listing projects.
type ListProjectsRequest struct {
	TeamID string `query:"team_id" description:"Filter by team"`
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Environment requests
// ──────────────────────────────────────────────────

// CreateEnvironmentRequest is the body for creating an environment under
// a project. The caller becomes the creator.
type CreateEnvironmentRequest struct {
	Name     string         `json:"name" description:"Environment name"`
	Metadata map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetEnvironmentRequest is the path parameter for getting an environment.
type GetEnvironmentRequest struct {
	EnvironmentID string `path:"environmentId" description:"Environment ID"`
}

// ListEnvironmentsRequest holds query parameters for listing environments.
type ListEnvironmentsRequest struct {
	ProjectID string `path:"projectId" description:"Project ID"`
	Limit     int    `query:"limit" description:"Maximum results"`
	Offset    int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Decision log requests
// ──────────────────────────────────────────────────

// ListDecisionsRequest holds query parameters for the decision log.
type ListDecisionsRequest struct {
	PrincipalID string `query:"principal_id" description:"Filter by principal"`
	Procedure   string `query:"procedure" description:"Filter by procedure"`
	Decision    string `query:"decision" description:"Filter by decision (allow, deny)"`
	TeamID      string `query:"team_id" description:"Filter by team"`
	After       string `query:"after" description:"Only entries after this time (RFC3339)"`
	Before      string `query:"before" description:"Only entries before this time (RFC3339)"`
	Limit       int    `query:"limit" description:"Maximum results"`
	Offset      int    `query:"offset" description:"Results to skip"`
}

// PurgeDecisionsRequest is the body for pruning old decision log entries.
type PurgeDecisionsRequest struct {
	Before string `json:"before" description:"Delete entries created before this time (RFC3339)"`
}
