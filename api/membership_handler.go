package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
)

func (a *API) registerMembershipRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("memberships"))

	if err := g.POST("/teams/:teamId/members", a.addMember,
		forge.WithSummary("Add member"),
		forge.WithDescription("Adds a principal to a team. Requires the admin role."),
		forge.WithOperationID("addMember"),
		forge.WithRequestSchema(AddMemberRequest{}),
		forge.WithCreatedResponse(&membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/teams/:teamId/members/:principalId", a.updateMemberRole,
		forge.WithSummary("Change member role"),
		forge.WithDescription("Changes a member's role. Requires the admin role; a team's last admin cannot be downgraded."),
		forge.WithOperationID("updateMemberRole"),
		forge.WithRequestSchema(UpdateMemberRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated membership", &membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/teams/:teamId/members/:principalId", a.removeMember,
		forge.WithSummary("Remove member"),
		forge.WithDescription("Removes a member. Admins may remove anyone, members may remove themselves; a team's last admin cannot be removed."),
		forge.WithOperationID("removeMember"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/teams/:teamId/members", a.listMembers,
		forge.WithSummary("List members"),
		forge.WithDescription("Lists a team's members. Requires membership."),
		forge.WithOperationID("listMembers"),
		forge.WithRequestSchema(ListMembersRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Membership list", []*membership.Membership{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) addMember(ctx forge.Context, req *AddMemberRequest) (*membership.Membership, error) {
	teamID, err := id.ParseTeamID(ctx.Param("teamId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid team ID: %v", err))
	}
	if req.PrincipalID == "" {
		return nil, forge.BadRequest("principal_id is required")
	}
	role := membership.Role(req.Role)
	if !role.Valid() {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role %q", req.Role))
	}

	caller := principal(ctx)
	if err := a.gate.Enforce(ctx.Context(), caller, bastion.Capability{
		Procedure: bastion.ProcTeamRole,
		TeamID:    teamID,
		MinRole:   membership.RoleAdmin,
	}); err != nil {
		return nil, mapError(err)
	}

	now := time.Now().UTC()
	m := &membership.Membership{
		ID:          id.NewMembershipID(),
		TeamID:      teamID,
		PrincipalID: req.PrincipalID,
		Role:        role,
		GrantedBy:   string(caller),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store().CreateMembership(ctx.Context(), m); err != nil {
		return nil, mapError(err)
	}

	if p := a.plugins(); p != nil {
		p.EmitMemberAdded(ctx.Context(), m)
	}

	return m, ctx.JSON(http.StatusCreated, m)
}

func (a *API) updateMemberRole(ctx forge.Context, req *UpdateMemberRoleRequest) (*membership.Membership, error) {
	teamID, err := id.ParseTeamID(ctx.Param("teamId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid team ID: %v", err))
	}
	principalID := ctx.Param("principalId")
	newRole := membership.Role(req.Role)
	if !newRole.Valid() {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role %q", req.Role))
	}

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcTeamRole,
		TeamID:    teamID,
		MinRole:   membership.RoleAdmin,
	}); err != nil {
		return nil, mapError(err)
	}

	current, err := a.store().GetMembership(ctx.Context(), teamID, principalID)
	if err != nil {
		return nil, mapError(err)
	}

	// Downgrading the only admin would strand the team, same as removal.
	if current.Role == membership.RoleAdmin && !newRole.AtLeast(membership.RoleAdmin) {
		admins, err := a.store().CountTeamAdmins(ctx.Context(), teamID)
		if err != nil {
			return nil, mapError(err)
		}
		if admins <= 1 {
			return nil, mapError(bastion.ErrLastAdmin)
		}
	}

	if err := a.store().UpdateMembershipRole(ctx.Context(), teamID, principalID, newRole); err != nil {
		return nil, mapError(err)
	}

	current.Role = newRole
	current.UpdatedAt = time.Now().UTC()

	if p := a.plugins(); p != nil {
		p.EmitMemberRoleChanged(ctx.Context(), current)
	}

	return current, ctx.JSON(http.StatusOK, current)
}

func (a *API) removeMember(ctx forge.Context, _ *MemberPathRequest) (*struct{}, error) {
	teamID, err := id.ParseTeamID(ctx.Param("teamId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid team ID: %v", err))
	}
	principalID := ctx.Param("principalId")

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcCanRemoveMember,
		TeamID:    teamID,
		MemberID:  bastion.PrincipalID(principalID),
	}); err != nil {
		return nil, mapError(err)
	}

	if err := a.store().DeleteMembership(ctx.Context(), teamID, principalID); err != nil {
		return nil, mapError(err)
	}

	if p := a.plugins(); p != nil {
		p.EmitMemberRemoved(ctx.Context(), teamID, principalID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listMembers(ctx forge.Context, req *ListMembersRequest) ([]*membership.Membership, error) {
	teamID, err := id.ParseTeamID(ctx.Param("teamId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid team ID: %v", err))
	}

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcTeamMembership,
		TeamID:    teamID,
	}); err != nil {
		return nil, mapError(err)
	}

	filter := &membership.ListFilter{
		TeamID: &teamID,
		Role:   membership.Role(req.Role),
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	members, err := a.store().ListMemberships(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return members, ctx.JSON(http.StatusOK, members)
}
