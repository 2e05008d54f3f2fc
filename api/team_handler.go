package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/team"
)

func (a *API) registerTeamRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("teams"))

	if err := g.POST("/teams", a.createTeam,
		forge.WithSummary("Create team"),
		forge.WithDescription("Creates a team. The caller becomes its first admin."),
		forge.WithOperationID("createTeam"),
		forge.WithRequestSchema(CreateTeamRequest{}),
		forge.WithCreatedResponse(&team.Team{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/teams/:teamId", a.getTeam,
		forge.WithSummary("Get team"),
		forge.WithDescription("Returns a team. Requires membership."),
		forge.WithOperationID("getTeam"),
		forge.WithResponseSchema(http.StatusOK, "Team details", &team.Team{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/teams/:teamId", a.updateTeam,
		forge.WithSummary("Update team"),
		forge.WithDescription("Updates a team. Requires the admin role."),
		forge.WithOperationID("updateTeam"),
		forge.WithRequestSchema(UpdateTeamRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated team", &team.Team{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/teams/:teamId", a.deleteTeam,
		forge.WithSummary("Delete team"),
		forge.WithDescription("Deletes a team and its memberships. Requires the admin role."),
		forge.WithOperationID("deleteTeam"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/teams", a.listTeams,
		forge.WithSummary("List teams"),
		forge.WithDescription("Lists teams with optional filters."),
		forge.WithOperationID("listTeams"),
		forge.WithRequestSchema(ListTeamsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Team list", []*team.Team{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createTeam(ctx forge.Context, req *CreateTeamRequest) (*team.Team, error) {
	caller := principal(ctx)
	if caller == "" {
		return nil, mapError(bastion.ErrUnauthorized)
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}
	if req.Slug == "" {
		return nil, forge.BadRequest("slug is required")
	}

	now := time.Now().UTC()
	t := &team.Team{
		ID:        id.NewTeamID(),
		Name:      req.Name,
		Slug:      req.Slug,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store().CreateTeam(ctx.Context(), t); err != nil {
		return nil, mapError(err)
	}

	// Every team has an admin from the moment it exists.
	m := &membership.Membership{
		ID:          id.NewMembershipID(),
		TeamID:      t.ID,
		PrincipalID: string(caller),
		Role:        membership.RoleAdmin,
		GrantedBy:   string(caller),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store().CreateMembership(ctx.Context(), m); err != nil {
		return nil, mapError(err)
	}

	if p := a.plugins(); p != nil {
		p.EmitTeamCreated(ctx.Context(), t)
		p.EmitMemberAdded(ctx.Context(), m)
	}

	return t, ctx.JSON(http.StatusCreated, t)
}

func (a *API) getTeam(ctx forge.Context, _ *GetTeamRequest) (*team.Team, error) {
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

	t, err := a.store().GetTeam(ctx.Context(), teamID)
	if err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusOK, t)
}

func (a *API) updateTeam(ctx forge.Context, req *UpdateTeamRequest) (*team.Team, error) {
	teamID, err := id.ParseTeamID(ctx.Param("teamId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid team ID: %v", err))
	}

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcTeamRole,
		TeamID:    teamID,
		MinRole:   membership.RoleAdmin,
	}); err != nil {
		return nil, mapError(err)
	}

	t, err := a.store().GetTeam(ctx.Context(), teamID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Metadata != nil {
		t.Metadata = req.Metadata
	}
	t.UpdatedAt = time.Now().UTC()

	if err := a.store().UpdateTeam(ctx.Context(), t); err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusOK, t)
}

func (a *API) deleteTeam(ctx forge.Context, _ *GetTeamRequest) (*struct{}, error) {
	teamID, err := id.ParseTeamID(ctx.Param("teamId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid team ID: %v", err))
	}

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcTeamRole,
		TeamID:    teamID,
		MinRole:   membership.RoleAdmin,
	}); err != nil {
		return nil, mapError(err)
	}

	if err := a.store().DeleteMembershipsByTeam(ctx.Context(), teamID); err != nil {
		return nil, mapError(err)
	}
	if err := a.store().DeleteTeam(ctx.Context(), teamID); err != nil {
		return nil, mapError(err)
	}

	if p := a.plugins(); p != nil {
		p.EmitTeamDeleted(ctx.Context(), teamID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listTeams(ctx forge.Context, req *ListTeamsRequest) ([]*team.Team, error) {
	if principal(ctx) == "" {
		return nil, mapError(bastion.ErrUnauthorized)
	}

	filter := &team.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	teams, err := a.store().ListTeams(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return teams, ctx.JSON(http.StatusOK, teams)
}
