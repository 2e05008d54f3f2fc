package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/project"
)

func (a *API) registerProjectRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("projects"))

	if err := g.POST("/projects", a.createProject,
		forge.WithSummary("Create project"),
		forge.WithDescription("Creates a project owned by the caller, optionally attributed to a team."),
		forge.WithOperationID("createProject"),
		forge.WithRequestSchema(CreateProjectRequest{}),
		forge.WithCreatedResponse(&project.Project{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/projects/:projectId", a.getProject,
		forge.WithSummary("Get project"),
		forge.WithDescription("Returns a project. Requires ownership or membership of its team."),
		forge.WithOperationID("getProject"),
		forge.WithResponseSchema(http.StatusOK, "Project details", &project.Project{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/projects/:projectId", a.updateProject,
		forge.WithSummary("Update project"),
		forge.WithDescription("Updates a project. Requires ownership or the admin role on its team."),
		forge.WithOperationID("updateProject"),
		forge.WithRequestSchema(UpdateProjectRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated project", &project.Project{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/projects/:projectId", a.deleteProject,
		forge.WithSummary("Delete project"),
		forge.WithDescription("Deletes a project. Only the owner may delete it."),
		forge.WithOperationID("deleteProject"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/projects", a.listProjects,
		forge.WithSummary("List projects"),
		forge.WithDescription("Lists projects with optional filters."),
		forge.WithOperationID("listProjects"),
		forge.WithRequestSchema(ListProjectsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Project list", []*project.Project{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createProject(ctx forge.Context, req *CreateProjectRequest) (*project.Project, error) {
	caller := principal(ctx)
	if caller == "" {
		return nil, mapError(bastion.ErrUnauthorized)
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	now := time.Now().UTC()
	p := &project.Project{
		ID:        id.NewProjectID(),
		Name:      req.Name,
		OwnerID:   string(caller),
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if req.TeamID != "" {
		teamID, err := id.ParseTeamID(req.TeamID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid team_id: %v", err))
		}
		// Attribution requires membership of the target team.
		if err := a.gate.Enforce(ctx.Context(), caller, bastion.Capability{
			Procedure: bastion.ProcTeamMembership,
			TeamID:    teamID,
		}); err != nil {
			return nil, mapError(err)
		}
		p.TeamID = &teamID
	}

	if err := a.store().CreateProject(ctx.Context(), p); err != nil {
		return nil, mapError(err)
	}

	if pl := a.plugins(); pl != nil {
		pl.EmitProjectCreated(ctx.Context(), p)
	}

	return p, ctx.JSON(http.StatusCreated, p)
}

func (a *API) getProject(ctx forge.Context, _ *GetProjectRequest) (*project.Project, error) {
	projectID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcProjectAccess,
		ProjectID: projectID,
	}); err != nil {
		return nil, mapError(err)
	}

	p, err := a.store().GetProject(ctx.Context(), projectID)
	if err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) updateProject(ctx forge.Context, req *UpdateProjectRequest) (*project.Project, error) {
	projectID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}

	caller := principal(ctx)
	if err := a.gate.Enforce(ctx.Context(), caller, bastion.Capability{
		Procedure: bastion.ProcOwnershipOrAdmin,
		Resource:  bastion.ResourceRef{Kind: bastion.KindProject, ID: projectID},
	}); err != nil {
		return nil, mapError(err)
	}

	p, err := a.store().GetProject(ctx.Context(), projectID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Name != "" {
		p.Name = req.Name
	}
	if req.TeamID != nil {
		if *req.TeamID == "" {
			p.TeamID = nil
		} else {
			teamID, err := id.ParseTeamID(*req.TeamID)
			if err != nil {
				return nil, forge.BadRequest(fmt.Sprintf("invalid team_id: %v", err))
			}
			if err := a.gate.Enforce(ctx.Context(), caller, bastion.Capability{
				Procedure: bastion.ProcTeamMembership,
				TeamID:    teamID,
			}); err != nil {
				return nil, mapError(err)
			}
			p.TeamID = &teamID
		}
	}
	if req.Metadata != nil {
		p.Metadata = req.Metadata
	}
	p.UpdatedAt = time.Now().UTC()

	if err := a.store().UpdateProject(ctx.Context(), p); err != nil {
		return nil, mapError(err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) deleteProject(ctx forge.Context, _ *GetProjectRequest) (*struct{}, error) {
	projectID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcProjectOwnership,
		ProjectID: projectID,
	}); err != nil {
		return nil, mapError(err)
	}

	if err := a.store().DeleteProject(ctx.Context(), projectID); err != nil {
		return nil, mapError(err)
	}

	if pl := a.plugins(); pl != nil {
		pl.EmitProjectDeleted(ctx.Context(), projectID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listProjects(ctx forge.Context, req *ListProjectsRequest) ([]*project.Project, error) {
	if principal(ctx) == "" {
		return nil, mapError(bastion.ErrUnauthorized)
	}

	filter := &project.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}
	if req.TeamID != "" {
		teamID, err := id.ParseTeamID(req.TeamID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid team_id: %v", err))
		}
		filter.TeamID = &teamID
	}

	projects, err := a.store().ListProjects(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return projects, ctx.JSON(http.StatusOK, projects)
}
