package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
)

func (a *API) registerEnvironmentRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("environments"))

	if err := g.POST("/projects/:projectId/environments", a.createEnvironment,
		forge.WithSummary("Create environment"),
		forge.WithDescription("Creates an environment under a project. Requires project access; the caller becomes the creator."),
		forge.WithOperationID("createEnvironment"),
		forge.WithRequestSchema(CreateEnvironmentRequest{}),
		forge.WithCreatedResponse(&environment.Environment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/environments/:environmentId", a.getEnvironment,
		forge.WithSummary("Get environment"),
		forge.WithDescription("Returns an environment. Access derives from its project."),
		forge.WithOperationID("getEnvironment"),
		forge.WithResponseSchema(http.StatusOK, "Environment details", &environment.Environment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/environments/:environmentId", a.deleteEnvironment,
		forge.WithSummary("Delete environment"),
		forge.WithDescription("Deletes an environment. Requires being its creator or an admin of the project's team."),
		forge.WithOperationID("deleteEnvironment"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/projects/:projectId/environments", a.listEnvironments,
		forge.WithSummary("List environments"),
		forge.WithDescription("Lists a project's environments. Requires project access."),
		forge.WithOperationID("listEnvironments"),
		forge.WithRequestSchema(ListEnvironmentsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Environment list", []*environment.Environment{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createEnvironment(ctx forge.Context, req *CreateEnvironmentRequest) (*environment.Environment, error) {
	projectID, err := id.ParseProjectID(ctx.Param("projectId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid project ID: %v", err))
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}

	caller := principal(ctx)
	if err := a.gate.Enforce(ctx.Context(), caller, bastion.Capability{
		Procedure: bastion.ProcProjectAccess,
		ProjectID: projectID,
	}); err != nil {
		return nil, mapError(err)
	}

	now := time.Now().UTC()
	e := &environment.Environment{
		ID:        id.NewEnvironmentID(),
		Name:      req.Name,
		CreatorID: string(caller),
		ProjectID: projectID,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store().CreateEnvironment(ctx.Context(), e); err != nil {
		return nil, mapError(err)
	}

	if p := a.plugins(); p != nil {
		p.EmitEnvironmentCreated(ctx.Context(), e)
	}

	return e, ctx.JSON(http.StatusCreated, e)
}

func (a *API) getEnvironment(ctx forge.Context, _ *GetEnvironmentRequest) (*environment.Environment, error) {
	envID, err := id.ParseEnvironmentID(ctx.Param("environmentId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid environment ID: %v", err))
	}

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure:     bastion.ProcEnvironmentAccess,
		EnvironmentID: envID,
	}); err != nil {
		return nil, mapError(err)
	}

	e, err := a.store().GetEnvironment(ctx.Context(), envID)
	if err != nil {
		return nil, mapError(err)
	}

	return e, ctx.JSON(http.StatusOK, e)
}

func (a *API) deleteEnvironment(ctx forge.Context, _ *GetEnvironmentRequest) (*struct{}, error) {
	envID, err := id.ParseEnvironmentID(ctx.Param("environmentId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid environment ID: %v", err))
	}

	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcOwnershipOrAdmin,
		Resource:  bastion.ResourceRef{Kind: bastion.KindEnvironment, ID: envID},
	}); err != nil {
		return nil, mapError(err)
	}

	if err := a.store().DeleteEnvironment(ctx.Context(), envID); err != nil {
		return nil, mapError(err)
	}

	if p := a.plugins(); p != nil {
		p.EmitEnvironmentDeleted(ctx.Context(), envID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listEnvironments(ctx forge.Context, req *ListEnvironmentsRequest) ([]*environment.Environment, error) {
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

	filter := &environment.ListFilter{
		ProjectID: &projectID,
		Limit:     defaultLimit(req.Limit),
		Offset:    req.Offset,
	}

	envs, err := a.store().ListEnvironments(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return envs, ctx.JSON(http.StatusOK, envs)
}
