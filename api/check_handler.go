package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Capability check"),
		forge.WithDescription("Evaluates whether the principal holds the described capability."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce capability"),
		forge.WithDescription("Returns 200 if the capability is held, 403 if not."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch capability check"),
		forge.WithDescription("Evaluates multiple capability checks in one request."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	cap, err := toCapability(req)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	v, err := a.gate.Check(ctx.Context(), bastion.PrincipalID(req.PrincipalID), cap)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(v)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	cap, err := toCapability(req)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	v, err := a.gate.Check(ctx.Context(), bastion.PrincipalID(req.PrincipalID), cap)
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(v)
	if !v.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	results := make([]CheckResponse, len(req.Checks))
	for i := range req.Checks {
		c := &req.Checks[i]
		cap, err := toCapability(c)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("check %d: %v", i, err))
		}
		v, err := a.gate.Check(ctx.Context(), bastion.PrincipalID(c.PrincipalID), cap)
		if err != nil {
			return nil, mapError(err)
		}
		results[i] = *toCheckResponse(v)
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func toCapability(r *CheckRequest) (bastion.Capability, error) {
	cap := bastion.Capability{
		Procedure: bastion.Procedure(r.Procedure),
		MemberID:  bastion.PrincipalID(r.MemberID),
		MinRole:   membership.Role(r.MinRole),
	}

	if r.TeamID != "" {
		teamID, err := id.ParseTeamID(r.TeamID)
		if err != nil {
			return cap, fmt.Errorf("invalid team_id: %w", err)
		}
		cap.TeamID = teamID
	}
	if r.ProjectID != "" {
		projectID, err := id.ParseProjectID(r.ProjectID)
		if err != nil {
			return cap, fmt.Errorf("invalid project_id: %w", err)
		}
		cap.ProjectID = projectID
	}
	if r.EnvironmentID != "" {
		envID, err := id.ParseEnvironmentID(r.EnvironmentID)
		if err != nil {
			return cap, fmt.Errorf("invalid environment_id: %w", err)
		}
		cap.EnvironmentID = envID
	}
	if r.ResourceID != "" {
		resID, err := id.ParseAny(r.ResourceID)
		if err != nil {
			return cap, fmt.Errorf("invalid resource_id: %w", err)
		}
		cap.Resource = bastion.ResourceRef{
			Kind: bastion.ResourceKind(r.ResourceKind),
			ID:   resID,
		}
	}

	return cap, nil
}

func toCheckResponse(v *bastion.Verdict) *CheckResponse {
	return &CheckResponse{
		Allowed:    v.Allowed,
		Decision:   string(v.Decision),
		Reason:     string(v.Reason),
		Procedure:  string(v.Procedure),
		EvalTimeNs: v.EvalTimeNs,
	}
}
