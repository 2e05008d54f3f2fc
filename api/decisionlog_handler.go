package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/membership"
)

func (a *API) registerDecisionLogRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("decision-logs"))

	if err := g.GET("/decision-logs", a.listDecisions,
		forge.WithSummary("Query decision logs"),
		forge.WithDescription("Returns authorization decision audit entries with optional filters. Requires the admin role on some team."),
		forge.WithOperationID("listDecisionLogs"),
		forge.WithRequestSchema(ListDecisionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Decision log list", []*decisionlog.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/decision-logs/purge", a.purgeDecisions,
		forge.WithSummary("Purge decision logs"),
		forge.WithDescription("Deletes decision log entries older than the given time. Requires the admin role on some team."),
		forge.WithOperationID("purgeDecisionLogs"),
		forge.WithRequestSchema(PurgeDecisionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeDecisionsResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listDecisions(ctx forge.Context, req *ListDecisionsRequest) ([]*decisionlog.Entry, error) {
	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcAnyTeamRole,
		MinRole:   membership.RoleAdmin,
	}); err != nil {
		return nil, mapError(err)
	}

	filter := &decisionlog.QueryFilter{
		PrincipalID: req.PrincipalID,
		Procedure:   req.Procedure,
		Decision:    req.Decision,
		TeamID:      req.TeamID,
		Limit:       defaultLimit(req.Limit),
		Offset:      req.Offset,
	}

	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	logs, err := a.store().ListDecisions(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return logs, ctx.JSON(http.StatusOK, logs)
}

func (a *API) purgeDecisions(ctx forge.Context, req *PurgeDecisionsRequest) (*PurgeDecisionsResponse, error) {
	if err := a.gate.Enforce(ctx.Context(), principal(ctx), bastion.Capability{
		Procedure: bastion.ProcAnyTeamRole,
		MinRole:   membership.RoleAdmin,
	}); err != nil {
		return nil, mapError(err)
	}

	before, err := time.Parse(time.RFC3339, req.Before)
	if err != nil {
		return nil, forge.BadRequest("invalid before timestamp")
	}

	purged, err := a.store().PurgeDecisions(ctx.Context(), before)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PurgeDecisionsResponse{Purged: purged}
	return resp, ctx.JSON(http.StatusOK, resp)
}
