package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/team"
)

// ──────────────────────────────────────────────────
// Team model
// ──────────────────────────────────────────────────

type teamModel struct {
	grove.BaseModel `grove:"table:bastion_teams"`
	ID              string         `grove:"id,pk"`
	Name            string         `grove:"name,notnull"`
	Slug            string         `grove:"slug,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func teamToModel(t *team.Team) *teamModel {
	return &teamModel{
		ID:        t.ID.String(),
		Name:      t.Name,
		Slug:      t.Slug,
		Metadata:  t.Metadata,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func teamFromModel(m *teamModel) *team.Team {
	tid, _ := id.ParseTeamID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &team.Team{
		ID:        tid,
		Name:      m.Name,
		Slug:      m.Slug,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Membership model
// ──────────────────────────────────────────────────

type membershipModel struct {
	grove.BaseModel `grove:"table:bastion_memberships"`
	ID              string    `grove:"id,pk"`
	TeamID          string    `grove:"team_id,notnull"`
	PrincipalID     string    `grove:"principal_id,notnull"`
	Role            string    `grove:"role,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func membershipToModel(m *membership.Membership) *membershipModel {
	return &membershipModel{
		ID:          m.ID.String(),
		TeamID:      m.TeamID.String(),
		PrincipalID: m.PrincipalID,
		Role:        string(m.Role),
		GrantedBy:   m.GrantedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func membershipFromModel(m *membershipModel) *membership.Membership {
	mid, _ := id.ParseMembershipID(m.ID) //nolint:errcheck // stored IDs are always valid
	tid, _ := id.ParseTeamID(m.TeamID)   //nolint:errcheck
	return &membership.Membership{
		ID:          mid,
		TeamID:      tid,
		PrincipalID: m.PrincipalID,
		Role:        membership.Role(m.Role),
		GrantedBy:   m.GrantedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Project model
// ──────────────────────────────────────────────────

type projectModel struct {
	grove.BaseModel `grove:"table:bastion_projects"`
	ID              string         `grove:"id,pk"`
	Name            string         `grove:"name,notnull"`
	OwnerID         string         `grove:"owner_id,notnull"`
	TeamID          *string        `grove:"team_id"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func projectToModel(p *project.Project) *projectModel {
	m := &projectModel{
		ID:        p.ID.String(),
		Name:      p.Name,
		OwnerID:   p.OwnerID,
		Metadata:  p.Metadata,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.TeamID != nil {
		s := p.TeamID.String()
		m.TeamID = &s
	}
	return m
}

func projectFromModel(m *projectModel) *project.Project {
	pid, _ := id.ParseProjectID(m.ID) //nolint:errcheck // stored IDs are always valid
	p := &project.Project{
		ID:        pid,
		Name:      m.Name,
		OwnerID:   m.OwnerID,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.TeamID != nil {
		tid, err := id.ParseTeamID(*m.TeamID)
		if err == nil {
			p.TeamID = &tid
		}
	}
	return p
}

func projectOwnershipFromModel(m *projectModel) *project.Ownership {
	own := &project.Ownership{OwnerID: m.OwnerID}
	if m.TeamID != nil {
		tid, err := id.ParseTeamID(*m.TeamID)
		if err == nil {
			own.TeamID = &tid
		}
	}
	return own
}

// ──────────────────────────────────────────────────
// Environment model
// ──────────────────────────────────────────────────

type environmentModel struct {
	grove.BaseModel `grove:"table:bastion_environments"`
	ID              string         `grove:"id,pk"`
	Name            string         `grove:"name,notnull"`
	CreatorID       string         `grove:"creator_id,notnull"`
	ProjectID       string         `grove:"project_id,notnull"`
	Metadata        map[string]any `grove:"metadata,type:jsonb"`
	CreatedAt       time.Time      `grove:"created_at,notnull"`
	UpdatedAt       time.Time      `grove:"updated_at,notnull"`
}

func environmentToModel(e *environment.Environment) *environmentModel {
	return &environmentModel{
		ID:        e.ID.String(),
		Name:      e.Name,
		CreatorID: e.CreatorID,
		ProjectID: e.ProjectID.String(),
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func environmentFromModel(m *environmentModel) *environment.Environment {
	eid, _ := id.ParseEnvironmentID(m.ID)    //nolint:errcheck // stored IDs are always valid
	pid, _ := id.ParseProjectID(m.ProjectID) //nolint:errcheck
	return &environment.Environment{
		ID:        eid,
		Name:      m.Name,
		CreatorID: m.CreatorID,
		ProjectID: pid,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func environmentOwnershipFromModel(m *environmentModel) *environment.Ownership {
	pid, _ := id.ParseProjectID(m.ProjectID) //nolint:errcheck // stored IDs are always valid
	return &environment.Ownership{
		CreatorID: m.CreatorID,
		ProjectID: pid,
	}
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionLogModel struct {
	grove.BaseModel `grove:"table:bastion_decision_logs"`
	ID              string    `grove:"id,pk"`
	PrincipalID     string    `grove:"principal_id,notnull"`
	Procedure       string    `grove:"procedure,notnull"`
	TeamID          string    `grove:"team_id"`
	ProjectID       string    `grove:"project_id"`
	EnvironmentID   string    `grove:"environment_id"`
	MemberID        string    `grove:"member_id"`
	Decision        string    `grove:"decision,notnull"`
	Reason          string    `grove:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func decisionToModel(e *decisionlog.Entry) *decisionLogModel {
	return &decisionLogModel{
		ID:            e.ID.String(),
		PrincipalID:   e.PrincipalID,
		Procedure:     e.Procedure,
		TeamID:        e.TeamID,
		ProjectID:     e.ProjectID,
		EnvironmentID: e.EnvironmentID,
		MemberID:      e.MemberID,
		Decision:      e.Decision,
		Reason:        e.Reason,
		EvalTimeNs:    e.EvalTimeNs,
		CreatedAt:     e.CreatedAt,
	}
}

func decisionFromModel(m *decisionLogModel) *decisionlog.Entry {
	did, _ := id.ParseDecisionLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &decisionlog.Entry{
		ID:            did,
		PrincipalID:   m.PrincipalID,
		Procedure:     m.Procedure,
		TeamID:        m.TeamID,
		ProjectID:     m.ProjectID,
		EnvironmentID: m.EnvironmentID,
		MemberID:      m.MemberID,
		Decision:      m.Decision,
		Reason:        m.Reason,
		EvalTimeNs:    m.EvalTimeNs,
		CreatedAt:     m.CreatedAt,
	}
}
