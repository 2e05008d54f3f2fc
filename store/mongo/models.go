package mongo

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
	ID              string         `grove:"id,pk"      bson:"_id"`
	Name            string         `grove:"name"       bson:"name"`
	Slug            string         `grove:"slug"       bson:"slug"`
	Metadata        map[string]any `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at" bson:"updated_at"`
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
	ID              string    `grove:"id,pk"        bson:"_id"`
	TeamID          string    `grove:"team_id"      bson:"team_id"`
	PrincipalID     string    `grove:"principal_id" bson:"principal_id"`
	Role            string    `grove:"role"         bson:"role"`
	GrantedBy       string    `grove:"granted_by"   bson:"granted_by,omitempty"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"   bson:"updated_at"`
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
	ID              string         `grove:"id,pk"      bson:"_id"`
	Name            string         `grove:"name"       bson:"name"`
	OwnerID         string         `grove:"owner_id"   bson:"owner_id"`
	TeamID          *string        `grove:"team_id"    bson:"team_id,omitempty"`
	Metadata        map[string]any `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at" bson:"updated_at"`
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
	ID              string         `grove:"id,pk"      bson:"_id"`
	Name            string         `grove:"name"       bson:"name"`
	CreatorID       string         `grove:"creator_id" bson:"creator_id"`
	ProjectID       string         `grove:"project_id" bson:"project_id"`
	Metadata        map[string]any `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at" bson:"created_at"`
	UpdatedAt       time.Time      `grove:"updated_at" bson:"updated_at"`
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
	ID              string    `grove:"id,pk"          bson:"_id"`
	PrincipalID     string    `grove:"principal_id"   bson:"principal_id"`
	Procedure       string    `grove:"procedure"      bson:"procedure"`
	TeamID          string    `grove:"team_id"        bson:"team_id,omitempty"`
	ProjectID       string    `grove:"project_id"     bson:"project_id,omitempty"`
	EnvironmentID   string    `grove:"environment_id" bson:"environment_id,omitempty"`
	MemberID        string    `grove:"member_id"      bson:"member_id,omitempty"`
	Decision        string    `grove:"decision"       bson:"decision"`
	Reason          string    `grove:"reason"         bson:"reason,omitempty"`
	EvalTimeNs      int64     `grove:"eval_time_ns"   bson:"eval_time_ns"`
	CreatedAt       time.Time `grove:"created_at"     bson:"created_at"`
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
