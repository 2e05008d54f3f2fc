// Package sqlite provides a SQLite implementation of the Bastion
// composite store using grove ORM with Go-based migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/store"
	"github.com/xraph/bastion/team"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite Bastion store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("bastion/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bastion/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Team operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTeam(ctx context.Context, t *team.Team) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	m, err := teamToModel(t)
	if err != nil {
		return fmt.Errorf("bastion: create team: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create team: %w", err)
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, teamID id.TeamID) (*team.Team, error) {
	m := new(teamModel)
	err := s.sdb.NewSelect(m).Where("id = ?", teamID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("team %s: %w", teamID, team.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get team: %w", err)
	}
	t, err := teamFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("bastion: get team: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTeam(ctx context.Context, t *team.Team) error {
	t.UpdatedAt = time.Now().UTC()
	m, err := teamToModel(t)
	if err != nil {
		return fmt.Errorf("bastion: update team: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("bastion: update team: %w", err)
	}
	return nil
}

func (s *Store) DeleteTeam(ctx context.Context, teamID id.TeamID) error {
	_, err := s.sdb.NewDelete((*teamModel)(nil)).
		Where("id = ?", teamID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete team: %w", err)
	}
	return nil
}

func (s *Store) ListTeams(ctx context.Context, filter *team.ListFilter) ([]*team.Team, error) {
	var models []teamModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list teams: %w", err)
	}
	teams := make([]*team.Team, 0, len(models))
	for i := range models {
		t, err := teamFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("bastion: list teams: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, nil
}

func (s *Store) CountTeams(ctx context.Context, filter *team.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*teamModel)(nil))
	if filter != nil && filter.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count teams: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.Membership) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	res, err := s.sdb.NewInsert(membershipToModel(m)).
		OnConflict("(team_id, principal_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: create membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bastion: create membership rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("principal %s on team %s: %w", m.PrincipalID, m.TeamID, membership.ErrDuplicate)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, teamID id.TeamID, principalID string) (*membership.Membership, error) {
	m := new(membershipModel)
	err := s.sdb.NewSelect(m).
		Where("team_id = ?", teamID.String()).
		Where("principal_id = ?", principalID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get membership: %w", err)
	}
	return membershipFromModel(m), nil
}

func (s *Store) UpdateMembershipRole(ctx context.Context, teamID id.TeamID, principalID string, role membership.Role) error {
	res, err := s.sdb.NewUpdate((*membershipModel)(nil)).
		Set("role = ?", string(role)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("team_id = ?", teamID.String()).
		Where("principal_id = ?", principalID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update membership role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bastion: update membership role rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteMembership(ctx context.Context, teamID id.TeamID, principalID string) error {
	res, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("team_id = ?", teamID.String()).
		Where("principal_id = ?", principalID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bastion: delete membership rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.TeamID != nil {
			q = q.Where("team_id = ?", filter.TeamID.String())
		}
		if filter.PrincipalID != "" {
			q = q.Where("principal_id = ?", filter.PrincipalID)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", string(filter.Role))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list memberships: %w", err)
	}
	members := make([]*membership.Membership, 0, len(models))
	for i := range models {
		members = append(members, membershipFromModel(&models[i]))
	}
	return members, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*membershipModel)(nil))
	if filter != nil {
		if filter.TeamID != nil {
			q = q.Where("team_id = ?", filter.TeamID.String())
		}
		if filter.PrincipalID != "" {
			q = q.Where("principal_id = ?", filter.PrincipalID)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", string(filter.Role))
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) ListPrincipalMemberships(ctx context.Context, principalID string) ([]*membership.Membership, error) {
	var models []membershipModel
	err := s.sdb.NewSelect(&models).
		Where("principal_id = ?", principalID).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list principal memberships: %w", err)
	}
	members := make([]*membership.Membership, 0, len(models))
	for i := range models {
		members = append(members, membershipFromModel(&models[i]))
	}
	return members, nil
}

func (s *Store) CountTeamAdmins(ctx context.Context, teamID id.TeamID) (int64, error) {
	count, err := s.sdb.NewSelect((*membershipModel)(nil)).
		Where("team_id = ?", teamID.String()).
		Where("role = ?", string(membership.RoleAdmin)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count team admins: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteMembershipsByTeam(ctx context.Context, teamID id.TeamID) error {
	_, err := s.sdb.NewDelete((*membershipModel)(nil)).
		Where("team_id = ?", teamID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete memberships by team: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Project operations
// ──────────────────────────────────────────────────

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m, err := projectToModel(p)
	if err != nil {
		return fmt.Errorf("bastion: create project: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID id.ProjectID) (*project.Project, error) {
	m := new(projectModel)
	err := s.sdb.NewSelect(m).Where("id = ?", projectID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get project: %w", err)
	}
	p, err := projectFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("bastion: get project: %w", err)
	}
	return p, nil
}

func (s *Store) GetProjectOwnership(ctx context.Context, projectID id.ProjectID) (*project.Ownership, error) {
	m := new(projectModel)
	err := s.sdb.NewSelect(m).Where("id = ?", projectID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get project ownership: %w", err)
	}
	return projectOwnershipFromModel(m), nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	p.UpdatedAt = time.Now().UTC()
	m, err := projectToModel(p)
	if err != nil {
		return fmt.Errorf("bastion: update project: %w", err)
	}
	if _, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("bastion: update project: %w", err)
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID id.ProjectID) error {
	_, err := s.sdb.NewDelete((*projectModel)(nil)).
		Where("id = ?", projectID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete project: %w", err)
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	var models []projectModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.OwnerID != "" {
			q = q.Where("owner_id = ?", filter.OwnerID)
		}
		if filter.TeamID != nil {
			q = q.Where("team_id = ?", filter.TeamID.String())
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list projects: %w", err)
	}
	projects := make([]*project.Project, 0, len(models))
	for i := range models {
		p, err := projectFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("bastion: list projects: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (s *Store) CountProjects(ctx context.Context, filter *project.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*projectModel)(nil))
	if filter != nil {
		if filter.OwnerID != "" {
			q = q.Where("owner_id = ?", filter.OwnerID)
		}
		if filter.TeamID != nil {
			q = q.Where("team_id = ?", filter.TeamID.String())
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count projects: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Environment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateEnvironment(ctx context.Context, e *environment.Environment) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	m, err := environmentToModel(e)
	if err != nil {
		return fmt.Errorf("bastion: create environment: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create environment: %w", err)
	}
	return nil
}

func (s *Store) GetEnvironment(ctx context.Context, envID id.EnvironmentID) (*environment.Environment, error) {
	m := new(environmentModel)
	err := s.sdb.NewSelect(m).Where("id = ?", envID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("environment %s: %w", envID, environment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get environment: %w", err)
	}
	e, err := environmentFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("bastion: get environment: %w", err)
	}
	return e, nil
}

func (s *Store) GetEnvironmentOwnership(ctx context.Context, envID id.EnvironmentID) (*environment.Ownership, error) {
	m := new(environmentModel)
	err := s.sdb.NewSelect(m).Where("id = ?", envID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("environment %s: %w", envID, environment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get environment ownership: %w", err)
	}
	return environmentOwnershipFromModel(m), nil
}

func (s *Store) DeleteEnvironment(ctx context.Context, envID id.EnvironmentID) error {
	_, err := s.sdb.NewDelete((*environmentModel)(nil)).
		Where("id = ?", envID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete environment: %w", err)
	}
	return nil
}

func (s *Store) ListEnvironments(ctx context.Context, filter *environment.ListFilter) ([]*environment.Environment, error) {
	var models []environmentModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.ProjectID != nil {
			q = q.Where("project_id = ?", filter.ProjectID.String())
		}
		if filter.CreatorID != "" {
			q = q.Where("creator_id = ?", filter.CreatorID)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list environments: %w", err)
	}
	envs := make([]*environment.Environment, 0, len(models))
	for i := range models {
		e, err := environmentFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("bastion: list environments: %w", err)
		}
		envs = append(envs, e)
	}
	return envs, nil
}

func (s *Store) CountEnvironments(ctx context.Context, filter *environment.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*environmentModel)(nil))
	if filter != nil {
		if filter.ProjectID != nil {
			q = q.Where("project_id = ?", filter.ProjectID.String())
		}
		if filter.CreatorID != "" {
			q = q.Where("creator_id = ?", filter.CreatorID)
		}
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count environments: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Decision log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateDecision(ctx context.Context, e *decisionlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.sdb.NewInsert(decisionToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create decision: %w", err)
	}
	return nil
}

func (s *Store) GetDecision(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	m := new(decisionLogModel)
	err := s.sdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("decision %s: %w", logID, decisionlog.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get decision: %w", err)
	}
	return decisionFromModel(m), nil
}

func (s *Store) ListDecisions(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.PrincipalID != "" {
			q = q.Where("principal_id = ?", filter.PrincipalID)
		}
		if filter.Procedure != "" {
			q = q.Where("procedure = ?", filter.Procedure)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.TeamID != "" {
			q = q.Where("team_id = ?", filter.TeamID)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list decisions: %w", err)
	}
	entries := make([]*decisionlog.Entry, 0, len(models))
	for i := range models {
		entries = append(entries, decisionFromModel(&models[i]))
	}
	return entries, nil
}

func (s *Store) CountDecisions(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*decisionLogModel)(nil))
	if filter != nil {
		if filter.PrincipalID != "" {
			q = q.Where("principal_id = ?", filter.PrincipalID)
		}
		if filter.Procedure != "" {
			q = q.Where("procedure = ?", filter.Procedure)
		}
		if filter.Decision != "" {
			q = q.Where("decision = ?", filter.Decision)
		}
		if filter.TeamID != "" {
			q = q.Where("team_id = ?", filter.TeamID)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count decisions: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*decisionLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: purge decisions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bastion: purge decisions rows: %w", err)
	}
	return n, nil
}
