// Package postgres provides a PostgreSQL implementation of the Bastion
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
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

// Store is a PostgreSQL implementation of the composite Bastion store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("bastion: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bastion: migration failed: %w", err)
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
	if _, err := s.pgdb.NewInsert(teamToModel(t)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create team: %w", err)
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, teamID id.TeamID) (*team.Team, error) {
	m := new(teamModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", teamID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("team %s: %w", teamID, team.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get team: %w", err)
	}
	return teamFromModel(m), nil
}

func (s *Store) UpdateTeam(ctx context.Context, t *team.Team) error {
	t.UpdatedAt = time.Now().UTC()
	if _, err := s.pgdb.NewUpdate(teamToModel(t)).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("bastion: update team: %w", err)
	}
	return nil
}

func (s *Store) DeleteTeam(ctx context.Context, teamID id.TeamID) error {
	_, err := s.pgdb.NewDelete((*teamModel)(nil)).
		Where("id = ?", teamID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete team: %w", err)
	}
	return nil
}

func (s *Store) ListTeams(ctx context.Context, filter *team.ListFilter) ([]*team.Team, error) {
	var models []teamModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.Search != "" {
			q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
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
		teams = append(teams, teamFromModel(&models[i]))
	}
	return teams, nil
}

func (s *Store) CountTeams(ctx context.Context, filter *team.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*teamModel)(nil))
	if filter != nil && filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
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
	res, err := s.pgdb.NewInsert(membershipToModel(m)).
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
	err := s.pgdb.NewSelect(m).
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
	res, err := s.pgdb.NewUpdate((*membershipModel)(nil)).
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
	res, err := s.pgdb.NewDelete((*membershipModel)(nil)).
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
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
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
	q := s.pgdb.NewSelect((*membershipModel)(nil))
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
	err := s.pgdb.NewSelect(&models).
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
	count, err := s.pgdb.NewSelect((*membershipModel)(nil)).
		Where("team_id = ?", teamID.String()).
		Where("role = ?", string(membership.RoleAdmin)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count team admins: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteMembershipsByTeam(ctx context.Context, teamID id.TeamID) error {
	_, err := s.pgdb.NewDelete((*membershipModel)(nil)).
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
	if _, err := s.pgdb.NewInsert(projectToModel(p)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID id.ProjectID) (*project.Project, error) {
	m := new(projectModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", projectID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get project: %w", err)
	}
	return projectFromModel(m), nil
}

func (s *Store) GetProjectOwnership(ctx context.Context, projectID id.ProjectID) (*project.Ownership, error) {
	m := new(projectModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", projectID.String()).Scan(ctx)
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
	if _, err := s.pgdb.NewUpdate(projectToModel(p)).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("bastion: update project: %w", err)
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID id.ProjectID) error {
	_, err := s.pgdb.NewDelete((*projectModel)(nil)).
		Where("id = ?", projectID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete project: %w", err)
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	var models []projectModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.OwnerID != "" {
			q = q.Where("owner_id = ?", filter.OwnerID)
		}
		if filter.TeamID != nil {
			q = q.Where("team_id = ?", filter.TeamID.String())
		}
		if filter.Search != "" {
			q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
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
		projects = append(projects, projectFromModel(&models[i]))
	}
	return projects, nil
}

func (s *Store) CountProjects(ctx context.Context, filter *project.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*projectModel)(nil))
	if filter != nil {
		if filter.OwnerID != "" {
			q = q.Where("owner_id = ?", filter.OwnerID)
		}
		if filter.TeamID != nil {
			q = q.Where("team_id = ?", filter.TeamID.String())
		}
		if filter.Search != "" {
			q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
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
	if _, err := s.pgdb.NewInsert(environmentToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create environment: %w", err)
	}
	return nil
}

func (s *Store) GetEnvironment(ctx context.Context, envID id.EnvironmentID) (*environment.Environment, error) {
	m := new(environmentModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", envID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("environment %s: %w", envID, environment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get environment: %w", err)
	}
	return environmentFromModel(m), nil
}

func (s *Store) GetEnvironmentOwnership(ctx context.Context, envID id.EnvironmentID) (*environment.Ownership, error) {
	m := new(environmentModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", envID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("environment %s: %w", envID, environment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get environment ownership: %w", err)
	}
	return environmentOwnershipFromModel(m), nil
}

func (s *Store) DeleteEnvironment(ctx context.Context, envID id.EnvironmentID) error {
	_, err := s.pgdb.NewDelete((*environmentModel)(nil)).
		Where("id = ?", envID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete environment: %w", err)
	}
	return nil
}

func (s *Store) ListEnvironments(ctx context.Context, filter *environment.ListFilter) ([]*environment.Environment, error) {
	var models []environmentModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.ProjectID != nil {
			q = q.Where("project_id = ?", filter.ProjectID.String())
		}
		if filter.CreatorID != "" {
			q = q.Where("creator_id = ?", filter.CreatorID)
		}
		if filter.Search != "" {
			q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
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
		envs = append(envs, environmentFromModel(&models[i]))
	}
	return envs, nil
}

func (s *Store) CountEnvironments(ctx context.Context, filter *environment.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*environmentModel)(nil))
	if filter != nil {
		if filter.ProjectID != nil {
			q = q.Where("project_id = ?", filter.ProjectID.String())
		}
		if filter.CreatorID != "" {
			q = q.Where("creator_id = ?", filter.CreatorID)
		}
		if filter.Search != "" {
			q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
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
	if _, err := s.pgdb.NewInsert(decisionToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create decision: %w", err)
	}
	return nil
}

func (s *Store) GetDecision(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	m := new(decisionLogModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", logID.String()).Scan(ctx)
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
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
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
	q := s.pgdb.NewSelect((*decisionLogModel)(nil))
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
	res, err := s.pgdb.NewDelete((*decisionLogModel)(nil)).
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
