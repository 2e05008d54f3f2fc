// Package mongo provides a MongoDB implementation of the Bastion
// composite store using grove ORM. Schema migration creates indexes.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/store"
	"github.com/xraph/bastion/team"
)

// Collection name constants.
const (
	colTeams        = "bastion_teams"
	colMemberships  = "bastion_memberships"
	colProjects     = "bastion_projects"
	colEnvironments = "bastion_environments"
	colDecisionLogs = "bastion_decision_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Bastion store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all bastion collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("bastion/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all bastion collections.
// The unique (team_id, principal_id) index backs duplicate membership
// detection on insert.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colTeams: {
			{Keys: bson.D{{Key: "slug", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colMemberships: {
			{
				Keys:    bson.D{{Key: "team_id", Value: 1}, {Key: "principal_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "principal_id", Value: 1}}},
			{Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "role", Value: 1}}},
		},
		colProjects: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "team_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		colEnvironments: {
			{Keys: bson.D{{Key: "project_id", Value: 1}}},
			{Keys: bson.D{{Key: "creator_id", Value: 1}}},
		},
		colDecisionLogs: {
			{Keys: bson.D{{Key: "principal_id", Value: 1}}},
			{Keys: bson.D{{Key: "team_id", Value: 1}}},
			{Keys: bson.D{{Key: "procedure", Value: 1}, {Key: "decision", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Team operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTeam(ctx context.Context, t *team.Team) error {
	ts := now()
	t.CreatedAt = ts
	t.UpdatedAt = ts
	if _, err := s.mdb.NewInsert(teamToModel(t)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create team: %w", err)
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, teamID id.TeamID) (*team.Team, error) {
	var m teamModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": teamID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("team %s: %w", teamID, team.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get team: %w", err)
	}
	return teamFromModel(&m), nil
}

func (s *Store) UpdateTeam(ctx context.Context, t *team.Team) error {
	t.UpdatedAt = now()
	m := teamToModel(t)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update team: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("team %s: %w", t.ID, team.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTeam(ctx context.Context, teamID id.TeamID) error {
	_, err := s.mdb.NewDelete((*teamModel)(nil)).
		Filter(bson.M{"_id": teamID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete team: %w", err)
	}
	return nil
}

func (s *Store) ListTeams(ctx context.Context, filter *team.ListFilter) ([]*team.Team, error) {
	var models []teamModel
	f := bson.M{}
	if filter != nil && filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list teams: %w", err)
	}
	teams := make([]*team.Team, len(models))
	for i := range models {
		teams[i] = teamFromModel(&models[i])
	}
	return teams, nil
}

func (s *Store) CountTeams(ctx context.Context, filter *team.ListFilter) (int64, error) {
	f := bson.M{}
	if filter != nil && filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	count, err := s.mdb.NewFind((*teamModel)(nil)).
		Filter(f).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count teams: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.Membership) error {
	ts := now()
	m.CreatedAt = ts
	m.UpdatedAt = ts
	if _, err := s.mdb.NewInsert(membershipToModel(m)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("principal %s on team %s: %w", m.PrincipalID, m.TeamID, membership.ErrDuplicate)
		}
		return fmt.Errorf("bastion: create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, teamID id.TeamID, principalID string) (*membership.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"team_id": teamID.String(), "principal_id": principalID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get membership: %w", err)
	}
	return membershipFromModel(&m), nil
}

func (s *Store) UpdateMembershipRole(ctx context.Context, teamID id.TeamID, principalID string, role membership.Role) error {
	res, err := s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(bson.M{"team_id": teamID.String(), "principal_id": principalID}).
		Set("role", string(role)).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update membership role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteMembership(ctx context.Context, teamID id.TeamID, principalID string) error {
	res, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Filter(bson.M{"team_id": teamID.String(), "principal_id": principalID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete membership: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
	}
	return nil
}

func membershipFilter(filter *membership.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.TeamID != nil {
		f["team_id"] = filter.TeamID.String()
	}
	if filter.PrincipalID != "" {
		f["principal_id"] = filter.PrincipalID
	}
	if filter.Role != "" {
		f["role"] = string(filter.Role)
	}
	return f
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	q := s.mdb.NewFind(&models).
		Filter(membershipFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list memberships: %w", err)
	}
	members := make([]*membership.Membership, len(models))
	for i := range models {
		members[i] = membershipFromModel(&models[i])
	}
	return members, nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*membershipModel)(nil)).
		Filter(membershipFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count memberships: %w", err)
	}
	return count, nil
}

func (s *Store) ListPrincipalMemberships(ctx context.Context, principalID string) ([]*membership.Membership, error) {
	var models []membershipModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"principal_id": principalID}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list principal memberships: %w", err)
	}
	members := make([]*membership.Membership, len(models))
	for i := range models {
		members[i] = membershipFromModel(&models[i])
	}
	return members, nil
}

func (s *Store) CountTeamAdmins(ctx context.Context, teamID id.TeamID) (int64, error) {
	count, err := s.mdb.NewFind((*membershipModel)(nil)).
		Filter(bson.M{"team_id": teamID.String(), "role": string(membership.RoleAdmin)}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count team admins: %w", err)
	}
	return count, nil
}

func (s *Store) DeleteMembershipsByTeam(ctx context.Context, teamID id.TeamID) error {
	_, err := s.mdb.NewDelete((*membershipModel)(nil)).
		Many().
		Filter(bson.M{"team_id": teamID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete memberships by team: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Project operations
// ──────────────────────────────────────────────────

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	ts := now()
	p.CreatedAt = ts
	p.UpdatedAt = ts
	if _, err := s.mdb.NewInsert(projectToModel(p)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create project: %w", err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, projectID id.ProjectID) (*project.Project, error) {
	var m projectModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": projectID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get project: %w", err)
	}
	return projectFromModel(&m), nil
}

func (s *Store) GetProjectOwnership(ctx context.Context, projectID id.ProjectID) (*project.Ownership, error) {
	var m projectModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": projectID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get project ownership: %w", err)
	}
	return projectOwnershipFromModel(&m), nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	p.UpdatedAt = now()
	m := projectToModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update project: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("project %s: %w", p.ID, project.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, projectID id.ProjectID) error {
	_, err := s.mdb.NewDelete((*projectModel)(nil)).
		Filter(bson.M{"_id": projectID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete project: %w", err)
	}
	return nil
}

func projectFilter(filter *project.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.OwnerID != "" {
		f["owner_id"] = filter.OwnerID
	}
	if filter.TeamID != nil {
		f["team_id"] = filter.TeamID.String()
	}
	if filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	return f
}

func (s *Store) ListProjects(ctx context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	var models []projectModel
	q := s.mdb.NewFind(&models).
		Filter(projectFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list projects: %w", err)
	}
	projects := make([]*project.Project, len(models))
	for i := range models {
		projects[i] = projectFromModel(&models[i])
	}
	return projects, nil
}

func (s *Store) CountProjects(ctx context.Context, filter *project.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*projectModel)(nil)).
		Filter(projectFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count projects: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Environment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateEnvironment(ctx context.Context, e *environment.Environment) error {
	ts := now()
	e.CreatedAt = ts
	e.UpdatedAt = ts
	if _, err := s.mdb.NewInsert(environmentToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create environment: %w", err)
	}
	return nil
}

func (s *Store) GetEnvironment(ctx context.Context, envID id.EnvironmentID) (*environment.Environment, error) {
	var m environmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": envID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("environment %s: %w", envID, environment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get environment: %w", err)
	}
	return environmentFromModel(&m), nil
}

func (s *Store) GetEnvironmentOwnership(ctx context.Context, envID id.EnvironmentID) (*environment.Ownership, error) {
	var m environmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": envID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("environment %s: %w", envID, environment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get environment ownership: %w", err)
	}
	return environmentOwnershipFromModel(&m), nil
}

func (s *Store) DeleteEnvironment(ctx context.Context, envID id.EnvironmentID) error {
	_, err := s.mdb.NewDelete((*environmentModel)(nil)).
		Filter(bson.M{"_id": envID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete environment: %w", err)
	}
	return nil
}

func environmentFilter(filter *environment.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.ProjectID != nil {
		f["project_id"] = filter.ProjectID.String()
	}
	if filter.CreatorID != "" {
		f["creator_id"] = filter.CreatorID
	}
	if filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	return f
}

func (s *Store) ListEnvironments(ctx context.Context, filter *environment.ListFilter) ([]*environment.Environment, error) {
	var models []environmentModel
	q := s.mdb.NewFind(&models).
		Filter(environmentFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list environments: %w", err)
	}
	envs := make([]*environment.Environment, len(models))
	for i := range models {
		envs[i] = environmentFromModel(&models[i])
	}
	return envs, nil
}

func (s *Store) CountEnvironments(ctx context.Context, filter *environment.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*environmentModel)(nil)).
		Filter(environmentFilter(filter)).
		Count(ctx)
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
		e.CreatedAt = now()
	}
	if _, err := s.mdb.NewInsert(decisionToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create decision: %w", err)
	}
	return nil
}

func (s *Store) GetDecision(ctx context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	var m decisionLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": logID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("decision %s: %w", logID, decisionlog.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get decision: %w", err)
	}
	return decisionFromModel(&m), nil
}

func decisionFilter(filter *decisionlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.PrincipalID != "" {
		f["principal_id"] = filter.PrincipalID
	}
	if filter.Procedure != "" {
		f["procedure"] = filter.Procedure
	}
	if filter.Decision != "" {
		f["decision"] = filter.Decision
	}
	if filter.TeamID != "" {
		f["team_id"] = filter.TeamID
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gte"] = *filter.After
	}
	if filter.Before != nil {
		created["$lte"] = *filter.Before
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return f
}

func (s *Store) ListDecisions(ctx context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	var models []decisionLogModel
	q := s.mdb.NewFind(&models).
		Filter(decisionFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list decisions: %w", err)
	}
	entries := make([]*decisionlog.Entry, len(models))
	for i := range models {
		entries[i] = decisionFromModel(&models[i])
	}
	return entries, nil
}

func (s *Store) CountDecisions(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*decisionLogModel)(nil)).
		Filter(decisionFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count decisions: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeDecisions(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*decisionLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: purge decisions: %w", err)
	}
	return res.DeletedCount(), nil
}
