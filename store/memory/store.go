// Package memory provides an in-memory implementation of the Bastion
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xraph/bastion/decisionlog"
	"github.com/xraph/bastion/environment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/membership"
	"github.com/xraph/bastion/project"
	"github.com/xraph/bastion/team"
)

// Compile-time interface checks.
var (
	_ team.Store        = (*Store)(nil)
	_ membership.Store  = (*Store)(nil)
	_ project.Store     = (*Store)(nil)
	_ environment.Store = (*Store)(nil)
	_ decisionlog.Store = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Bastion entities.
type Store struct {
	mu sync.RWMutex

	teams        map[string]*team.Team
	memberships  map[string]*membership.Membership // teamID/principalID
	projects     map[string]*project.Project
	environments map[string]*environment.Environment
	decisions    map[string]*decisionlog.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		teams:        make(map[string]*team.Team),
		memberships:  make(map[string]*membership.Membership),
		projects:     make(map[string]*project.Project),
		environments: make(map[string]*environment.Environment),
		decisions:    make(map[string]*decisionlog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Team Store
// ──────────────────────────────────────────────────

func (s *Store) CreateTeam(_ context.Context, t *team.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID.String()] = copyTeam(t)
	return nil
}

func (s *Store) GetTeam(_ context.Context, teamID id.TeamID) (*team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[teamID.String()]
	if !ok {
		return nil, fmt.Errorf("team %s: %w", teamID, team.ErrNotFound)
	}
	return copyTeam(t), nil
}

func (s *Store) UpdateTeam(_ context.Context, t *team.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.ID.String()]; !ok {
		return fmt.Errorf("team %s: %w", t.ID, team.ErrNotFound)
	}
	s.teams[t.ID.String()] = copyTeam(t)
	return nil
}

func (s *Store) DeleteTeam(_ context.Context, teamID id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.teams, teamID.String())
	return nil
}

func (s *Store) ListTeams(_ context.Context, filter *team.ListFilter) ([]*team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*team.Team, 0, len(s.teams))
	for _, t := range s.teams {
		if filter != nil {
			if filter.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyTeam(t))
	}
	return applyPagination(result, paginationOptsTeam(filter)), nil
}

func (s *Store) CountTeams(ctx context.Context, filter *team.ListFilter) (int64, error) {
	list, err := s.ListTeams(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// ──────────────────────────────────────────────────
// Membership Store
// ──────────────────────────────────────────────────

func membershipKey(teamID id.TeamID, principalID string) string {
	return teamID.String() + "/" + principalID
}

func (s *Store) CreateMembership(_ context.Context, m *membership.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey(m.TeamID, m.PrincipalID)
	if _, ok := s.memberships[key]; ok {
		return fmt.Errorf("principal %s on team %s: %w", m.PrincipalID, m.TeamID, membership.ErrDuplicate)
	}
	s.memberships[key] = copyMembership(m)
	return nil
}

func (s *Store) GetMembership(_ context.Context, teamID id.TeamID, principalID string) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[membershipKey(teamID, principalID)]
	if !ok {
		return nil, fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
	}
	return copyMembership(m), nil
}

func (s *Store) UpdateMembershipRole(_ context.Context, teamID id.TeamID, principalID string, role membership.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[membershipKey(teamID, principalID)]
	if !ok {
		return fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
	}
	m.Role = role
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeleteMembership(_ context.Context, teamID id.TeamID, principalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := membershipKey(teamID, principalID)
	if _, ok := s.memberships[key]; !ok {
		return fmt.Errorf("principal %s on team %s: %w", principalID, teamID, membership.ErrNotFound)
	}
	delete(s.memberships, key)
	return nil
}

func (s *Store) ListMemberships(_ context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*membership.Membership, 0, len(s.memberships))
	for _, m := range s.memberships {
		if filter != nil {
			if filter.TeamID != nil && m.TeamID.String() != filter.TeamID.String() {
				continue
			}
			if filter.PrincipalID != "" && m.PrincipalID != filter.PrincipalID {
				continue
			}
			if filter.Role != "" && m.Role != filter.Role {
				continue
			}
		}
		result = append(result, copyMembership(m))
	}
	return applyPagination(result, paginationOptsMembership(filter)), nil
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	list, err := s.ListMemberships(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) ListPrincipalMemberships(_ context.Context, principalID string) ([]*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*membership.Membership
	for _, m := range s.memberships {
		if m.PrincipalID == principalID {
			result = append(result, copyMembership(m))
		}
	}
	return result, nil
}

func (s *Store) CountTeamAdmins(_ context.Context, teamID id.TeamID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	tid := teamID.String()
	for _, m := range s.memberships {
		if m.TeamID.String() == tid && m.Role == membership.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteMembershipsByTeam(_ context.Context, teamID id.TeamID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := teamID.String() + "/"
	for k := range s.memberships {
		if strings.HasPrefix(k, prefix) {
			delete(s.memberships, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Project Store
// ──────────────────────────────────────────────────

func (s *Store) CreateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID.String()] = copyProject(p)
	return nil
}

func (s *Store) GetProject(_ context.Context, projectID id.ProjectID) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID.String()]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
	}
	return copyProject(p), nil
}

func (s *Store) GetProjectOwnership(_ context.Context, projectID id.ProjectID) (*project.Ownership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID.String()]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, project.ErrNotFound)
	}
	own := &project.Ownership{OwnerID: p.OwnerID}
	if p.TeamID != nil {
		tid := *p.TeamID
		own.TeamID = &tid
	}
	return own, nil
}

func (s *Store) UpdateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID.String()]; !ok {
		return fmt.Errorf("project %s: %w", p.ID, project.ErrNotFound)
	}
	s.projects[p.ID.String()] = copyProject(p)
	return nil
}

func (s *Store) DeleteProject(_ context.Context, projectID id.ProjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, projectID.String())
	return nil
}

func (s *Store) ListProjects(_ context.Context, filter *project.ListFilter) ([]*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if filter != nil {
			if filter.OwnerID != "" && p.OwnerID != filter.OwnerID {
				continue
			}
			if filter.TeamID != nil && (p.TeamID == nil || p.TeamID.String() != filter.TeamID.String()) {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyProject(p))
	}
	return applyPagination(result, paginationOptsProject(filter)), nil
}

func (s *Store) CountProjects(ctx context.Context, filter *project.ListFilter) (int64, error) {
	list, err := s.ListProjects(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// ──────────────────────────────────────────────────
// Environment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateEnvironment(_ context.Context, e *environment.Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environments[e.ID.String()] = copyEnvironment(e)
	return nil
}

func (s *Store) GetEnvironment(_ context.Context, envID id.EnvironmentID) (*environment.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.environments[envID.String()]
	if !ok {
		return nil, fmt.Errorf("environment %s: %w", envID, environment.ErrNotFound)
	}
	return copyEnvironment(e), nil
}

func (s *Store) GetEnvironmentOwnership(_ context.Context, envID id.EnvironmentID) (*environment.Ownership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.environments[envID.String()]
	if !ok {
		return nil, fmt.Errorf("environment %s: %w", envID, environment.ErrNotFound)
	}
	return &environment.Ownership{CreatorID: e.CreatorID, ProjectID: e.ProjectID}, nil
}

func (s *Store) DeleteEnvironment(_ context.Context, envID id.EnvironmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.environments, envID.String())
	return nil
}

func (s *Store) ListEnvironments(_ context.Context, filter *environment.ListFilter) ([]*environment.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*environment.Environment, 0, len(s.environments))
	for _, e := range s.environments {
		if filter != nil {
			if filter.ProjectID != nil && e.ProjectID.String() != filter.ProjectID.String() {
				continue
			}
			if filter.CreatorID != "" && e.CreatorID != filter.CreatorID {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyEnvironment(e))
	}
	return applyPagination(result, paginationOptsEnvironment(filter)), nil
}

func (s *Store) CountEnvironments(ctx context.Context, filter *environment.ListFilter) (int64, error) {
	list, err := s.ListEnvironments(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// ──────────────────────────────────────────────────
// Decision Log Store
// ──────────────────────────────────────────────────

func (s *Store) CreateDecision(_ context.Context, e *decisionlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[e.ID.String()] = copyDecision(e)
	return nil
}

func (s *Store) GetDecision(_ context.Context, logID id.DecisionLogID) (*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.decisions[logID.String()]
	if !ok {
		return nil, fmt.Errorf("decision %s: %w", logID, decisionlog.ErrNotFound)
	}
	return copyDecision(e), nil
}

func (s *Store) ListDecisions(_ context.Context, filter *decisionlog.QueryFilter) ([]*decisionlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*decisionlog.Entry, 0, len(s.decisions))
	for _, e := range s.decisions {
		if filter != nil {
			if filter.PrincipalID != "" && e.PrincipalID != filter.PrincipalID {
				continue
			}
			if filter.Procedure != "" && e.Procedure != filter.Procedure {
				continue
			}
			if filter.Decision != "" && e.Decision != filter.Decision {
				continue
			}
			if filter.TeamID != "" && e.TeamID != filter.TeamID {
				continue
			}
			if filter.After != nil && !e.CreatedAt.After(*filter.After) {
				continue
			}
			if filter.Before != nil && !e.CreatedAt.Before(*filter.Before) {
				continue
			}
		}
		result = append(result, copyDecision(e))
	}
	return applyPagination(result, paginationOptsDecision(filter)), nil
}

func (s *Store) CountDecisions(ctx context.Context, filter *decisionlog.QueryFilter) (int64, error) {
	list, err := s.ListDecisions(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) PurgeDecisions(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for k, e := range s.decisions {
		if e.CreatedAt.Before(before) {
			delete(s.decisions, k)
			purged++
		}
	}
	return purged, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyTeam(t *team.Team) *team.Team {
	c := *t
	return &c
}

func copyMembership(m *membership.Membership) *membership.Membership {
	c := *m
	return &c
}

func copyProject(p *project.Project) *project.Project {
	c := *p
	if p.TeamID != nil {
		tid := *p.TeamID
		c.TeamID = &tid
	}
	return &c
}

func copyEnvironment(e *environment.Environment) *environment.Environment {
	c := *e
	return &c
}

func copyDecision(e *decisionlog.Entry) *decisionlog.Entry {
	c := *e
	return &c
}

// Pagination helpers for each entity type.
type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []T, p pagOpts) []T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}

func paginationOptsTeam(f *team.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsMembership(f *membership.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsProject(f *project.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsEnvironment(f *environment.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsDecision(f *decisionlog.QueryFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}
