package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Bastion store (PostgreSQL).
var Migrations = migrate.NewGroup("bastion")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_teams",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_teams (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    slug            TEXT NOT NULL UNIQUE,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bastion_teams_slug ON bastion_teams (slug);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_teams`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_memberships",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_memberships (
    id              TEXT PRIMARY KEY,
    team_id         TEXT NOT NULL REFERENCES bastion_teams(id) ON DELETE CASCADE,
    principal_id    TEXT NOT NULL,
    role            TEXT NOT NULL,
    granted_by      TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),

    UNIQUE(team_id, principal_id)
);

CREATE INDEX IF NOT EXISTS idx_bastion_memberships_team ON bastion_memberships (team_id);
CREATE INDEX IF NOT EXISTS idx_bastion_memberships_principal ON bastion_memberships (principal_id);
CREATE INDEX IF NOT EXISTS idx_bastion_memberships_team_role ON bastion_memberships (team_id, role);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_memberships`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_projects",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_projects (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    owner_id        TEXT NOT NULL,
    team_id         TEXT REFERENCES bastion_teams(id) ON DELETE SET NULL,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bastion_projects_owner ON bastion_projects (owner_id);
CREATE INDEX IF NOT EXISTS idx_bastion_projects_team ON bastion_projects (team_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_projects`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_environments",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_environments (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    creator_id      TEXT NOT NULL,
    project_id      TEXT NOT NULL REFERENCES bastion_projects(id) ON DELETE CASCADE,
    metadata        JSONB NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bastion_environments_project ON bastion_environments (project_id);
CREATE INDEX IF NOT EXISTS idx_bastion_environments_creator ON bastion_environments (creator_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_environments`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_decision_logs",
			Version: "20240101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS bastion_decision_logs (
    id              TEXT PRIMARY KEY,
    principal_id    TEXT NOT NULL,
    procedure       TEXT NOT NULL,
    team_id         TEXT NOT NULL DEFAULT '',
    project_id      TEXT NOT NULL DEFAULT '',
    environment_id  TEXT NOT NULL DEFAULT '',
    member_id       TEXT NOT NULL DEFAULT '',
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    BIGINT NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bastion_decision_logs_principal ON bastion_decision_logs (principal_id, created_at);
CREATE INDEX IF NOT EXISTS idx_bastion_decision_logs_team ON bastion_decision_logs (team_id, created_at);
CREATE INDEX IF NOT EXISTS idx_bastion_decision_logs_created ON bastion_decision_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS bastion_decision_logs`)
				return err
			},
		},
	)
}
