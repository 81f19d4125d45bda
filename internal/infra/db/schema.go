package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const Schema = `
CREATE SCHEMA IF NOT EXISTS provisioner;

CREATE TABLE IF NOT EXISTS provisioner.projects (
  id UUID PRIMARY KEY,
  name TEXT NOT NULL,
  status TEXT NOT NULL,
  progress_phase TEXT NOT NULL DEFAULT '',
  progress_percent INT NOT NULL DEFAULT 0,
  progress_message TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS provisioner.resource_records (
  project_id UUID PRIMARY KEY REFERENCES provisioner.projects(id) ON DELETE CASCADE,
  repo_full_name TEXT NOT NULL DEFAULT '',
  content_org TEXT NOT NULL DEFAULT '',
  content_site TEXT NOT NULL DEFAULT '',
  copied_paths TEXT[] NOT NULL DEFAULT '{}',
  clone_path TEXT NOT NULL DEFAULT '',
  edge_config_id TEXT NOT NULL DEFAULT '',
  backend_type TEXT NOT NULL DEFAULT '',
  last_published TIMESTAMPTZ,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS provisioner.jobs (
  id BIGSERIAL PRIMARY KEY,
  project_id UUID NOT NULL REFERENCES provisioner.projects(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  status INT NOT NULL DEFAULT 0,
  payload JSONB NOT NULL DEFAULT '{}',
  result JSONB,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("can't init schema, %v", err)
	}
	return nil
}
