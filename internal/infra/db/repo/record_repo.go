package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db"
)

// RecordRepo writes each resource-record column in its own statement so a
// crash mid-run leaves a record that exactly reflects which external
// resources exist.
type RecordRepo struct {
	pool *pgxpool.Pool
}

var _ interfaces.RecordStore = (*RecordRepo)(nil)

func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

func (r *RecordRepo) GetRecord(ctx context.Context, projectID uuid.UUID) (db.ResourceRecord, error) {
	var record db.ResourceRecord
	query := `SELECT project_id, repo_full_name, content_org, content_site, copied_paths, clone_path,
		edge_config_id, backend_type, last_published, updated_at
		FROM provisioner.resource_records WHERE project_id = $1`
	err := r.pool.QueryRow(ctx, query, projectID).Scan(&record.ProjectID, &record.RepoFullName,
		&record.ContentOrg, &record.ContentSite, &record.CopiedPaths, &record.ClonePath,
		&record.EdgeConfigID, &record.BackendType, &record.LastPublished, &record.UpdatedAt)
	if err != nil {
		return db.ResourceRecord{}, fmt.Errorf("err getting resource record, %v", err)
	}
	return record, nil
}

func (r *RecordRepo) EnsureRecord(ctx context.Context, projectID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO provisioner.resource_records(project_id)
		VALUES ($1) ON CONFLICT (project_id) DO NOTHING`, projectID)
	if err != nil {
		return fmt.Errorf("err ensuring resource record, %v", err)
	}
	return nil
}

func (r *RecordRepo) SetRepo(ctx context.Context, projectID uuid.UUID, repoFullName string) error {
	return r.set(ctx, projectID, "repo_full_name", repoFullName)
}

func (r *RecordRepo) SetContent(ctx context.Context, projectID uuid.UUID, org, site string) error {
	_, err := r.pool.Exec(ctx, `UPDATE provisioner.resource_records
		SET content_org = $2, content_site = $3, updated_at = $4 WHERE project_id = $1`,
		projectID, org, site, time.Now())
	if err != nil {
		return fmt.Errorf("err setting content fields, %v", err)
	}
	return nil
}

func (r *RecordRepo) SetCopiedPaths(ctx context.Context, projectID uuid.UUID, paths []string) error {
	_, err := r.pool.Exec(ctx, `UPDATE provisioner.resource_records
		SET copied_paths = $2, updated_at = $3 WHERE project_id = $1`, projectID, paths, time.Now())
	if err != nil {
		return fmt.Errorf("err setting copied paths, %v", err)
	}
	return nil
}

func (r *RecordRepo) SetClonePath(ctx context.Context, projectID uuid.UUID, path string) error {
	return r.set(ctx, projectID, "clone_path", path)
}

func (r *RecordRepo) SetEdgeConfig(ctx context.Context, projectID uuid.UUID, edgeConfigID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE provisioner.resource_records
		SET edge_config_id = $2, last_published = $3, updated_at = $3 WHERE project_id = $1`,
		projectID, edgeConfigID, time.Now())
	if err != nil {
		return fmt.Errorf("err setting edge config, %v", err)
	}
	return nil
}

func (r *RecordRepo) SetBackendType(ctx context.Context, projectID uuid.UUID, backend consts.BackendType) error {
	return r.set(ctx, projectID, "backend_type", string(backend))
}

// ClearField erases the record field for a cleaned-up resource so a repeated
// cleanup treats it as never created.
func (r *RecordRepo) ClearField(ctx context.Context, projectID uuid.UUID, kind consts.ResourceKind) error {
	var err error
	switch kind {
	case consts.ResourceBackend:
		err = r.set(ctx, projectID, "backend_type", "")
	case consts.ResourceEdge:
		_, err = r.pool.Exec(ctx, `UPDATE provisioner.resource_records
			SET edge_config_id = '', last_published = NULL, updated_at = $2 WHERE project_id = $1`,
			projectID, time.Now())
	case consts.ResourceContent:
		_, err = r.pool.Exec(ctx, `UPDATE provisioner.resource_records
			SET content_org = '', content_site = '', copied_paths = '{}', updated_at = $2 WHERE project_id = $1`,
			projectID, time.Now())
	case consts.ResourceRepository:
		err = r.set(ctx, projectID, "repo_full_name", "")
	default:
		return fmt.Errorf("unknown resource kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("err clearing %s field, %v", kind, err)
	}
	return nil
}

func (r *RecordRepo) set(ctx context.Context, projectID uuid.UUID, column, value string) error {
	query := fmt.Sprintf(`UPDATE provisioner.resource_records SET %s = $2, updated_at = $3 WHERE project_id = $1`, column)
	_, err := r.pool.Exec(ctx, query, projectID, value, time.Now())
	if err != nil {
		return fmt.Errorf("err setting %s, %v", column, err)
	}
	return nil
}
