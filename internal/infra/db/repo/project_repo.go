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

type ProjectRepo struct {
	pool *pgxpool.Pool
}

var _ interfaces.ProjectStore = (*ProjectRepo)(nil)

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

func (p *ProjectRepo) GetProject(ctx context.Context, id uuid.UUID) (db.Project, error) {
	var project db.Project
	query := `SELECT id, name, status, progress_phase, progress_percent, progress_message, created_at, updated_at
		FROM provisioner.projects WHERE id = $1`
	err := p.pool.QueryRow(ctx, query, id).Scan(&project.ID, &project.Name, &project.Status,
		&project.ProgressPhase, &project.ProgressPercent, &project.ProgressMessage, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return db.Project{}, fmt.Errorf("err getting project %v, %v", id, err)
	}
	return project, nil
}

func (p *ProjectRepo) InsertProject(ctx context.Context, project db.Project) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO provisioner.projects(id, name, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)`, project.ID, project.Name, project.Status, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("err inserting project, %v", err)
	}
	return nil
}

func (p *ProjectRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status consts.ProjectStatus) error {
	_, err := p.pool.Exec(ctx, `UPDATE provisioner.projects SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now())
	if err != nil {
		return fmt.Errorf("err updating project status, %v", err)
	}
	return nil
}

func (p *ProjectRepo) UpdateProgress(ctx context.Context, id uuid.UUID, phase consts.Phase, percent int, message string) error {
	_, err := p.pool.Exec(ctx, `UPDATE provisioner.projects
		SET progress_phase = $2, progress_percent = $3, progress_message = $4, updated_at = $5 WHERE id = $1`,
		id, string(phase), percent, message, time.Now())
	if err != nil {
		return fmt.Errorf("err updating project progress, %v", err)
	}
	return nil
}
