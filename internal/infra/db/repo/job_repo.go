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

type JobRepo struct {
	pool *pgxpool.Pool
}

var _ interfaces.JobStore = (*JobRepo)(nil)

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (j *JobRepo) EnqueueJob(ctx context.Context, job db.Job) (uint64, error) {
	var id uint64
	err := j.pool.QueryRow(ctx, `INSERT INTO provisioner.jobs(project_id, type, status, payload, created_at)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		job.ProjectID, job.Type, consts.JobNotProcessed, job.Payload, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("err enqueueing job, %v", err)
	}
	return id, nil
}

func (j *JobRepo) PendingJobs(ctx context.Context, limit int) ([]db.Job, error) {
	rows, err := j.pool.Query(ctx, `SELECT id, project_id, type, status, payload, created_at
		FROM provisioner.jobs WHERE status = 0 ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("err polling jobs, %v", err)
	}
	defer rows.Close()

	var jobs []db.Job
	for rows.Next() {
		var job db.Job
		if err := rows.Scan(&job.ID, &job.ProjectID, &job.Type, &job.Status, &job.Payload, &job.CreatedAt); err != nil {
			return nil, fmt.Errorf("err scanning job, %v", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (j *JobRepo) MarkProcessed(ctx context.Context, id uint64, result []byte) error {
	_, err := j.pool.Exec(ctx, `UPDATE provisioner.jobs SET status = $2, result = $3 WHERE id = $1`,
		id, consts.JobProcessed, result)
	if err != nil {
		return fmt.Errorf("err marking job processed, %v", err)
	}
	return nil
}

func (j *JobRepo) HasPendingForProject(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var count int
	err := j.pool.QueryRow(ctx, `SELECT count(*) FROM provisioner.jobs WHERE project_id = $1 AND status = 0`,
		projectID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("err counting pending jobs, %v", err)
	}
	return count > 0, nil
}
