package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db"
)

type ProjectStore interface {
	GetProject(ctx context.Context, id uuid.UUID) (db.Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status consts.ProjectStatus) error
	UpdateProgress(ctx context.Context, id uuid.UUID, phase consts.Phase, percent int, message string) error
}

// RecordStore persists the resource record one field at a time; a phase only
// starts after the previous phase's field write committed.
type RecordStore interface {
	GetRecord(ctx context.Context, projectID uuid.UUID) (db.ResourceRecord, error)
	EnsureRecord(ctx context.Context, projectID uuid.UUID) error
	SetRepo(ctx context.Context, projectID uuid.UUID, repoFullName string) error
	SetContent(ctx context.Context, projectID uuid.UUID, org, site string) error
	SetCopiedPaths(ctx context.Context, projectID uuid.UUID, paths []string) error
	SetClonePath(ctx context.Context, projectID uuid.UUID, path string) error
	SetEdgeConfig(ctx context.Context, projectID uuid.UUID, edgeConfigID string) error
	SetBackendType(ctx context.Context, projectID uuid.UUID, backend consts.BackendType) error
	ClearField(ctx context.Context, projectID uuid.UUID, kind consts.ResourceKind) error
}

type JobStore interface {
	EnqueueJob(ctx context.Context, job db.Job) (uint64, error)
	PendingJobs(ctx context.Context, limit int) ([]db.Job, error)
	MarkProcessed(ctx context.Context, id uint64, result []byte) error
	HasPendingForProject(ctx context.Context, projectID uuid.UUID) (bool, error)
}
