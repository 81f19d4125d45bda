package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront-tools/demo-provisioner/internal/application/dto"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/pkg/db"
)

type CreateProject struct {
	uowFactory *db.UOWFactory
}

func NewCreateProject(uowFactory *db.UOWFactory) *CreateProject {
	return &CreateProject{uowFactory: uowFactory}
}

// Handle inserts the project together with its empty resource record in one
// transaction, so a project visible over the API always has a record to
// provision into.
func (c *CreateProject) Handle(ctx context.Context, req dto.CreateProjectRequest) (uuid.UUID, error) {
	if req.Name == "" || req.RepoName == "" {
		return uuid.Nil, fmt.Errorf("project name and repository name are required")
	}
	if req.BackendType != "" && req.BackendType != consts.BackendCommerce && req.BackendType != consts.BackendACO {
		return uuid.Nil, fmt.Errorf("unknown backend type %q", req.BackendType)
	}

	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return uuid.Nil, err
	}

	projectID := uuid.New()
	now := time.Now()
	_, err = tx.Exec(ctx, `INSERT INTO provisioner.projects(id, name, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)`, projectID, req.Name, consts.ProjectStatusCreated, now, now)
	if err != nil {
		_ = uow.Rollback()
		return uuid.Nil, fmt.Errorf("err inserting project, %v", err)
	}
	_, err = tx.Exec(ctx, `INSERT INTO provisioner.resource_records(project_id) VALUES ($1)`, projectID)
	if err != nil {
		_ = uow.Rollback()
		return uuid.Nil, fmt.Errorf("err creating resource record, %v", err)
	}
	if err := uow.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("err committing project creation, %v", err)
	}
	return projectID, nil
}
