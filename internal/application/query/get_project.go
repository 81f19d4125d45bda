package query

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront-tools/demo-provisioner/internal/application/dto"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
)

type GetProject struct {
	projects interfaces.ProjectStore
	records  interfaces.RecordStore
}

func NewGetProject(projects interfaces.ProjectStore, records interfaces.RecordStore) *GetProject {
	return &GetProject{projects: projects, records: records}
}

func (q *GetProject) Query(ctx context.Context, id uuid.UUID) (*dto.ProjectResponse, error) {
	project, err := q.projects.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.ProjectResponse{
		ProjectID: project.ID,
		Name:      project.Name,
		Status:    project.Status,
		Progress: dto.ProgressResponse{
			Phase:   project.ProgressPhase,
			Percent: project.ProgressPercent,
			Message: project.ProgressMessage,
		},
	}
	record, err := q.records.GetRecord(ctx, id)
	if err != nil {
		// a project without a record simply has no resources yet
		return resp, nil
	}
	resp.Record = dto.RecordSnapshot{
		RepoFullName:  record.RepoFullName,
		ContentOrg:    record.ContentOrg,
		ContentSite:   record.ContentSite,
		ClonePath:     record.ClonePath,
		EdgeConfigID:  record.EdgeConfigID,
		BackendType:   record.BackendType,
		LastPublished: record.LastPublished,
	}
	return resp, nil
}
