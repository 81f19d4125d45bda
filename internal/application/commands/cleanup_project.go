package commands

import (
	"context"
	"log/slog"
	"strings"

	"github.com/storefront-tools/demo-provisioner/internal/application/dto"
	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/application/events"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/internal/infra/auth"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db"
	"github.com/storefront-tools/demo-provisioner/internal/infra/retry"
)

// CleanupProject reverses the creation graph: backend data first (cheapest to
// recreate), then edge config, then content, then the repository last. A
// failed step never stops the later ones; the result always reports one
// outcome per resource.
type CleanupProject struct {
	creds    *auth.Credentials
	repos    interfaces.RepositoryClient
	content  interfaces.ContentSiteClient
	edge     interfaces.EdgeConfigClient
	backend  interfaces.BackendDataClient
	records  interfaces.RecordStore
	executor *retry.Executor
}

func NewCleanupProject(
	creds *auth.Credentials, repos interfaces.RepositoryClient, content interfaces.ContentSiteClient,
	edge interfaces.EdgeConfigClient, backend interfaces.BackendDataClient,
	records interfaces.RecordStore, executor *retry.Executor,
) *CleanupProject {
	return &CleanupProject{
		creds:    creds,
		repos:    repos,
		content:  content,
		edge:     edge,
		backend:  backend,
		records:  records,
		executor: executor,
	}
}

func (c *CleanupProject) Handle(ctx context.Context, event events.CleanupProject) (*dto.CleanupResult, error) {
	record, err := c.records.GetRecord(ctx, event.ProjectID)
	if err != nil {
		return nil, err
	}

	result := &dto.CleanupResult{
		Backend:    dto.Outcome{Status: consts.OutcomeSkipped},
		Edge:       dto.Outcome{Status: consts.OutcomeSkipped},
		Content:    dto.Outcome{Status: consts.OutcomeSkipped},
		Repository: dto.Outcome{Status: consts.OutcomeSkipped},
	}

	for _, kind := range consts.CleanupOrder() {
		outcome := c.step(ctx, kind, event, record)
		switch kind {
		case consts.ResourceBackend:
			result.Backend = outcome
		case consts.ResourceEdge:
			result.Edge = outcome
		case consts.ResourceContent:
			result.Content = outcome
		case consts.ResourceRepository:
			result.Repository = outcome
		}
		// an archived repository still exists, its record field stays
		archivedRepo := kind == consts.ResourceRepository && event.Options.ArchiveRepoOnly
		if outcome.Status == consts.OutcomeSuccess && !archivedRepo {
			if err := c.records.ClearField(ctx, event.ProjectID, kind); err != nil {
				slog.Error("err clearing cleaned resource from record", "project", event.ProjectID, "resource", kind, "err", err)
			}
		}
	}
	return result, nil
}

func (c *CleanupProject) step(ctx context.Context, kind consts.ResourceKind, event events.CleanupProject, record db.ResourceRecord) dto.Outcome {
	skipped := dto.Outcome{Status: consts.OutcomeSkipped}
	var err error

	switch kind {
	case consts.ResourceBackend:
		if !event.Options.CleanupBackend || !record.HasBackend() {
			return skipped
		}
		err = c.executor.Do(ctx, "backend.cleanupDemoData", func(ctx context.Context) error {
			return c.backend.CleanupDemoData(ctx, record.BackendType, c.creds.Backend)
		})

	case consts.ResourceEdge:
		if !event.Options.UnpublishEdge || !record.HasEdge() {
			return skipped
		}
		err = c.executor.Do(ctx, "edge.unpublish", func(ctx context.Context) error {
			return c.edge.Unpublish(ctx, repoHandleFromRecord(record))
		})

	case consts.ResourceContent:
		if !event.Options.DeleteContent || !record.HasContent() {
			return skipped
		}
		err = c.executor.Do(ctx, "content.deleteSite", func(ctx context.Context) error {
			return c.content.DeleteSite(ctx, record.ContentOrg, record.ContentSite)
		})

	case consts.ResourceRepository:
		if !event.Options.RemoveRepo || !record.HasRepo() {
			return skipped
		}
		handle := repoHandleFromRecord(record)
		if event.Options.ArchiveRepoOnly {
			err = c.executor.Do(ctx, "repo.archive", func(ctx context.Context) error {
				return c.repos.Archive(ctx, handle)
			})
		} else {
			err = c.executor.Do(ctx, "repo.delete", func(ctx context.Context) error {
				return c.repos.Delete(ctx, handle)
			})
		}
	}

	if err != nil {
		oe := errs.As(err)
		slog.Warn("cleanup step failed", "project", event.ProjectID, "resource", kind, "err", oe)
		return dto.Outcome{Status: consts.OutcomeFailed, Error: toErrorInfo(oe)}
	}
	return dto.Outcome{Status: consts.OutcomeSuccess}
}

func repoHandleFromRecord(record db.ResourceRecord) interfaces.RepoHandle {
	owner, name, _ := strings.Cut(record.RepoFullName, "/")
	return interfaces.RepoHandle{Owner: owner, Name: name}
}
