package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/storefront-tools/demo-provisioner/internal/application/dto"
	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/application/events"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
	"github.com/storefront-tools/demo-provisioner/internal/application/progress"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/internal/infra/auth"
	"github.com/storefront-tools/demo-provisioner/internal/infra/config"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db"
	"github.com/storefront-tools/demo-provisioner/internal/infra/retry"
)

// ProvisionProject drives the create pipeline. Phases run in a fixed order
// and every phase persists its resource-record field before the next phase
// starts, so a crash or cancellation leaves a record that matches what
// actually exists remotely.
type ProvisionProject struct {
	cfg       *config.ProvisionConfig
	creds     *auth.Credentials
	validator *auth.TokenValidator
	repos     interfaces.RepositoryClient
	content   interfaces.ContentSiteClient
	edge      interfaces.EdgeConfigClient
	records   interfaces.RecordStore
	executor  *retry.Executor
}

func NewProvisionProject(
	cfg *config.ProvisionConfig, creds *auth.Credentials, validator *auth.TokenValidator,
	repos interfaces.RepositoryClient, content interfaces.ContentSiteClient,
	edge interfaces.EdgeConfigClient, records interfaces.RecordStore, executor *retry.Executor,
) *ProvisionProject {
	return &ProvisionProject{
		cfg:       cfg,
		creds:     creds,
		validator: validator,
		repos:     repos,
		content:   content,
		edge:      edge,
		records:   records,
		executor:  executor,
	}
}

func (c *ProvisionProject) Handle(ctx context.Context, event events.ProvisionProject, onProgress progress.Func) (*dto.ProvisionResult, error) {
	reporter := progress.NewReporter(onProgress)

	if err := c.records.EnsureRecord(ctx, event.ProjectID); err != nil {
		return c.failed(ctx, event, errs.Unknown(err)), err
	}

	// auth: nothing is touched until both credentials check out
	reporter.Phase(consts.PhaseAuth, "validating credentials")
	if err := c.validateCredentials(ctx); err != nil {
		oe := errs.As(err)
		return c.failed(ctx, event, oe), oe
	}

	record, err := c.records.GetRecord(ctx, event.ProjectID)
	if err != nil {
		return c.failed(ctx, event, errs.Unknown(err)), err
	}

	// repo: a populated record field means the resource exists, the phase is
	// skipped on resume instead of re-created
	reporter.Phase(consts.PhaseRepo, "creating repository from template")
	var handle interfaces.RepoHandle
	if record.HasRepo() {
		handle = repoHandleFromRecord(record)
		slog.Info("repository already provisioned", "project", event.ProjectID, "repo", handle.FullName())
	} else {
		err = c.executor.Do(ctx, "repo.createFromTemplate", func(ctx context.Context) error {
			var opErr error
			handle, opErr = c.repos.CreateFromTemplate(ctx, c.cfg.RepoOwner, c.cfg.TemplateOwner, c.cfg.TemplateRepo, event.RepoName)
			return opErr
		})
		if err != nil {
			oe := errs.As(err)
			return c.failed(ctx, event, oe), oe
		}
		if err := c.records.SetRepo(ctx, event.ProjectID, handle.FullName()); err != nil {
			return c.failed(ctx, event, errs.Unknown(err)), err
		}
	}

	// content_access
	reporter.Phase(consts.PhaseContentAccess, "verifying content organization access")
	var access interfaces.AccessResult
	err = c.executor.Do(ctx, "content.verifyAccess", func(ctx context.Context) error {
		var opErr error
		access, opErr = c.content.VerifyAccess(ctx, event.ContentOrg)
		return opErr
	})
	if err != nil {
		oe := errs.As(err)
		return c.failed(ctx, event, oe), oe
	}
	if !access.Allowed {
		oe := errs.AccessDenied("content organization", access.Reason)
		return c.failed(ctx, event, oe), oe
	}

	// content_copy: one index fetch, then per-entry copies; entries copied by
	// a previous failed run are skipped via the stored copied set
	reporter.Phase(consts.PhaseContentCopy, "copying content")
	record, err = c.records.GetRecord(ctx, event.ProjectID)
	if err != nil {
		return c.failed(ctx, event, errs.Unknown(err)), err
	}
	skip := make(map[string]struct{}, len(record.CopiedPaths))
	for _, path := range record.CopiedPaths {
		skip[path] = struct{}{}
	}
	copyResult, err := c.content.CopyTree(ctx, event.SourceOrg, event.SourceSite, event.ContentOrg, event.ContentSite, skip,
		func(current, total int, path string) {
			reporter.Sub(consts.PhaseContentCopy, current, total, path)
		})
	if err != nil {
		oe := errs.As(err)
		return c.failed(ctx, event, oe), oe
	}
	// copied entries are never rolled back, the record reflects the partial site
	if err := c.records.SetContent(ctx, event.ProjectID, event.ContentOrg, event.ContentSite); err != nil {
		return c.failed(ctx, event, errs.Unknown(err)), err
	}
	if err := c.records.SetCopiedPaths(ctx, event.ProjectID, copyResult.Copied); err != nil {
		return c.failed(ctx, event, errs.Unknown(err)), err
	}
	if len(copyResult.Failed) > 0 {
		oe := &errs.OrchestratorError{
			Code:     errs.CodeUnknown,
			Resource: "content",
			Message:  fmt.Sprintf("%d of %d entries failed to copy", len(copyResult.Failed), copyResult.Total),
			Hint:     "retry provisioning to re-attempt only the failed entries",
		}
		result := c.failed(ctx, event, oe)
		for _, failure := range copyResult.Failed {
			result.FailedPaths = append(result.FailedPaths, failure.Path)
		}
		sort.Strings(result.FailedPaths)
		return result, oe
	}

	// clone
	reporter.Phase(consts.PhaseClone, "cloning repository")
	destPath := record.ClonePath
	if destPath == "" {
		destPath = event.DestPath
		if destPath == "" {
			destPath = filepath.Join(c.cfg.WorkspaceRoot, event.ProjectID.String())
		}
		err = c.executor.Do(ctx, "repo.cloneLocally", func(ctx context.Context) error {
			return c.repos.CloneLocally(ctx, handle, destPath)
		})
		if err != nil {
			oe := errs.As(err)
			return c.failed(ctx, event, oe), oe
		}
		if err := c.records.SetClonePath(ctx, event.ProjectID, destPath); err != nil {
			return c.failed(ctx, event, errs.Unknown(err)), err
		}
	}

	// configure
	reporter.Phase(consts.PhaseConfigure, "writing environment configuration")
	if err := c.writeEnvironment(ctx, event, handle, destPath); err != nil {
		oe := errs.As(err)
		return c.failed(ctx, event, oe), oe
	}
	if !record.HasEdge() {
		contentSourceURL := fmt.Sprintf("https://content.da.live/%s/%s/", event.ContentOrg, event.ContentSite)
		var edgeConfigID string
		err = c.executor.Do(ctx, "edge.configure", func(ctx context.Context) error {
			var opErr error
			edgeConfigID, opErr = c.edge.Configure(ctx, handle, contentSourceURL)
			return opErr
		})
		if err != nil {
			oe := errs.As(err)
			return c.failed(ctx, event, oe), oe
		}
		if err := c.records.SetEdgeConfig(ctx, event.ProjectID, edgeConfigID); err != nil {
			return c.failed(ctx, event, errs.Unknown(err)), err
		}
	}
	if event.BackendType != "" {
		if err := c.records.SetBackendType(ctx, event.ProjectID, event.BackendType); err != nil {
			return c.failed(ctx, event, errs.Unknown(err)), err
		}
	}

	reporter.Complete("project provisioned")
	slog.Info("project provisioned", "project", event.ProjectID, "repo", handle.FullName())

	record, err = c.records.GetRecord(ctx, event.ProjectID)
	if err != nil {
		return nil, err
	}
	return &dto.ProvisionResult{Success: true, Record: snapshot(record)}, nil
}

func (c *ProvisionProject) validateCredentials(ctx context.Context) error {
	if err := c.executor.Do(ctx, "repo.verifyToken", func(ctx context.Context) error {
		return c.repos.VerifyToken(ctx)
	}); err != nil {
		return err
	}
	token, err := c.creds.ContentTokens.Token()
	if err != nil {
		return errs.AuthRequired("content service")
	}
	if err := c.validator.Validate(token.AccessToken); err != nil {
		slog.Warn("content token rejected", "err", err)
		return errs.AuthRequired("content service")
	}
	return nil
}

// writeEnvironment writes the env file into the local clone and commits the
// same configuration into the created repository.
func (c *ProvisionProject) writeEnvironment(ctx context.Context, event events.ProvisionProject, handle interfaces.RepoHandle, destPath string) error {
	body := fmt.Sprintf("CONTENT_ORG=%s\nCONTENT_SITE=%s\nBACKEND_TYPE=%s\nREPO=%s\n",
		event.ContentOrg, event.ContentSite, event.BackendType, handle.FullName())
	if err := writeLocalFile(filepath.Join(destPath, c.cfg.EnvFileName), []byte(body)); err != nil {
		return errs.Unknown(err)
	}
	return c.executor.Do(ctx, "repo.writeFile", func(ctx context.Context) error {
		return c.repos.WriteFile(ctx, handle, c.cfg.EnvFileName, []byte(body), "chore: project environment")
	})
}

func (c *ProvisionProject) failed(ctx context.Context, event events.ProvisionProject, oe *errs.OrchestratorError) *dto.ProvisionResult {
	result := &dto.ProvisionResult{Success: false, Error: toErrorInfo(oe)}
	record, err := c.records.GetRecord(ctx, event.ProjectID)
	if err != nil {
		slog.Error("err reading partial record", "project", event.ProjectID, "err", err)
		return result
	}
	result.Record = snapshot(record)
	return result
}

func toErrorInfo(oe *errs.OrchestratorError) *dto.ErrorInfo {
	if oe == nil {
		return nil
	}
	return &dto.ErrorInfo{
		Code:     string(oe.Code),
		Message:  oe.Message,
		Hint:     oe.Hint,
		Resource: oe.Resource,
	}
}

func writeLocalFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

func snapshot(record db.ResourceRecord) dto.RecordSnapshot {
	return dto.RecordSnapshot{
		RepoFullName:  record.RepoFullName,
		ContentOrg:    record.ContentOrg,
		ContentSite:   record.ContentSite,
		ClonePath:     record.ClonePath,
		EdgeConfigID:  record.EdgeConfigID,
		BackendType:   record.BackendType,
		LastPublished: record.LastPublished,
	}
}
