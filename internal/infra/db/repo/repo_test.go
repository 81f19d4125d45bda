package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db/repo"
	"github.com/storefront-tools/demo-provisioner/internal/testinfra"
)

func insertProject(t *testing.T, projects *repo.ProjectRepo) uuid.UUID {
	t.Helper()
	project := db.Project{
		ID:        uuid.New(),
		Name:      "citisignal demo",
		Status:    consts.ProjectStatusCreated,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, projects.InsertProject(context.Background(), project))
	return project.ID
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	projects := repo.NewProjectRepo(testinfra.Pool)
	id := insertProject(t, projects)

	require.NoError(t, projects.UpdateStatus(ctx, id, consts.ProjectStatusProvisioning))
	require.NoError(t, projects.UpdateProgress(ctx, id, consts.PhaseContentCopy, 55, "copying content"))

	project, err := projects.GetProject(ctx, id)
	require.NoError(t, err)
	require.Equal(t, consts.ProjectStatusProvisioning, project.Status)
	require.Equal(t, string(consts.PhaseContentCopy), project.ProgressPhase)
	require.Equal(t, 55, project.ProgressPercent)
	require.Equal(t, "copying content", project.ProgressMessage)
}

func TestRecordFieldWrites(t *testing.T) {
	ctx := context.Background()
	projects := repo.NewProjectRepo(testinfra.Pool)
	records := repo.NewRecordRepo(testinfra.Pool)
	id := insertProject(t, projects)

	require.NoError(t, records.EnsureRecord(ctx, id))
	// ensure is idempotent
	require.NoError(t, records.EnsureRecord(ctx, id))

	record, err := records.GetRecord(ctx, id)
	require.NoError(t, err)
	require.False(t, record.HasRepo())
	require.Empty(t, record.CopiedPaths)

	require.NoError(t, records.SetRepo(ctx, id, "acme-demos/citisignal-demo"))
	require.NoError(t, records.SetContent(ctx, id, "acme", "citisignal-demo"))
	require.NoError(t, records.SetCopiedPaths(ctx, id, []string{"/docs/index", "/nav"}))
	require.NoError(t, records.SetClonePath(ctx, id, "/workspaces/demo"))
	require.NoError(t, records.SetEdgeConfig(ctx, id, "edge-citisignal-demo"))
	require.NoError(t, records.SetBackendType(ctx, id, consts.BackendCommerce))

	record, err = records.GetRecord(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "acme-demos/citisignal-demo", record.RepoFullName)
	require.Equal(t, "acme", record.ContentOrg)
	require.Equal(t, "citisignal-demo", record.ContentSite)
	require.Equal(t, []string{"/docs/index", "/nav"}, record.CopiedPaths)
	require.Equal(t, "/workspaces/demo", record.ClonePath)
	require.Equal(t, "edge-citisignal-demo", record.EdgeConfigID)
	require.Equal(t, consts.BackendCommerce, record.BackendType)
	require.NotNil(t, record.LastPublished)
}

func TestRecordClearField(t *testing.T) {
	ctx := context.Background()
	projects := repo.NewProjectRepo(testinfra.Pool)
	records := repo.NewRecordRepo(testinfra.Pool)
	id := insertProject(t, projects)

	require.NoError(t, records.EnsureRecord(ctx, id))
	require.NoError(t, records.SetRepo(ctx, id, "acme-demos/citisignal-demo"))
	require.NoError(t, records.SetContent(ctx, id, "acme", "citisignal-demo"))
	require.NoError(t, records.SetCopiedPaths(ctx, id, []string{"/docs/index"}))
	require.NoError(t, records.SetEdgeConfig(ctx, id, "edge-citisignal-demo"))
	require.NoError(t, records.SetBackendType(ctx, id, consts.BackendACO))

	for _, kind := range consts.CleanupOrder() {
		require.NoError(t, records.ClearField(ctx, id, kind))
	}

	record, err := records.GetRecord(ctx, id)
	require.NoError(t, err)
	require.False(t, record.HasRepo())
	require.False(t, record.HasContent())
	require.False(t, record.HasEdge())
	require.False(t, record.HasBackend())
	require.Empty(t, record.CopiedPaths)
	require.Nil(t, record.LastPublished)

	require.Error(t, records.ClearField(ctx, id, consts.ResourceKind("volcano")))
}

func TestJobQueue(t *testing.T) {
	ctx := context.Background()
	projects := repo.NewProjectRepo(testinfra.Pool)
	jobs := repo.NewJobRepo(testinfra.Pool)
	id := insertProject(t, projects)

	pending, err := jobs.HasPendingForProject(ctx, id)
	require.NoError(t, err)
	require.False(t, pending)

	jobID, err := jobs.EnqueueJob(ctx, db.Job{
		ProjectID: id,
		Type:      consts.JobProvision,
		Payload:   []byte(`{"repoName":"citisignal-demo"}`),
	})
	require.NoError(t, err)
	require.NotZero(t, jobID)

	pending, err = jobs.HasPendingForProject(ctx, id)
	require.NoError(t, err)
	require.True(t, pending)

	batch, err := jobs.PendingJobs(ctx, 10)
	require.NoError(t, err)
	var found bool
	for _, job := range batch {
		if job.ID == jobID {
			found = true
			require.Equal(t, id, job.ProjectID)
			require.Equal(t, consts.JobProvision, job.Type)
			require.Equal(t, consts.JobNotProcessed, job.Status)
		}
	}
	require.True(t, found)

	require.NoError(t, jobs.MarkProcessed(ctx, jobID, []byte(`{"success":true}`)))

	pending, err = jobs.HasPendingForProject(ctx, id)
	require.NoError(t, err)
	require.False(t, pending)
}
