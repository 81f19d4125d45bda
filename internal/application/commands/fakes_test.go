package commands_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/internal/infra/auth"
	"github.com/storefront-tools/demo-provisioner/internal/infra/config"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db"
	"github.com/storefront-tools/demo-provisioner/internal/infra/retry"
)

func testProvisionConfig(t *testing.T) *config.ProvisionConfig {
	t.Helper()
	return &config.ProvisionConfig{
		TemplateOwner: "storefront-tools",
		TemplateRepo:  "storefront-template",
		RepoOwner:     "acme-demos",
		WorkspaceRoot: t.TempDir(),
		EnvFileName:   ".env",
	}
}

func testCredentials(t *testing.T) *auth.Credentials {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "provisioner-tests",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("unit-test"))
	require.NoError(t, err)
	return &auth.Credentials{
		RepoTokens:    oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "repo-token"}),
		ContentTokens: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: signed}),
		Backend: interfaces.BackendCredentials{
			Host:       "https://backend.test",
			StoreCodes: []string{"main"},
		},
	}
}

func fastExecutor() *retry.Executor {
	return retry.NewExecutor(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond})
}

// memRecords is an in-memory RecordStore with the same field-at-a-time write
// behavior as the Postgres implementation.
type memRecords struct {
	mu      sync.Mutex
	records map[uuid.UUID]*db.ResourceRecord
}

func newMemRecords() *memRecords {
	return &memRecords{records: map[uuid.UUID]*db.ResourceRecord{}}
}

var _ interfaces.RecordStore = (*memRecords)(nil)

func (s *memRecords) get(projectID uuid.UUID) *db.ResourceRecord {
	record, ok := s.records[projectID]
	if !ok {
		record = &db.ResourceRecord{ProjectID: projectID}
		s.records[projectID] = record
	}
	return record
}

func (s *memRecords) GetRecord(_ context.Context, projectID uuid.UUID) (db.ResourceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[projectID]
	if !ok {
		return db.ResourceRecord{}, fmt.Errorf("no record for project %s", projectID)
	}
	return *record, nil
}

func (s *memRecords) EnsureRecord(_ context.Context, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(projectID)
	return nil
}

func (s *memRecords) SetRepo(_ context.Context, projectID uuid.UUID, repoFullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(projectID).RepoFullName = repoFullName
	return nil
}

func (s *memRecords) SetContent(_ context.Context, projectID uuid.UUID, org, site string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.get(projectID)
	record.ContentOrg = org
	record.ContentSite = site
	return nil
}

func (s *memRecords) SetCopiedPaths(_ context.Context, projectID uuid.UUID, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(projectID).CopiedPaths = append([]string(nil), paths...)
	return nil
}

func (s *memRecords) SetClonePath(_ context.Context, projectID uuid.UUID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(projectID).ClonePath = path
	return nil
}

func (s *memRecords) SetEdgeConfig(_ context.Context, projectID uuid.UUID, edgeConfigID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(projectID).EdgeConfigID = edgeConfigID
	return nil
}

func (s *memRecords) SetBackendType(_ context.Context, projectID uuid.UUID, backend consts.BackendType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(projectID).BackendType = backend
	return nil
}

func (s *memRecords) ClearField(_ context.Context, projectID uuid.UUID, kind consts.ResourceKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.get(projectID)
	switch kind {
	case consts.ResourceRepository:
		record.RepoFullName = ""
		record.ClonePath = ""
	case consts.ResourceContent:
		record.ContentOrg = ""
		record.ContentSite = ""
		record.CopiedPaths = nil
	case consts.ResourceEdge:
		record.EdgeConfigID = ""
	case consts.ResourceBackend:
		record.BackendType = ""
	}
	return nil
}

func (s *memRecords) seed(record db.ResourceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := record
	s.records[record.ProjectID] = &copied
}

type fakeRepos struct {
	mu         sync.Mutex
	existing   map[string]struct{}
	creates    int
	clones     int
	written    []string
	archived   []string
	deleted    []string
	verifyErr  error
	archiveErr error
	deleteErr  error
}

func newFakeRepos() *fakeRepos {
	return &fakeRepos{existing: map[string]struct{}{}}
}

var _ interfaces.RepositoryClient = (*fakeRepos)(nil)

func (f *fakeRepos) VerifyToken(context.Context) error {
	return f.verifyErr
}

func (f *fakeRepos) CreateFromTemplate(_ context.Context, owner, _, _, newName string) (interfaces.RepoHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	handle := interfaces.RepoHandle{Owner: owner, Name: newName}
	if _, ok := f.existing[handle.FullName()]; ok {
		return interfaces.RepoHandle{}, errs.Conflict("repository", "repository "+handle.FullName()+" already exists")
	}
	f.existing[handle.FullName()] = struct{}{}
	return handle, nil
}

func (f *fakeRepos) CloneLocally(_ context.Context, _ interfaces.RepoHandle, destPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clones++
	return os.MkdirAll(destPath, 0o755)
}

func (f *fakeRepos) WriteFile(_ context.Context, _ interfaces.RepoHandle, path string, _ []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, path)
	return nil
}

func (f *fakeRepos) Archive(_ context.Context, handle interfaces.RepoHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archived = append(f.archived, handle.FullName())
	return nil
}

func (f *fakeRepos) Delete(_ context.Context, handle interfaces.RepoHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, handle.FullName())
	delete(f.existing, handle.FullName())
	return nil
}

type fakeContent struct {
	mu        sync.Mutex
	access    interfaces.AccessResult
	accessErr error
	entries   []string
	failPaths map[string]struct{}
	posted    []string
	deleted   []string
	deleteErr error
}

func newFakeContent(entries ...string) *fakeContent {
	return &fakeContent{
		access:    interfaces.AccessResult{Allowed: true},
		entries:   entries,
		failPaths: map[string]struct{}{},
	}
}

var _ interfaces.ContentSiteClient = (*fakeContent)(nil)

func (f *fakeContent) VerifyAccess(context.Context, string) (interfaces.AccessResult, error) {
	return f.access, f.accessErr
}

func (f *fakeContent) ListEntries(context.Context, string, string, string) ([]interfaces.Entry, error) {
	entries := make([]interfaces.Entry, 0, len(f.entries))
	for _, path := range f.entries {
		entries = append(entries, interfaces.Entry{Path: path})
	}
	return entries, nil
}

func (f *fakeContent) CopyTree(_ context.Context, _, _, _, _ string, skip map[string]struct{}, onProgress interfaces.CopyProgress) (interfaces.CopyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := interfaces.CopyResult{Total: len(f.entries)}
	for i, path := range f.entries {
		if _, ok := skip[path]; ok {
			result.Copied = append(result.Copied, path)
		} else if _, ok := f.failPaths[path]; ok {
			result.Failed = append(result.Failed, interfaces.EntryFailure{Path: path, Reason: "upstream error"})
		} else {
			f.posted = append(f.posted, path)
			result.Copied = append(result.Copied, path)
		}
		if onProgress != nil {
			onProgress(i+1, result.Total, path)
		}
	}
	return result, nil
}

func (f *fakeContent) DeleteSite(_ context.Context, org, site string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, org+"/"+site)
	return nil
}

type fakeEdge struct {
	mu           sync.Mutex
	configured   []string
	unpublished  []string
	configureErr error
	unpublishErr error
}

var _ interfaces.EdgeConfigClient = (*fakeEdge)(nil)

func (f *fakeEdge) Configure(_ context.Context, handle interfaces.RepoHandle, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.configureErr != nil {
		return "", f.configureErr
	}
	f.configured = append(f.configured, handle.FullName())
	return "edge-" + handle.Name, nil
}

func (f *fakeEdge) Unpublish(_ context.Context, handle interfaces.RepoHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unpublishErr != nil {
		return f.unpublishErr
	}
	f.unpublished = append(f.unpublished, handle.FullName())
	return nil
}

type fakeBackend struct {
	mu         sync.Mutex
	imports    []consts.BackendType
	cleanups   []consts.BackendType
	importErr  error
	cleanupErr error
}

var _ interfaces.BackendDataClient = (*fakeBackend)(nil)

func (f *fakeBackend) ImportDemoData(_ context.Context, backend consts.BackendType, _ interfaces.BackendCredentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.importErr != nil {
		return f.importErr
	}
	f.imports = append(f.imports, backend)
	return nil
}

func (f *fakeBackend) CleanupDemoData(_ context.Context, backend consts.BackendType, _ interfaces.BackendCredentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cleanupErr != nil {
		return f.cleanupErr
	}
	f.cleanups = append(f.cleanups, backend)
	return nil
}
