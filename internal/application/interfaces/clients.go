package interfaces

import (
	"context"

	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
)

// RepoHandle identifies a created repository across services.
type RepoHandle struct {
	Owner string
	Name  string
}

func (h RepoHandle) FullName() string {
	return h.Owner + "/" + h.Name
}

type Entry struct {
	Path   string
	Folder bool
}

type EntryFailure struct {
	Path   string
	Reason string
}

type CopyResult struct {
	Total  int
	Copied []string
	Failed []EntryFailure
}

type AccessResult struct {
	Allowed bool
	Reason  string
}

// CopyProgress is invoked once per attempted entry during a tree copy.
type CopyProgress func(current, total int, path string)

type RepositoryClient interface {
	VerifyToken(ctx context.Context) error
	CreateFromTemplate(ctx context.Context, owner, templateOwner, templateRepo, newName string) (RepoHandle, error)
	CloneLocally(ctx context.Context, handle RepoHandle, destPath string) error
	WriteFile(ctx context.Context, handle RepoHandle, path string, content []byte, message string) error
	Archive(ctx context.Context, handle RepoHandle) error
	Delete(ctx context.Context, handle RepoHandle) error
}

type ContentSiteClient interface {
	VerifyAccess(ctx context.Context, org string) (AccessResult, error)
	ListEntries(ctx context.Context, org, site, path string) ([]Entry, error)
	CopyTree(ctx context.Context, sourceOrg, sourceSite, destOrg, destSite string, skip map[string]struct{}, onProgress CopyProgress) (CopyResult, error)
	DeleteSite(ctx context.Context, org, site string) error
}

type EdgeConfigClient interface {
	Configure(ctx context.Context, handle RepoHandle, contentSourceURL string) (string, error)
	Unpublish(ctx context.Context, handle RepoHandle) error
}

type BackendCredentials struct {
	Host       string
	StoreCodes []string
	Tenant     string
	Token      string
}

type BackendDataClient interface {
	ImportDemoData(ctx context.Context, backend consts.BackendType, creds BackendCredentials) error
	CleanupDemoData(ctx context.Context, backend consts.BackendType, creds BackendCredentials) error
}
