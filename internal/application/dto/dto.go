package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
)

type CreateProjectRequest struct {
	Name        string             `json:"name"`
	RepoName    string             `json:"repoName"`
	ContentOrg  string             `json:"contentOrg"`
	ContentSite string             `json:"contentSite"`
	SourceOrg   string             `json:"sourceOrg"`
	SourceSite  string             `json:"sourceSite"`
	BackendType consts.BackendType `json:"backendType"`
}

type CreateProjectResponse struct {
	ProjectID uuid.UUID `json:"projectId"`
}

type EnqueueResponse struct {
	JobID uint64 `json:"jobId"`
}

type CleanupRequest struct {
	CleanupBackend bool `json:"cleanupBackend"`
	UnpublishEdge  bool `json:"unpublishEdge"`
	DeleteContent  bool `json:"deleteContent"`
	RemoveRepo     bool `json:"removeRepo"`
	// archive instead of hard delete; needs a lesser scope and is reversible
	ArchiveRepoOnly bool `json:"archiveRepoOnly"`
}

type ErrorInfo struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Hint     string `json:"hint,omitempty"`
	Resource string `json:"resource,omitempty"`
}

type Outcome struct {
	Status consts.OutcomeStatus `json:"status"`
	Error  *ErrorInfo           `json:"error,omitempty"`
}

// CleanupResult always carries one outcome per resource type, even when a
// step was skipped or failed.
type CleanupResult struct {
	Backend    Outcome `json:"backend"`
	Edge       Outcome `json:"edge"`
	Content    Outcome `json:"content"`
	Repository Outcome `json:"repository"`
}

func (r CleanupResult) Outcome(kind consts.ResourceKind) Outcome {
	switch kind {
	case consts.ResourceBackend:
		return r.Backend
	case consts.ResourceEdge:
		return r.Edge
	case consts.ResourceContent:
		return r.Content
	default:
		return r.Repository
	}
}

type RecordSnapshot struct {
	RepoFullName  string             `json:"repoFullName,omitempty"`
	ContentOrg    string             `json:"contentOrg,omitempty"`
	ContentSite   string             `json:"contentSite,omitempty"`
	ClonePath     string             `json:"clonePath,omitempty"`
	EdgeConfigID  string             `json:"edgeConfigId,omitempty"`
	BackendType   consts.BackendType `json:"backendType,omitempty"`
	LastPublished *time.Time         `json:"lastPublished,omitempty"`
}

type ProvisionResult struct {
	Success     bool           `json:"success"`
	Record      RecordSnapshot `json:"record"`
	Error       *ErrorInfo     `json:"error,omitempty"`
	FailedPaths []string       `json:"failedPaths,omitempty"`
}

type ProgressResponse struct {
	Phase   string `json:"phase"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

type ProjectResponse struct {
	ProjectID uuid.UUID            `json:"projectId"`
	Name      string               `json:"name"`
	Status    consts.ProjectStatus `json:"status"`
	Record    RecordSnapshot       `json:"record"`
	Progress  ProgressResponse     `json:"progress"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
