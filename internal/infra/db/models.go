package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
)

type Project struct {
	ID              uuid.UUID            `db:"id"`
	Name            string               `db:"name"`
	Status          consts.ProjectStatus `db:"status"`
	ProgressPhase   string               `db:"progress_phase"`
	ProgressPercent int                  `db:"progress_percent"`
	ProgressMessage string               `db:"progress_message"`
	CreatedAt       time.Time            `db:"created_at"`
	UpdatedAt       time.Time            `db:"updated_at"`
}

// ResourceRecord mirrors which external resources exist for a project. A NULL
// column means the resource was never created; the deprovisioner trusts this
// over any in-memory state.
type ResourceRecord struct {
	ProjectID     uuid.UUID          `db:"project_id"`
	RepoFullName  string             `db:"repo_full_name"`
	ContentOrg    string             `db:"content_org"`
	ContentSite   string             `db:"content_site"`
	CopiedPaths   []string           `db:"copied_paths"`
	ClonePath     string             `db:"clone_path"`
	EdgeConfigID  string             `db:"edge_config_id"`
	BackendType   consts.BackendType `db:"backend_type"`
	LastPublished *time.Time         `db:"last_published"`
	UpdatedAt     time.Time          `db:"updated_at"`
}

func (r ResourceRecord) HasRepo() bool    { return r.RepoFullName != "" }
func (r ResourceRecord) HasContent() bool { return r.ContentOrg != "" && r.ContentSite != "" }
func (r ResourceRecord) HasEdge() bool    { return r.EdgeConfigID != "" }
func (r ResourceRecord) HasBackend() bool { return r.BackendType != "" }

type Job struct {
	ID        uint64           `db:"id"`
	ProjectID uuid.UUID        `db:"project_id"`
	Type      consts.JobType   `db:"type"`
	Status    consts.JobStatus `db:"status"`
	Payload   json.RawMessage  `db:"payload"`
	Result    json.RawMessage  `db:"result"`
	CreatedAt time.Time        `db:"created_at"`
}
