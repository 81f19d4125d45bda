package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront-tools/demo-provisioner/internal/application/dto"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
)

type ProvisionProject struct {
	ProjectID   uuid.UUID
	RepoName    string
	ContentOrg  string
	ContentSite string
	SourceOrg   string
	SourceSite  string
	BackendType consts.BackendType
	DestPath    string
	CreatedAt   time.Time
}

func (e ProvisionProject) GetType() string {
	return "ProvisionProject"
}

type CleanupProject struct {
	ProjectID uuid.UUID
	Options   dto.CleanupRequest
	CreatedAt time.Time
}

func (e CleanupProject) GetType() string {
	return "CleanupProject"
}

type ImportDemoData struct {
	ProjectID uuid.UUID
	CreatedAt time.Time
}

func (e ImportDemoData) GetType() string {
	return "ImportDemoData"
}
