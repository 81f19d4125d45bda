package application

import (
	"github.com/storefront-tools/demo-provisioner/internal/application/commands"
	"github.com/storefront-tools/demo-provisioner/internal/application/query"
)

type Handlers struct {
	CreateProject    *commands.CreateProject
	ProvisionProject *commands.ProvisionProject
	CleanupProject   *commands.CleanupProject
	ImportDemoData   *commands.ImportDemoData
	GetProject       *query.GetProject
}
