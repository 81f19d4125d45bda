package consts

type Phase string

const (
	PhaseAuth          Phase = "auth"
	PhaseRepo          Phase = "repo"
	PhaseContentAccess Phase = "content_access"
	PhaseContentCopy   Phase = "content_copy"
	PhaseClone         Phase = "clone"
	PhaseConfigure     Phase = "configure"
	PhaseComplete      Phase = "complete"
)

type BackendType string

const (
	BackendCommerce BackendType = "commerce"
	BackendACO      BackendType = "aco"
)

type ProjectStatus string

const (
	ProjectStatusCreated        ProjectStatus = "Created"
	ProjectStatusProvisioning   ProjectStatus = "Provisioning"
	ProjectStatusProvisioned    ProjectStatus = "Provisioned"
	ProjectStatusInError        ProjectStatus = "InError"
	ProjectStatusDeprovisioning ProjectStatus = "Deprovisioning"
	ProjectStatusDeleted        ProjectStatus = "Deleted"
)

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Resource kinds in cleanup order: backend data is cheapest to recreate and
// goes first, the repository is the most destructive and goes last.
type ResourceKind string

const (
	ResourceBackend    ResourceKind = "backend"
	ResourceEdge       ResourceKind = "edge"
	ResourceContent    ResourceKind = "content"
	ResourceRepository ResourceKind = "repository"
)

func CleanupOrder() []ResourceKind {
	return []ResourceKind{ResourceBackend, ResourceEdge, ResourceContent, ResourceRepository}
}

type JobStatus int

const (
	JobNotProcessed JobStatus = iota
	JobProcessed
)

type JobType string

const (
	JobProvision  JobType = "Provision"
	JobCleanup    JobType = "Cleanup"
	JobImportData JobType = "ImportData"
)
