package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/storefront-tools/demo-provisioner/internal/application"
	"github.com/storefront-tools/demo-provisioner/internal/application/events"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
	"github.com/storefront-tools/demo-provisioner/internal/application/runlock"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/internal/infra/db"
	"github.com/storefront-tools/demo-provisioner/pkg/env"
)

type RunnerConfig struct {
	limit    int
	interval time.Duration
}

func NewRunnerConfig() *RunnerConfig {
	limit, err := strconv.Atoi(env.GetEnv("RUNNER_LIMIT", "5"))
	if err != nil || limit < 1 {
		limit = 5
	}
	interval, err := time.ParseDuration(env.GetEnv("RUNNER_INTERVAL", "2s"))
	if err != nil {
		interval = 2 * time.Second
	}
	return &RunnerConfig{limit: limit, interval: interval}
}

// Runner polls the jobs table and drives the orchestrators. One job per
// project at a time; a job whose project is busy stays pending for the next
// tick.
type Runner struct {
	handlers *application.Handlers
	projects interfaces.ProjectStore
	jobs     interfaces.JobStore
	locks    *runlock.Registry
	cfg      *RunnerConfig
	stop     chan struct{}
}

func NewRunner(handlers *application.Handlers, projects interfaces.ProjectStore,
	jobs interfaces.JobStore, locks *runlock.Registry, cfg *RunnerConfig,
) *Runner {
	return &Runner{
		handlers: handlers,
		projects: projects,
		jobs:     jobs,
		locks:    locks,
		cfg:      cfg,
		stop:     make(chan struct{}),
	}
}

func (r *Runner) Start() {
	slog.Info("Starting job runner...")
	ctx, cancel := context.WithCancel(context.Background())
	t := time.NewTimer(r.cfg.interval)
	for {
		select {
		case <-t.C:
			r.poll(ctx)
			t = time.NewTimer(r.cfg.interval)
		case <-r.stop:
			slog.Info("Cancelling current execution")
			cancel()
			return
		}
	}
}

func (r *Runner) Stop() {
	close(r.stop)
}

func (r *Runner) poll(ctx context.Context) {
	jobs, err := r.jobs.PendingJobs(ctx, r.cfg.limit)
	if err != nil {
		slog.Error("error polling jobs", "err", err)
		return
	}
	for _, job := range jobs {
		r.dispatch(ctx, job)
	}
}

func (r *Runner) dispatch(ctx context.Context, job db.Job) {
	release, ok := r.locks.TryAcquire(job.ProjectID)
	if !ok {
		slog.Debug("project busy, leaving job pending", "job", job.ID, "project", job.ProjectID)
		return
	}
	defer release()

	var result any
	var runErr error
	switch job.Type {
	case consts.JobProvision:
		result, runErr = r.runProvision(ctx, job)
	case consts.JobCleanup:
		result, runErr = r.runCleanup(ctx, job)
	case consts.JobImportData:
		runErr = r.runImport(ctx, job)
	default:
		slog.Error("unknown job type", "job", job.ID, "type", job.Type)
		runErr = nil
	}
	if runErr != nil {
		slog.Warn("job finished with error", "job", job.ID, "type", job.Type, "err", runErr)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(`{}`)
	}
	if err := r.jobs.MarkProcessed(ctx, job.ID, payload); err != nil {
		slog.Error("error marking job processed", "job", job.ID, "err", err)
	}
}

func (r *Runner) runProvision(ctx context.Context, job db.Job) (any, error) {
	var event events.ProvisionProject
	if err := json.Unmarshal(job.Payload, &event); err != nil {
		return nil, err
	}
	event.ProjectID = job.ProjectID

	r.setStatus(ctx, job, consts.ProjectStatusProvisioning)
	result, err := r.handlers.ProvisionProject.Handle(ctx, event, func(phase consts.Phase, percent int, message string) {
		if err := r.projects.UpdateProgress(ctx, job.ProjectID, phase, percent, message); err != nil {
			slog.Error("error persisting progress", "project", job.ProjectID, "err", err)
		}
	})
	if err != nil {
		r.setStatus(ctx, job, consts.ProjectStatusInError)
	} else {
		r.setStatus(ctx, job, consts.ProjectStatusProvisioned)
	}
	return result, err
}

func (r *Runner) runCleanup(ctx context.Context, job db.Job) (any, error) {
	var event events.CleanupProject
	if err := json.Unmarshal(job.Payload, &event); err != nil {
		return nil, err
	}
	event.ProjectID = job.ProjectID

	r.setStatus(ctx, job, consts.ProjectStatusDeprovisioning)
	result, err := r.handlers.CleanupProject.Handle(ctx, event)
	switch {
	case err != nil:
		r.setStatus(ctx, job, consts.ProjectStatusInError)
	case result.Backend.Status == consts.OutcomeFailed || result.Edge.Status == consts.OutcomeFailed ||
		result.Content.Status == consts.OutcomeFailed || result.Repository.Status == consts.OutcomeFailed:
		r.setStatus(ctx, job, consts.ProjectStatusInError)
	case event.Options.RemoveRepo:
		r.setStatus(ctx, job, consts.ProjectStatusDeleted)
	default:
		r.setStatus(ctx, job, consts.ProjectStatusCreated)
	}
	return result, err
}

func (r *Runner) runImport(ctx context.Context, job db.Job) error {
	var event events.ImportDemoData
	if err := json.Unmarshal(job.Payload, &event); err != nil {
		return err
	}
	event.ProjectID = job.ProjectID
	return r.handlers.ImportDemoData.Handle(ctx, event)
}

func (r *Runner) setStatus(ctx context.Context, job db.Job, status consts.ProjectStatus) {
	if err := r.projects.UpdateStatus(ctx, job.ProjectID, status); err != nil {
		slog.Error("error updating project status", "project", job.ProjectID, "err", err)
	}
}
