package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/application/events"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
	"github.com/storefront-tools/demo-provisioner/internal/infra/auth"
	"github.com/storefront-tools/demo-provisioner/internal/infra/retry"
)

type ImportDemoData struct {
	creds    *auth.Credentials
	backend  interfaces.BackendDataClient
	records  interfaces.RecordStore
	executor *retry.Executor
}

func NewImportDemoData(creds *auth.Credentials, backend interfaces.BackendDataClient,
	records interfaces.RecordStore, executor *retry.Executor,
) *ImportDemoData {
	return &ImportDemoData{creds: creds, backend: backend, records: records, executor: executor}
}

func (c *ImportDemoData) Handle(ctx context.Context, event events.ImportDemoData) error {
	record, err := c.records.GetRecord(ctx, event.ProjectID)
	if err != nil {
		return err
	}
	if !record.HasBackend() {
		return errs.As(fmt.Errorf("project %v has no backend configured", event.ProjectID))
	}
	err = c.executor.Do(ctx, "backend.importDemoData", func(ctx context.Context) error {
		return c.backend.ImportDemoData(ctx, record.BackendType, c.creds.Backend)
	})
	if err != nil {
		return errs.As(err)
	}
	slog.Info("demo data imported", "project", event.ProjectID, "backend", record.BackendType)
	return nil
}
