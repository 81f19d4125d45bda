package commands_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/storefront-tools/demo-provisioner/internal/application/commands"
	"github.com/storefront-tools/demo-provisioner/internal/application/events"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
)

func TestImportDemoData(t *testing.T) {
	records := newMemRecords()
	backend := &fakeBackend{}
	handler := commands.NewImportDemoData(testCredentials(t), backend, records, fastExecutor())

	projectID := uuid.New()
	record := fullRecord(projectID)
	record.BackendType = consts.BackendACO
	records.seed(record)

	err := handler.Handle(context.Background(), events.ImportDemoData{ProjectID: projectID})
	require.NoError(t, err)
	require.Equal(t, []consts.BackendType{consts.BackendACO}, backend.imports)
}

func TestImportDemoDataWithoutBackend(t *testing.T) {
	records := newMemRecords()
	backend := &fakeBackend{}
	handler := commands.NewImportDemoData(testCredentials(t), backend, records, fastExecutor())

	projectID := uuid.New()
	record := fullRecord(projectID)
	record.BackendType = ""
	records.seed(record)

	err := handler.Handle(context.Background(), events.ImportDemoData{ProjectID: projectID})
	require.Error(t, err)
	require.Empty(t, backend.imports)
}
