package dataload

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
	"github.com/storefront-tools/demo-provisioner/internal/domain/consts"
	"github.com/storefront-tools/demo-provisioner/pkg/env"
)

type Config struct {
	ToolPath string
}

func NewConfig() *Config {
	return &Config{
		ToolPath: env.GetEnv("DATA_TOOL_PATH", "demo-data-tool"),
	}
}

// Tool drives the external demo-data ingestion tool as a subprocess. The
// integration surface is argv plus exit code, nothing else.
type Tool struct {
	cfg *Config
}

var _ interfaces.BackendDataClient = (*Tool)(nil)

func NewTool(cfg *Config) *Tool {
	return &Tool{cfg: cfg}
}

func (t *Tool) ImportDemoData(ctx context.Context, backend consts.BackendType, creds interfaces.BackendCredentials) error {
	return t.run(ctx, "import", backend, creds)
}

func (t *Tool) CleanupDemoData(ctx context.Context, backend consts.BackendType, creds interfaces.BackendCredentials) error {
	return t.run(ctx, "cleanup", backend, creds)
}

func (t *Tool) run(ctx context.Context, verb string, backend consts.BackendType, creds interfaces.BackendCredentials) error {
	args, err := toolArgs(verb, backend, creds)
	if err != nil {
		return err
	}
	proc := exec.CommandContext(ctx, t.cfg.ToolPath, args...)
	if creds.Token != "" {
		proc.Env = append(proc.Environ(), "DATA_TOOL_TOKEN="+creds.Token)
	}
	slog.Info("running data tool", "verb", verb, "backend", backend)
	out, err := proc.CombinedOutput()
	if err != nil {
		slog.Error("data tool exited with err", "verb", verb, "backend", backend, "out", string(out))
		return errs.Network(fmt.Errorf("data tool %s: %w", verb, err))
	}
	slog.Info("data tool finished", "verb", verb, "backend", backend)
	return nil
}

// The backend type is a closed two-variant union; anything else is a
// programming error, not a capability probe.
func toolArgs(verb string, backend consts.BackendType, creds interfaces.BackendCredentials) ([]string, error) {
	switch backend {
	case consts.BackendCommerce:
		args := []string{verb, "--backend", "commerce", "--host", creds.Host}
		if len(creds.StoreCodes) > 0 {
			args = append(args, "--store-codes", strings.Join(creds.StoreCodes, ","))
		}
		return args, nil
	case consts.BackendACO:
		return []string{verb, "--backend", "aco", "--tenant", creds.Tenant}, nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", backend)
	}
}
