package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/storefront-tools/demo-provisioner/pkg/env"
)

type ProvisionConfig struct {
	TemplateOwner string
	TemplateRepo  string
	RepoOwner     string
	WorkspaceRoot string
	EnvFileName   string
	RetryAttempts int
	RetryBase     time.Duration
}

func NewProvisionConfig() *ProvisionConfig {
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	attempts, err := strconv.Atoi(env.GetEnv("P_RETRY_ATTEMPTS", "3"))
	if err != nil || attempts < 1 {
		attempts = 3
	}
	base, err := time.ParseDuration(env.GetEnv("P_RETRY_BASE", "1s"))
	if err != nil {
		base = time.Second
	}
	return &ProvisionConfig{
		TemplateOwner: env.GetEnv("P_TEMPLATE_OWNER", "storefront-tools"),
		TemplateRepo:  env.GetEnv("P_TEMPLATE_REPO", "storefront-template"),
		RepoOwner:     os.Getenv("P_REPO_OWNER"),
		WorkspaceRoot: env.GetEnv("P_WORKSPACE_ROOT", filepath.Join(wd, "workspaces")),
		EnvFileName:   env.GetEnv("P_ENV_FILENAME", ".env"),
		RetryAttempts: attempts,
		RetryBase:     base,
	}
}
