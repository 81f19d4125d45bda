package repos

import (
	"time"

	"github.com/storefront-tools/demo-provisioner/pkg/env"
)

type Config struct {
	BaseURL string
	Owner   string
	GitPath string
	Timeout time.Duration
}

func NewConfig() *Config {
	timeout, err := time.ParseDuration(env.GetEnv("REPO_API_TIMEOUT", "30s"))
	if err != nil {
		timeout = 30 * time.Second
	}
	return &Config{
		BaseURL: env.GetEnv("REPO_API_URL", "https://api.github.com"),
		Owner:   env.GetEnv("REPO_OWNER", ""),
		GitPath: env.GetEnv("GIT_PATH", "git"),
		Timeout: timeout,
	}
}
