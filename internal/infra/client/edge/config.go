package edge

import (
	"time"

	"github.com/storefront-tools/demo-provisioner/pkg/env"
)

type Config struct {
	BaseURL string
	Ref     string
	Timeout time.Duration
}

func NewConfig() *Config {
	timeout, err := time.ParseDuration(env.GetEnv("EDGE_API_TIMEOUT", "30s"))
	if err != nil {
		timeout = 30 * time.Second
	}
	return &Config{
		BaseURL: env.GetEnv("EDGE_API_URL", "https://admin.hlx.page"),
		Ref:     env.GetEnv("EDGE_REF", "main"),
		Timeout: timeout,
	}
}
