package content

import (
	"strconv"
	"time"

	"github.com/storefront-tools/demo-provisioner/pkg/env"
)

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	CopyWorkers int
}

func NewConfig() *Config {
	timeout, err := time.ParseDuration(env.GetEnv("CONTENT_API_TIMEOUT", "30s"))
	if err != nil {
		timeout = 30 * time.Second
	}
	workers, err := strconv.Atoi(env.GetEnv("CONTENT_COPY_WORKERS", "4"))
	if err != nil || workers < 1 {
		workers = 4
	}
	return &Config{
		BaseURL:     env.GetEnv("CONTENT_API_URL", "https://admin.da.live"),
		Timeout:     timeout,
		CopyWorkers: workers,
	}
}
