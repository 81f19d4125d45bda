package auth

import (
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
)

// Credentials are injected by the host application; this module never runs a
// login flow of its own.
type Credentials struct {
	RepoTokens    oauth2.TokenSource
	ContentTokens oauth2.TokenSource
	Backend       interfaces.BackendCredentials
}

func NewCredentialsFromEnv() *Credentials {
	return &Credentials{
		RepoTokens:    oauth2.StaticTokenSource(&oauth2.Token{AccessToken: os.Getenv("REPO_TOKEN")}),
		ContentTokens: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: os.Getenv("IMS_TOKEN")}),
		Backend: interfaces.BackendCredentials{
			Host:       os.Getenv("BACKEND_HOST"),
			StoreCodes: splitNonEmpty(os.Getenv("BACKEND_STORE_CODES")),
			Tenant:     os.Getenv("BACKEND_TENANT"),
			Token:      os.Getenv("BACKEND_TOKEN"),
		},
	}
}

func splitNonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
