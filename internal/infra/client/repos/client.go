package repos

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"

	"golang.org/x/oauth2"

	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
)

// Client talks to a GitHub-style repository API. Archiving needs the repo
// scope, hard delete additionally needs delete_repo.
type Client struct {
	cfg    *Config
	tokens oauth2.TokenSource
	client *http.Client
}

var _ interfaces.RepositoryClient = (*Client)(nil)

func NewClient(cfg *Config, tokens oauth2.TokenSource) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) VerifyToken(ctx context.Context) error {
	resp, err := c.do(ctx, "GET", "/user", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errs.AuthRequired("repository service")
	}
	if resp.StatusCode >= 300 {
		return errs.FromStatus("repository service", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}
	return nil
}

func (c *Client) CreateFromTemplate(ctx context.Context, owner, templateOwner, templateRepo, newName string) (interfaces.RepoHandle, error) {
	body, err := json.Marshal(map[string]any{
		"owner":                owner,
		"name":                 newName,
		"include_all_branches": false,
	})
	if err != nil {
		return interfaces.RepoHandle{}, err
	}
	path := fmt.Sprintf("/repos/%s/%s/generate", templateOwner, templateRepo)
	resp, err := c.do(ctx, "POST", path, bytes.NewReader(body))
	if err != nil {
		return interfaces.RepoHandle{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		// the API reports name collisions as 422
		return interfaces.RepoHandle{}, errs.Conflict("repository", fmt.Sprintf("repository %q already exists", newName))
	default:
		return interfaces.RepoHandle{}, errs.FromStatus("repository", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}

	var created struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return interfaces.RepoHandle{}, fmt.Errorf("err decoding created repo, %v", err)
	}
	handle := interfaces.RepoHandle{Owner: created.Owner.Login, Name: created.Name}
	if handle.Owner == "" {
		handle.Owner = owner
	}
	if handle.Name == "" {
		handle.Name = newName
	}
	slog.Info("created repository from template", "repo", handle.FullName(), "template", templateOwner+"/"+templateRepo)
	return handle, nil
}

func (c *Client) CloneLocally(ctx context.Context, handle interfaces.RepoHandle, destPath string) error {
	token, err := c.tokens.Token()
	if err != nil {
		return errs.AuthRequired("repository service")
	}
	host := strings.TrimPrefix(strings.TrimPrefix(c.cfg.BaseURL, "https://api."), "https://")
	cloneURL := fmt.Sprintf("https://x-access-token:%s@%s/%s.git", token.AccessToken, host, handle.FullName())

	clone := exec.CommandContext(ctx, c.cfg.GitPath, "clone", "--depth", "1", cloneURL, destPath)
	out, err := clone.CombinedOutput()
	if err != nil {
		slog.Error("git clone failed", "repo", handle.FullName(), "out", string(out))
		return errs.Network(fmt.Errorf("git clone %s: %w", handle.FullName(), err))
	}
	slog.Info("cloned repository", "repo", handle.FullName(), "dest", destPath)
	return nil
}

func (c *Client) WriteFile(ctx context.Context, handle interfaces.RepoHandle, path string, content []byte, message string) error {
	body, err := json.Marshal(map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, "PUT", fmt.Sprintf("/repos/%s/contents/%s", handle.FullName(), path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return errs.FromStatus("repository", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}
	return nil
}

func (c *Client) Archive(ctx context.Context, handle interfaces.RepoHandle) error {
	body := bytes.NewReader([]byte(`{"archived":true}`))
	resp, err := c.do(ctx, "PATCH", "/repos/"+handle.FullName(), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errs.FromStatus("repository", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}
	slog.Info("archived repository", "repo", handle.FullName())
	return nil
}

func (c *Client) Delete(ctx context.Context, handle interfaces.RepoHandle) error {
	resp, err := c.do(ctx, "DELETE", "/repos/"+handle.FullName(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// a repo deleted by hand earlier is fine
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return errs.FromStatus("repository", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}
	slog.Info("deleted repository", "repo", handle.FullName())
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader) (*http.Response, error) {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = body
	}
	request, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	token, err := c.tokens.Token()
	if err != nil {
		return nil, errs.AuthRequired("repository service")
	}
	request.Header.Set("Authorization", "Bearer "+token.AccessToken)
	request.Header.Set("Accept", "application/vnd.github+json")
	if method == "POST" || method == "PUT" || method == "PATCH" {
		request.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(request)
	if err != nil {
		return nil, errs.Network(err)
	}
	return resp, nil
}
