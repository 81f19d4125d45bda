package edge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
)

// Client manages the edge-delivery configuration that makes a repository's
// content servable at the CDN edge.
type Client struct {
	cfg    *Config
	tokens oauth2.TokenSource
	client *http.Client
}

var _ interfaces.EdgeConfigClient = (*Client)(nil)

func NewClient(cfg *Config, tokens oauth2.TokenSource) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Configure(ctx context.Context, handle interfaces.RepoHandle, contentSourceURL string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"content": map[string]string{"source": contentSourceURL},
		"code":    map[string]string{"owner": handle.Owner, "repo": handle.Name},
	})
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("/config/%s/sites/%s.json", handle.Owner, handle.Name)
	resp, err := c.do(ctx, "POST", path, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", errs.FromStatus("edge config", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil || created.ID == "" {
		// older deployments answer without a body; the site path is the id then
		created.ID = handle.Owner + "/" + handle.Name
	}
	slog.Info("configured edge delivery", "repo", handle.FullName(), "config", created.ID)
	return created.ID, nil
}

// Unpublish removes live content first so nothing stays publicly servable if
// the preview removal fails.
func (c *Client) Unpublish(ctx context.Context, handle interfaces.RepoHandle) error {
	for _, surface := range []string{"live", "preview"} {
		path := fmt.Sprintf("/%s/%s/%s/%s/*", surface, handle.Owner, handle.Name, c.cfg.Ref)
		resp, err := c.do(ctx, "DELETE", path, nil)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
			return errs.FromStatus("edge config", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
		}
		slog.Info("unpublished edge surface", "repo", handle.FullName(), "surface", surface)
	}
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
		return nil, errs.AuthRequired("edge config service")
	}
	request.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if method == "POST" {
		request.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(request)
	if err != nil {
		return nil, errs.Network(err)
	}
	return resp, nil
}
