package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/application/interfaces"
)

// Client talks to the document-authoring admin API with a bearer IMS token
// owned by the host application.
type Client struct {
	cfg    *Config
	tokens oauth2.TokenSource
	client *http.Client
}

var _ interfaces.ContentSiteClient = (*Client)(nil)

func NewClient(cfg *Config, tokens oauth2.TokenSource) *Client {
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) VerifyAccess(ctx context.Context, org string) (interfaces.AccessResult, error) {
	resp, err := c.do(ctx, "GET", fmt.Sprintf("/list/%s/", org), "", nil)
	if err != nil {
		return interfaces.AccessResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return interfaces.AccessResult{Allowed: true}, nil
	case http.StatusUnauthorized:
		return interfaces.AccessResult{}, errs.AuthRequired("content service")
	case http.StatusForbidden, http.StatusNotFound:
		return interfaces.AccessResult{
			Allowed: false,
			Reason:  fmt.Sprintf("no access to content organization %q", org),
		}, nil
	default:
		return interfaces.AccessResult{}, errs.FromStatus("content", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}
}

func (c *Client) ListEntries(ctx context.Context, org, site, path string) ([]interfaces.Entry, error) {
	resp, err := c.do(ctx, "GET", fmt.Sprintf("/list/%s/%s/%s", org, site, strings.TrimPrefix(path, "/")), "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromStatus("content", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}

	var listed []struct {
		Path string `json:"path"`
		Ext  string `json:"ext"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		return nil, fmt.Errorf("err decoding content list, %v", err)
	}
	entries := make([]interfaces.Entry, 0, len(listed))
	for _, e := range listed {
		entries = append(entries, interfaces.Entry{Path: e.Path, Folder: e.Ext == ""})
	}
	return entries, nil
}

// CopyTree indexes the source site once, then copies every document not in
// skip with a bounded worker pool. Entries already copied by an earlier run
// stay copied; failures are reported per path so a retry can target only
// those.
func (c *Client) CopyTree(ctx context.Context, sourceOrg, sourceSite, destOrg, destSite string,
	skip map[string]struct{}, onProgress interfaces.CopyProgress) (interfaces.CopyResult, error) {

	docs, err := c.index(ctx, sourceOrg, sourceSite, "")
	if err != nil {
		return interfaces.CopyResult{}, err
	}
	sort.Strings(docs)

	result := interfaces.CopyResult{Total: len(docs)}
	var mu sync.Mutex
	var done int

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < c.cfg.CopyWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				err := c.copyEntry(ctx, sourceOrg, sourceSite, destOrg, destSite, path)
				mu.Lock()
				done++
				if err != nil {
					result.Failed = append(result.Failed, interfaces.EntryFailure{Path: path, Reason: err.Error()})
					slog.Warn("content copy failed", "path", path, "err", err)
				} else {
					result.Copied = append(result.Copied, path)
				}
				if onProgress != nil {
					onProgress(done, len(docs), path)
				}
				mu.Unlock()
			}
		}()
	}

	for _, path := range docs {
		if _, ok := skip[path]; ok {
			mu.Lock()
			done++
			result.Copied = append(result.Copied, path)
			if onProgress != nil {
				onProgress(done, len(docs), path)
			}
			mu.Unlock()
			continue
		}
		select {
		case jobs <- path:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return result, errs.Network(ctx.Err())
		}
	}
	close(jobs)
	wg.Wait()

	sort.Strings(result.Copied)
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Path < result.Failed[j].Path })
	return result, nil
}

func (c *Client) DeleteSite(ctx context.Context, org, site string) error {
	resp, err := c.do(ctx, "DELETE", fmt.Sprintf("/source/%s/%s/", org, site), "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return errs.FromStatus("content", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}
	slog.Info("deleted content site", "org", org, "site", site)
	return nil
}

// index walks the source tree depth-first, one enumeration per run.
func (c *Client) index(ctx context.Context, org, site, path string) ([]string, error) {
	entries, err := c.ListEntries(ctx, org, site, path)
	if err != nil {
		return nil, err
	}
	var docs []string
	for _, entry := range entries {
		if entry.Folder {
			sub, err := c.index(ctx, org, site, c.relative(org, site, entry.Path))
			if err != nil {
				return nil, err
			}
			docs = append(docs, sub...)
			continue
		}
		docs = append(docs, entry.Path)
	}
	return docs, nil
}

func (c *Client) relative(org, site, fullPath string) string {
	return strings.TrimPrefix(fullPath, "/"+org+"/"+site+"/")
}

func (c *Client) copyEntry(ctx context.Context, sourceOrg, sourceSite, destOrg, destSite, path string) error {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	if err := writer.WriteField("source", path); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	destPath := c.relative(sourceOrg, sourceSite, path)
	resp, err := c.do(ctx, "POST", fmt.Sprintf("/copy/%s/%s/%s", destOrg, destSite, destPath),
		writer.FormDataContentType(), &form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errs.FromStatus("content", resp.StatusCode, errs.ParseRetryAfter(resp.Header.Get("Retry-After")))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	if body == nil {
		body = bytes.NewReader(nil)
	}
	request, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	token, err := c.tokens.Token()
	if err != nil {
		return nil, errs.AuthRequired("content service")
	}
	request.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(request)
	if err != nil {
		return nil, errs.Network(err)
	}
	return resp, nil
}
