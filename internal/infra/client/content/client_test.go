package content_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/storefront-tools/demo-provisioner/internal/application/errs"
	"github.com/storefront-tools/demo-provisioner/internal/infra/client/content"
)

// fake authoring service with a three-document source tree
func newContentServer(t *testing.T, failPaths map[string]bool, copied *[]string, mu *sync.Mutex) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/list/acme/source/":
			fmt.Fprint(w, `[{"path":"/acme/source/index","ext":"html"},{"path":"/acme/source/products","ext":""}]`)
		case r.Method == "GET" && r.URL.Path == "/list/acme/source/products":
			fmt.Fprint(w, `[{"path":"/acme/source/products/p1","ext":"json"},{"path":"/acme/source/products/p2","ext":"json"}]`)
		case r.Method == "POST" && strings.HasPrefix(r.URL.Path, "/copy/acme/demo-1/"):
			require.NoError(t, r.ParseMultipartForm(1<<20))
			source := r.FormValue("source")
			require.NotEmpty(t, source)
			if failPaths[source] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			mu.Lock()
			*copied = append(*copied, source)
			mu.Unlock()
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newClient(serverURL string, workers int) *content.Client {
	cfg := &content.Config{BaseURL: serverURL, Timeout: 5 * time.Second, CopyWorkers: workers}
	return content.NewClient(cfg, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "ims-token"}))
}

func Test_CopyTree_Given_All_Entries_Succeed_When_Called_Then_All_Copied(t *testing.T) {
	var copied []string
	var mu sync.Mutex
	server := newContentServer(t, nil, &copied, &mu)
	defer server.Close()

	var progressCalls int
	result, err := newClient(server.URL, 2).CopyTree(context.Background(), "acme", "source", "acme", "demo-1", nil,
		func(current, total int, path string) {
			progressCalls++
			require.Equal(t, 3, total)
			require.LessOrEqual(t, current, total)
		})

	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Len(t, result.Copied, 3)
	require.Empty(t, result.Failed)
	require.Equal(t, 3, progressCalls)
}

func Test_CopyTree_Given_Failing_Entries_When_Called_Then_Counts_Split_Exactly(t *testing.T) {
	var copied []string
	var mu sync.Mutex
	server := newContentServer(t, map[string]bool{"/acme/source/products/p1": true}, &copied, &mu)
	defer server.Close()

	result, err := newClient(server.URL, 2).CopyTree(context.Background(), "acme", "source", "acme", "demo-1", nil, nil)

	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Len(t, result.Failed, 1)
	require.Len(t, result.Copied, 2)
	require.Equal(t, result.Total, len(result.Copied)+len(result.Failed))
	require.Equal(t, "/acme/source/products/p1", result.Failed[0].Path)
}

func Test_CopyTree_Given_Skip_Set_When_Called_Then_Skipped_Entries_Not_Reposted(t *testing.T) {
	var copied []string
	var mu sync.Mutex
	server := newContentServer(t, nil, &copied, &mu)
	defer server.Close()

	skip := map[string]struct{}{"/acme/source/index": {}}
	result, err := newClient(server.URL, 1).CopyTree(context.Background(), "acme", "source", "acme", "demo-1", skip, nil)

	require.NoError(t, err)
	require.Len(t, result.Copied, 3, "skipped entries count as copied")
	require.NotContains(t, copied, "/acme/source/index", "skipped entry must not be re-posted")
}

func Test_VerifyAccess_Given_Forbidden_Org_When_Called_Then_Not_Allowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	access, err := newClient(server.URL, 1).VerifyAccess(context.Background(), "acme")
	require.NoError(t, err)
	require.False(t, access.Allowed)
	require.NotEmpty(t, access.Reason)
}

func Test_VerifyAccess_Given_401_When_Called_Then_Auth_Required(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newClient(server.URL, 1).VerifyAccess(context.Background(), "acme")
	require.Error(t, err)
	require.Equal(t, errs.CodeAuthRequired, errs.As(err).Code)
}

func Test_DeleteSite_Given_Existing_Site_When_Called_Then_Deletes_Root(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "DELETE", r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := newClient(server.URL, 1).DeleteSite(context.Background(), "acme", "demo-1")
	require.NoError(t, err)
	require.Equal(t, "/source/acme/demo-1/", gotPath)
}
