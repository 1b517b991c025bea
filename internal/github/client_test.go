package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI emulates the handful of GitHub REST endpoints the client calls.
type fakeAPI struct {
	mu    sync.Mutex
	files map[string]string // path -> content
	shas  map[string]string // path -> sha
	seq   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{files: map[string]string{}, shas: map[string]string{}}
}

func (f *fakeAPI) put(path, content string) string {
	f.seq++
	sha := "sha" + strings.Repeat("x", f.seq)
	f.files[path] = content
	f.shas[path] = sha
	return sha
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/repos/o/r/actions/runs" {
		sha := r.URL.Query().Get("head_sha")
		runs := []map[string]any{
			{"id": 2, "name": "pages build", "run_number": 8, "status": "completed", "conclusion": "success", "head_branch": "main", "head_sha": "abc", "html_url": "https://example/2", "created_at": "2026-10-01T10:00:00Z", "head_commit": map[string]any{"message": "Update post"}},
			{"id": 1, "name": "pages build", "run_number": 7, "status": "in_progress", "head_branch": "main", "head_sha": "def", "created_at": "2026-09-30T10:00:00Z"},
		}
		if sha != "" {
			filtered := runs[:0]
			for _, run := range runs {
				if run["head_sha"] == sha {
					filtered = append(filtered, run)
				}
			}
			runs = filtered
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"total_count": len(runs), "workflow_runs": runs})
		return
	}

	const prefix = "/repos/o/r/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodGet:
		if content, ok := f.files[path]; ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type": "file", "encoding": "base64", "name": path[strings.LastIndex(path, "/")+1:], "path": path,
				"sha": f.shas[path], "size": len(content), "content": base64.StdEncoding.EncodeToString([]byte(content)),
			})
			return
		}
		var dir []map[string]any
		for p, content := range f.files {
			if strings.HasPrefix(p, path+"/") {
				dir = append(dir, map[string]any{"type": "file", "name": strings.TrimPrefix(p, path+"/"), "path": p, "sha": f.shas[p], "size": len(content)})
			}
		}
		if dir == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(dir)
	case http.MethodPut:
		var body struct {
			Content string `json:"content"`
			SHA     string `json:"sha"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		cur, exists := f.shas[path]
		if exists && body.SHA == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Invalid request.\n\n\"sha\" wasn't supplied."}`))
			return
		}
		if exists && body.SHA != cur {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"is at ` + cur + ` but expected ` + body.SHA + `"}`))
			return
		}
		raw, _ := base64.StdEncoding.DecodeString(body.Content)
		sha := f.put(path, string(raw))
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": map[string]any{"path": path, "sha": sha}, "commit": map[string]any{"sha": "commit-" + sha}})
	case http.MethodDelete:
		var body struct {
			SHA string `json:"sha"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		cur, exists := f.shas[path]
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		if body.SHA != cur {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"sha does not match"}`))
			return
		}
		delete(f.files, path)
		delete(f.shas, path)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": nil, "commit": map[string]any{"sha": "commit-del"}})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, api http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c, err := New(config.GitHubConfig{Token: "t", Owner: "o", Repo: "r", Branch: "main", APIURL: srv.URL}, srv.Client())
	require.NoError(t, err)
	return c
}

func TestNewRequiresConfiguration(t *testing.T) {
	_, err := New(config.GitHubConfig{Owner: "o", Repo: "r"}, nil)
	var ce *apperr.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "GITHUB_TOKEN", ce.Key)
}

func TestReadWriteDelete(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)
	ctx := context.Background()

	res, err := c.WriteFile(ctx, WriteRequest{Path: "_posts/a.md", Content: "hello", Message: "create"})
	require.NoError(t, err)
	require.True(t, res.Written)
	assert.NotEmpty(t, res.ContentSHA)
	assert.Equal(t, "commit-"+res.ContentSHA, res.CommitSHA)

	f, err := c.ReadFile(ctx, "_posts/a.md", "")
	require.NoError(t, err)
	assert.Equal(t, res.ContentSHA, f.SHA)
	text, err := f.Decoded()
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	res2, err := c.WriteFile(ctx, WriteRequest{Path: "_posts/a.md", Content: "v2", SHA: f.SHA, Message: "update"})
	require.NoError(t, err)
	require.True(t, res2.Written)

	entries, err := c.ListDir(ctx, "_posts", "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.md", entries[0].Name)

	require.NoError(t, c.DeleteFile(ctx, "_posts/a.md", res2.ContentSHA, "delete", ""))
	_, err = c.ReadFile(ctx, "_posts/a.md", "")
	assert.True(t, apperr.IsNotFound(err))
}

func TestStaleSHAIsConflictNotOverwrite(t *testing.T) {
	api := newFakeAPI()
	current := api.put("_posts/a.md", "original")
	c := newTestClient(t, api)
	ctx := context.Background()

	res, err := c.WriteFile(ctx, WriteRequest{Path: "_posts/a.md", Content: "mine", SHA: "stale", Message: "update"})
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.True(t, res.Conflict)
	assert.Equal(t, current, res.CurrentSHA)
	assert.Equal(t, "original", api.files["_posts/a.md"])

	var ce *apperr.ConflictError
	require.ErrorAs(t, res.Err("_posts/a.md"), &ce)
	assert.Equal(t, current, ce.CurrentSHA)

	// creating over an existing file without a sha is a conflict too
	res, err = c.WriteFile(ctx, WriteRequest{Path: "_posts/a.md", Content: "mine", Message: "create"})
	require.NoError(t, err)
	assert.True(t, res.Conflict)

	err = c.DeleteFile(ctx, "_posts/a.md", "stale", "delete", "")
	require.ErrorAs(t, err, &ce)
}

func TestListDirMissingIsNotFound(t *testing.T) {
	c := newTestClient(t, newFakeAPI())
	_, err := c.ListDir(context.Background(), "_trash", "")
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpstreamError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream exploded"}`))
	}))
	_, err := c.ReadFile(context.Background(), "x.md", "")
	var ue *apperr.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadGateway, ue.Status)
	assert.Equal(t, "upstream exploded", ue.Body)
}

func TestListWorkflowRuns(t *testing.T) {
	c := newTestClient(t, newFakeAPI())
	ctx := context.Background()

	runs, err := c.ListWorkflowRuns(ctx, RunFilter{Branch: "main", Limit: 5})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(2), runs[0].ID)
	assert.Equal(t, "success", runs[0].Conclusion)
	assert.Equal(t, "Update post", runs[0].Message)
	assert.Equal(t, 2026, runs[0].CreatedAt.Year())

	runs, err = c.ListWorkflowRuns(ctx, RunFilter{HeadSHA: "def"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "in_progress", runs[0].Status)
}

func TestUnconfigured(t *testing.T) {
	var g Gateway = Unconfigured{Err: &apperr.ConfigurationError{Key: "GITHUB_TOKEN"}}
	_, err := g.ReadFile(context.Background(), "x", "")
	var ce *apperr.ConfigurationError
	assert.ErrorAs(t, err, &ce)
}
