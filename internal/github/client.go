// Package github treats a GitHub repository as a document store: files are
// read, written and deleted by path with the blob sha as an optimistic
// concurrency token. Workflow runs are exposed as the deployment signal.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/blogdesk/blogdesk/pkg/metrics"
)

const provider = "github"

// Gateway is the surface the content services depend on.
type Gateway interface {
	ReadFile(ctx context.Context, path, ref string) (*File, error)
	WriteFile(ctx context.Context, req WriteRequest) (WriteResult, error)
	DeleteFile(ctx context.Context, path, sha, message, branch string) error
	ListDir(ctx context.Context, path, ref string) ([]Entry, error)
	ListWorkflowRuns(ctx context.Context, filter RunFilter) ([]Run, error)
}

// File is a single file read from the repository.
type File struct {
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Size    int    `json:"size"`
	Content string `json:"content"` // base64, as GitHub returns it
}

// Decoded returns the file content as text.
func (f *File) Decoded() (string, error) {
	b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(f.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return string(b), nil
}

// Entry is one item of a directory listing.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

// WriteRequest creates (SHA empty) or updates (SHA set) a file.
type WriteRequest struct {
	Path    string
	Content string // plain text; encoded on the wire
	SHA     string
	Message string
	Branch  string
}

// WriteResult is either Written with the new shas, or Conflict with the sha
// currently at HEAD when it could be determined.
type WriteResult struct {
	Written    bool
	CommitSHA  string
	ContentSHA string

	Conflict   bool
	CurrentSHA string
}

// Err converts a Conflict result into an *apperr.ConflictError.
func (r WriteResult) Err(path string) error {
	if r.Conflict {
		return &apperr.ConflictError{Path: path, CurrentSHA: r.CurrentSHA}
	}
	return nil
}

// RunFilter narrows ListWorkflowRuns.
type RunFilter struct {
	Branch  string
	HeadSHA string
	Limit   int
}

// Run summarizes one workflow run.
type Run struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	RunNumber  int       `json:"runNumber"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	Branch     string    `json:"branch"`
	HeadSHA    string    `json:"headSha"`
	Message    string    `json:"message"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Client implements Gateway against the GitHub REST API.
type Client struct {
	gh     *gh.Client
	owner  string
	repo   string
	branch string
}

// New returns a Client for cfg. A missing token, owner or repo yields a
// *apperr.ConfigurationError.
func New(cfg config.GitHubConfig, httpClient *http.Client) (*Client, error) {
	switch {
	case cfg.Token == "":
		return nil, &apperr.ConfigurationError{Key: "GITHUB_TOKEN"}
	case cfg.Owner == "":
		return nil, &apperr.ConfigurationError{Key: "GITHUB_OWNER"}
	case cfg.Repo == "":
		return nil, &apperr.ConfigurationError{Key: "GITHUB_REPO"}
	}
	c := gh.NewClient(httpClient).WithAuthToken(cfg.Token)
	if cfg.APIURL != "" {
		base := cfg.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse GITHUB_API_URL: %w", err)
		}
		c.BaseURL = u
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	return &Client{gh: c, owner: cfg.Owner, repo: cfg.Repo, branch: branch}, nil
}

// Branch is the default branch used when callers pass none.
func (c *Client) Branch() string { return c.branch }

func (c *Client) ref(r string) string {
	if r == "" {
		return c.branch
	}
	return r
}

func (c *Client) ReadFile(ctx context.Context, path, ref string) (*File, error) {
	fc, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, &gh.RepositoryContentGetOptions{Ref: c.ref(ref)})
	metrics.Upstream(provider, err)
	if err != nil {
		return nil, translate(resp, err, path)
	}
	if fc == nil {
		return nil, &apperr.NotFoundError{Resource: path}
	}
	raw := ""
	if fc.Content != nil {
		raw = *fc.Content
	}
	return &File{Path: fc.GetPath(), SHA: fc.GetSHA(), Size: fc.GetSize(), Content: raw}, nil
}

func (c *Client) WriteFile(ctx context.Context, req WriteRequest) (WriteResult, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(req.Message),
		Content: []byte(req.Content),
		Branch:  gh.String(c.ref(req.Branch)),
	}
	var (
		res  *gh.RepositoryContentResponse
		resp *gh.Response
		err  error
	)
	if req.SHA == "" {
		res, resp, err = c.gh.Repositories.CreateFile(ctx, c.owner, c.repo, req.Path, opts)
	} else {
		opts.SHA = gh.String(req.SHA)
		res, resp, err = c.gh.Repositories.UpdateFile(ctx, c.owner, c.repo, req.Path, opts)
	}
	metrics.Upstream(provider, err)
	if err != nil {
		if isConflict(resp, err) {
			return WriteResult{Conflict: true, CurrentSHA: c.currentSHA(ctx, req.Path, req.Branch)}, nil
		}
		return WriteResult{}, translate(resp, err, req.Path)
	}
	out := WriteResult{Written: true, CommitSHA: res.Commit.GetSHA()}
	if res.Content != nil {
		out.ContentSHA = res.Content.GetSHA()
	}
	return out, nil
}

func (c *Client) DeleteFile(ctx context.Context, path, sha, message, branch string) error {
	if sha == "" {
		return apperr.Invalid("sha")
	}
	_, resp, err := c.gh.Repositories.DeleteFile(ctx, c.owner, c.repo, path, &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		SHA:     gh.String(sha),
		Branch:  gh.String(c.ref(branch)),
	})
	metrics.Upstream(provider, err)
	if err != nil {
		if isConflict(resp, err) {
			return &apperr.ConflictError{Path: path, CurrentSHA: c.currentSHA(ctx, path, branch)}
		}
		return translate(resp, err, path)
	}
	return nil
}

func (c *Client) ListDir(ctx context.Context, path, ref string) ([]Entry, error) {
	_, dir, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, &gh.RepositoryContentGetOptions{Ref: c.ref(ref)})
	metrics.Upstream(provider, err)
	if err != nil {
		return nil, translate(resp, err, path)
	}
	out := make([]Entry, 0, len(dir))
	for _, e := range dir {
		out = append(out, Entry{Name: e.GetName(), Path: e.GetPath(), SHA: e.GetSHA(), Size: e.GetSize(), Type: e.GetType()})
	}
	return out, nil
}

func (c *Client) ListWorkflowRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	opts := &gh.ListWorkflowRunsOptions{
		Branch:      filter.Branch,
		HeadSHA:     filter.HeadSHA,
		ListOptions: gh.ListOptions{PerPage: limit},
	}
	runs, resp, err := c.gh.Actions.ListRepositoryWorkflowRuns(ctx, c.owner, c.repo, opts)
	metrics.Upstream(provider, err)
	if err != nil {
		return nil, translate(resp, err, "workflow runs")
	}
	out := make([]Run, 0, len(runs.WorkflowRuns))
	for _, r := range runs.WorkflowRuns {
		out = append(out, Run{
			ID:         r.GetID(),
			Name:       r.GetName(),
			RunNumber:  r.GetRunNumber(),
			Status:     r.GetStatus(),
			Conclusion: r.GetConclusion(),
			Branch:     r.GetHeadBranch(),
			HeadSHA:    r.GetHeadSHA(),
			Message:    r.GetHeadCommit().GetMessage(),
			URL:        r.GetHTMLURL(),
			CreatedAt:  r.GetCreatedAt().Time,
			UpdatedAt:  r.GetUpdatedAt().Time,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// currentSHA re-reads path after a conflict; failures leave it empty.
func (c *Client) currentSHA(ctx context.Context, path, branch string) string {
	f, err := c.ReadFile(ctx, path, branch)
	if err != nil {
		return ""
	}
	return f.SHA
}

func statusOf(resp *gh.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	return 0
}

// isConflict recognises a stale sha: 409, or 422 complaining about the sha
// (a create racing an existing file).
func isConflict(resp *gh.Response, err error) bool {
	switch statusOf(resp, err) {
	case http.StatusConflict:
		return true
	case http.StatusUnprocessableEntity:
		return strings.Contains(strings.ToLower(err.Error()), "sha")
	}
	return false
}

func translate(resp *gh.Response, err error, resource string) error {
	status := statusOf(resp, err)
	switch status {
	case 0:
		return fmt.Errorf("github request for %s: %w", resource, err)
	case http.StatusNotFound:
		return &apperr.NotFoundError{Resource: resource}
	}
	body := err.Error()
	var er *gh.ErrorResponse
	if errors.As(err, &er) {
		body = er.Message
	}
	return &apperr.UpstreamError{Provider: provider, Status: status, Body: body}
}

// Unconfigured answers every call with the configuration error that
// prevented a real Client from being built.
type Unconfigured struct {
	Err error
}

func (u Unconfigured) ReadFile(context.Context, string, string) (*File, error) { return nil, u.Err }
func (u Unconfigured) WriteFile(context.Context, WriteRequest) (WriteResult, error) {
	return WriteResult{}, u.Err
}
func (u Unconfigured) DeleteFile(context.Context, string, string, string, string) error { return u.Err }
func (u Unconfigured) ListDir(context.Context, string, string) ([]Entry, error)       { return nil, u.Err }
func (u Unconfigured) ListWorkflowRuns(context.Context, RunFilter) ([]Run, error)     { return nil, u.Err }
