// Package githubtest provides an in-memory github.Gateway with the same sha
// semantics as the GitHub contents API, for tests of the layers above it.
package githubtest

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"sort"
	"strings"
	"sync"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/github"
)

// Repo is a thread-safe in-memory repository.
type Repo struct {
	mu      sync.Mutex
	files   map[string]string
	Runs    []github.Run
	Commits int
	// FailWith, when set, is returned by every call.
	FailWith error
}

func NewRepo() *Repo {
	return &Repo{files: map[string]string{}}
}

// SHA computes the blob sha the repo assigns to content.
func SHA(content string) string {
	h := sha1.Sum([]byte(content))
	return hex.EncodeToString(h[:])
}

// Put stores a file directly and returns its sha.
func (r *Repo) Put(path, content string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = content
	return SHA(content)
}

// Content returns the raw text of path.
func (r *Repo) Content(path string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.files[path]
	return c, ok
}

func (r *Repo) ReadFile(_ context.Context, path, _ string) (*github.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	c, ok := r.files[path]
	if !ok {
		return nil, &apperr.NotFoundError{Resource: path}
	}
	return &github.File{Path: path, SHA: SHA(c), Size: len(c), Content: base64.StdEncoding.EncodeToString([]byte(c))}, nil
}

func (r *Repo) WriteFile(_ context.Context, req github.WriteRequest) (github.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return github.WriteResult{}, r.FailWith
	}
	if cur, ok := r.files[req.Path]; ok && SHA(cur) != req.SHA {
		return github.WriteResult{Conflict: true, CurrentSHA: SHA(cur)}, nil
	} else if !ok && req.SHA != "" {
		return github.WriteResult{}, &apperr.NotFoundError{Resource: req.Path}
	}
	r.files[req.Path] = req.Content
	r.Commits++
	sha := SHA(req.Content)
	return github.WriteResult{Written: true, ContentSHA: sha, CommitSHA: "commit-" + sha}, nil
}

func (r *Repo) DeleteFile(_ context.Context, path, sha, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	cur, ok := r.files[path]
	if !ok {
		return &apperr.NotFoundError{Resource: path}
	}
	if SHA(cur) != sha {
		return &apperr.ConflictError{Path: path, CurrentSHA: SHA(cur)}
	}
	delete(r.files, path)
	r.Commits++
	return nil
}

func (r *Repo) ListDir(_ context.Context, path, _ string) ([]github.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	var out []github.Entry
	for p, c := range r.files {
		rest := strings.TrimPrefix(p, prefix)
		if !strings.HasPrefix(p, prefix) || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, github.Entry{Name: rest, Path: p, SHA: SHA(c), Size: len(c), Type: "file"})
	}
	if out == nil {
		return nil, &apperr.NotFoundError{Resource: path}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repo) ListWorkflowRuns(_ context.Context, filter github.RunFilter) ([]github.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}
	var out []github.Run
	for _, run := range r.Runs {
		if filter.HeadSHA != "" && run.HeadSHA != filter.HeadSHA {
			continue
		}
		if filter.Branch != "" && run.Branch != filter.Branch {
			continue
		}
		out = append(out, run)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
