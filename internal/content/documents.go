// Package content implements the admin operations on the Jekyll site held
// in GitHub: posts, pages, trash, site settings, menus and deployments.
package content

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/frontmatter"
	"github.com/blogdesk/blogdesk/internal/github"
	"github.com/blogdesk/blogdesk/pkg/logger"
)

// Item is a directory listing row.
type Item struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Slug     string `json:"slug"`
	Date     string `json:"date,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

// Entry is a parsed content file.
type Entry struct {
	Filename    string                   `json:"filename"`
	Path        string                   `json:"path"`
	SHA         string                   `json:"sha"`
	Frontmatter *frontmatter.Frontmatter `json:"frontmatter"`
	Body        string                   `json:"body"`
}

// SaveResult reports a successful write.
type SaveResult struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	SHA       string `json:"sha"`
	CommitSHA string `json:"commitSha,omitempty"`
}

// Draft is the editable part of a document.
type Draft struct {
	Filename    string
	Frontmatter *frontmatter.Frontmatter
	Body        string
}

// Collection is a directory of markdown documents: posts or pages.
type Collection struct {
	gw    github.Gateway
	dir   string
	kind  string
	dated bool
	trash *Trash
	now   func() time.Time
}

func newCollection(gw github.Gateway, dir, kind string, dated bool, trash *Trash) *Collection {
	return &Collection{gw: gw, dir: dir, kind: kind, dated: dated, trash: trash, now: time.Now}
}

func (c *Collection) path(filename string) string {
	return c.dir + "/" + filename
}

// List returns the collection's files. Posts are newest first, pages by
// name. A missing directory is an empty collection.
func (c *Collection) List(ctx context.Context) ([]Item, error) {
	entries, err := c.gw.ListDir(ctx, c.dir, "")
	if err != nil {
		if apperr.IsNotFound(err) {
			return []Item{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", c.dir, err)
	}
	out := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.Type == "dir" || !isContentFile(e.Name) {
			continue
		}
		it := Item{Filename: e.Name, Path: e.Path, SHA: e.SHA, Size: e.Size, Slug: slugOf(e.Name)}
		if date, _, ok := splitPostName(e.Name); ok {
			it.Date = date
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if c.dated {
			return out[i].Filename > out[j].Filename
		}
		return out[i].Filename < out[j].Filename
	})
	return out, nil
}

// Get reads and parses one file.
func (c *Collection) Get(ctx context.Context, filename string) (*Entry, error) {
	if err := checkFilename(filename); err != nil {
		return nil, err
	}
	return readEntry(ctx, c.gw, c.path(filename))
}

func readEntry(ctx context.Context, gw github.Gateway, p string) (*Entry, error) {
	f, err := gw.ReadFile(ctx, p, "")
	if err != nil {
		return nil, err
	}
	text, err := f.Decoded()
	if err != nil {
		return nil, err
	}
	doc := frontmatter.Parse(text)
	return &Entry{Filename: path.Base(p), Path: p, SHA: f.SHA, Frontmatter: doc.Frontmatter, Body: doc.Body}, nil
}

// filenameFor derives a filename from the draft's title (and date, for
// posts) when none was given.
func (c *Collection) filenameFor(d Draft) (string, error) {
	if d.Filename != "" {
		if err := checkFilename(d.Filename); err != nil {
			return "", err
		}
		if c.dated {
			if _, _, ok := splitPostName(d.Filename); !ok {
				return "", &apperr.ValidationError{Fields: []string{"filename"}, Message: "post filename must look like YYYY-MM-DD-slug.md"}
			}
		}
		return d.Filename, nil
	}
	slug := Slugify(d.Frontmatter.String("title"))
	if slug == "" {
		return "", &apperr.ValidationError{Fields: []string{"title"}, Message: "title is required to derive a filename"}
	}
	if !c.dated {
		return slug + ".md", nil
	}
	date := c.now().UTC().Format("2006-01-02")
	if raw := d.Frontmatter.String("date"); len(raw) >= 10 {
		if t, err := time.Parse("2006-01-02", raw[:10]); err == nil {
			date = t.Format("2006-01-02")
		}
	}
	return date + "-" + slug + ".md", nil
}

// Create writes a new file. An existing file with the same name is a
// validation error.
func (c *Collection) Create(ctx context.Context, d Draft) (*SaveResult, error) {
	if d.Frontmatter == nil {
		d.Frontmatter = frontmatter.New()
	}
	name, err := c.filenameFor(d)
	if err != nil {
		return nil, err
	}
	p := c.path(name)
	if _, err := c.gw.ReadFile(ctx, p, ""); err == nil {
		return nil, &apperr.ValidationError{Fields: []string{"filename"}, Message: fmt.Sprintf("%s %s already exists", c.kind, name)}
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	content := frontmatter.Document{Frontmatter: d.Frontmatter, Body: d.Body}.Render()
	res, err := c.gw.WriteFile(ctx, github.WriteRequest{Path: p, Content: content, Message: fmt.Sprintf("Create %s %s", c.kind, name)})
	if err != nil {
		return nil, err
	}
	if err := res.Err(p); err != nil {
		return nil, err
	}
	logger.Infow("content created", "kind", c.kind, "path", p)
	return &SaveResult{Filename: name, Path: p, SHA: res.ContentSHA, CommitSHA: res.CommitSHA}, nil
}

// Update replaces an existing file. sha must be the one last read; a stale
// sha surfaces as *apperr.ConflictError.
func (c *Collection) Update(ctx context.Context, d Draft, sha string) (*SaveResult, error) {
	if err := checkFilename(d.Filename); err != nil {
		return nil, err
	}
	if sha == "" {
		return nil, apperr.Invalid("sha")
	}
	if d.Frontmatter == nil {
		d.Frontmatter = frontmatter.New()
	}
	p := c.path(d.Filename)
	content := frontmatter.Document{Frontmatter: d.Frontmatter, Body: d.Body}.Render()
	res, err := c.gw.WriteFile(ctx, github.WriteRequest{Path: p, Content: content, SHA: sha, Message: fmt.Sprintf("Update %s %s", c.kind, d.Filename)})
	if err != nil {
		return nil, err
	}
	if err := res.Err(p); err != nil {
		return nil, err
	}
	return &SaveResult{Filename: d.Filename, Path: p, SHA: res.ContentSHA, CommitSHA: res.CommitSHA}, nil
}

// ErrProtected is wrapped by the validation error returned when deleting a
// page marked `protected: true`.
var ErrProtected = errors.New("page is protected")

// Delete moves a file to the trash. Documents whose frontmatter sets
// `protected: true` are refused.
func (c *Collection) Delete(ctx context.Context, filename, sha string) (*SaveResult, error) {
	e, err := c.Get(ctx, filename)
	if err != nil {
		return nil, err
	}
	if e.Frontmatter.Bool("protected") {
		return nil, &apperr.ValidationError{Fields: []string{"filename"}, Message: fmt.Sprintf("%s: %v", filename, ErrProtected), Err: ErrProtected}
	}
	if sha == "" {
		sha = e.SHA
	}
	return c.trash.Move(ctx, e.Path, sha)
}
