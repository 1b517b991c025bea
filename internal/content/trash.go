package content

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/github"
	"github.com/blogdesk/blogdesk/pkg/logger"
)

// Trash is the `_trash/` directory. A trashed file sits under the directory
// it came from (`_trash/_posts/`, `_trash/_pages/`) and a file name is in
// the trash at most once. Files found directly in `_trash/` are still
// served; their origin is inferred from the name.
//
// Moves are a copy followed by a delete; there is no transaction across the
// two commits.
type Trash struct {
	gw github.Gateway
}

func NewTrash(gw github.Gateway) *Trash {
	return &Trash{gw: gw}
}

// originOf guesses where an untagged trash file came from.
func originOf(name string) string {
	if _, _, ok := splitPostName(name); ok {
		return PostsDir
	}
	return PagesDir
}

func trashPath(origin, name string) string {
	if origin == "" {
		return TrashDir + "/" + name
	}
	return TrashDir + "/" + origin + "/" + name
}

// List returns trashed files. A trash directory that does not exist yet is
// an empty trash.
func (t *Trash) List(ctx context.Context) ([]Item, error) {
	out := []Item{}
	for _, origin := range []string{"", PostsDir, PagesDir} {
		dir := TrashDir
		if origin != "" {
			dir += "/" + origin
		}
		entries, err := t.gw.ListDir(ctx, dir, "")
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("list trash: %w", err)
		}
		for _, e := range entries {
			if e.Type == "dir" {
				continue
			}
			it := Item{Filename: e.Name, Path: e.Path, SHA: e.SHA, Size: e.Size, Slug: slugOf(e.Name), Origin: origin}
			if it.Origin == "" {
				it.Origin = originOf(e.Name)
			}
			if date, _, ok := splitPostName(e.Name); ok {
				it.Date = date
			}
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// find returns the trashed copy of filename and the directory it was
// trashed from.
func (t *Trash) find(ctx context.Context, filename string) (*github.File, string, error) {
	for _, origin := range []string{PostsDir, PagesDir, ""} {
		f, err := t.gw.ReadFile(ctx, trashPath(origin, filename), "")
		if err == nil {
			if origin == "" {
				origin = originOf(filename)
			}
			return f, origin, nil
		}
		if !apperr.IsNotFound(err) {
			return nil, "", err
		}
	}
	return nil, "", &apperr.NotFoundError{Resource: TrashDir + "/" + filename}
}

// copyFile creates dst with the content of f. dst must not exist: a file
// that appeared in the meantime surfaces as a conflict, never an overwrite.
func (t *Trash) copyFile(ctx context.Context, f *github.File, dst, message string) (github.WriteResult, error) {
	text, err := f.Decoded()
	if err != nil {
		return github.WriteResult{}, err
	}
	res, err := t.gw.WriteFile(ctx, github.WriteRequest{Path: dst, Content: text, Message: message})
	if err != nil {
		return github.WriteResult{}, err
	}
	return res, res.Err(dst)
}

// Move copies the file at p into the trash and deletes the original. sha
// guards the move: a stale sha leaves both directories untouched and
// returns a conflict. A file whose name is already in the trash is refused
// until the trashed copy is restored or purged.
func (t *Trash) Move(ctx context.Context, p, sha string) (*SaveResult, error) {
	if sha == "" {
		return nil, apperr.Invalid("sha")
	}
	origin, name := path.Dir(p), path.Base(p)
	if origin != PostsDir && origin != PagesDir {
		return nil, &apperr.ValidationError{Fields: []string{"path"}, Message: "path must be inside _posts or _pages"}
	}
	if err := checkFilename(name); err != nil {
		return nil, err
	}
	src, err := t.gw.ReadFile(ctx, p, "")
	if err != nil {
		return nil, err
	}
	if src.SHA != sha {
		return nil, &apperr.ConflictError{Path: p, CurrentSHA: src.SHA}
	}
	if prev, _, err := t.find(ctx, name); err == nil {
		return nil, &apperr.ValidationError{Fields: []string{"path"}, Message: fmt.Sprintf("%s is already in the trash; restore or purge it first", prev.Path)}
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}
	dst := trashPath(origin, name)
	res, err := t.copyFile(ctx, src, dst, "Move "+p+" to trash")
	if err != nil {
		return nil, err
	}
	if err := t.gw.DeleteFile(ctx, p, sha, "Remove "+p+" (moved to trash)", ""); err != nil {
		logger.Warnf("trash: %s copied but original not removed: %v", p, err)
		return nil, err
	}
	logger.Infow("moved to trash", "path", p)
	return &SaveResult{Filename: name, Path: dst, SHA: res.ContentSHA, CommitSHA: res.CommitSHA}, nil
}

// Restore moves a trashed file back to destDir, by default the directory
// it was trashed from. Only dated names go to `_posts`. An existing file at
// the destination is a validation error.
func (t *Trash) Restore(ctx context.Context, filename, destDir string) (*SaveResult, error) {
	if err := checkFilename(filename); err != nil {
		return nil, err
	}
	switch destDir {
	case "", PostsDir, PagesDir:
	default:
		return nil, &apperr.ValidationError{Fields: []string{"destination"}, Message: "destination must be _posts or _pages"}
	}
	f, origin, err := t.find(ctx, filename)
	if err != nil {
		return nil, err
	}
	if destDir == "" {
		destDir = origin
	}
	if destDir == PostsDir {
		if _, _, ok := splitPostName(filename); !ok {
			return nil, &apperr.ValidationError{Fields: []string{"destination"}, Message: "only YYYY-MM-DD-slug.md files can be restored to _posts"}
		}
	}
	dst := destDir + "/" + filename
	if _, err := t.gw.ReadFile(ctx, dst, ""); err == nil {
		return nil, &apperr.ValidationError{Fields: []string{"filename"}, Message: dst + " already exists"}
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}
	res, err := t.copyFile(ctx, f, dst, "Restore "+filename+" from trash")
	if err != nil {
		return nil, err
	}
	if err := t.gw.DeleteFile(ctx, f.Path, f.SHA, "Remove "+filename+" from trash (restored)", ""); err != nil {
		logger.Warnf("trash: %s restored but trash copy not removed: %v", filename, err)
		return nil, err
	}
	logger.Infow("restored from trash", "path", dst)
	return &SaveResult{Filename: filename, Path: dst, SHA: res.ContentSHA, CommitSHA: res.CommitSHA}, nil
}

// Purge permanently deletes a trashed file. An empty sha deletes whatever
// version is current.
func (t *Trash) Purge(ctx context.Context, filename, sha string) error {
	if err := checkFilename(filename); err != nil {
		return err
	}
	f, _, err := t.find(ctx, filename)
	if err != nil {
		return err
	}
	if sha == "" {
		sha = f.SHA
	}
	if err := t.gw.DeleteFile(ctx, f.Path, sha, "Permanently delete "+filename, ""); err != nil {
		return err
	}
	logger.Infow("purged from trash", "path", f.Path)
	return nil
}
