package content

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdesk/blogdesk/internal/apperr"
)

func TestMoveRefusesNameAlreadyInTrash(t *testing.T) {
	cases := []struct {
		name    string
		trashed string
		live    string
	}{
		{"same directory", "_trash/_pages/about.md", "_pages/about.md"},
		{"other directory", "_trash/_posts/2024-01-01-a.md", "_pages/2024-01-01-a.md"},
		{"untagged trash file", "_trash/about.md", "_pages/about.md"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			repo.Put(tc.trashed, "---\ntitle: Old\n---\n")
			sha := repo.Put(tc.live, "---\ntitle: New\n---\n")

			_, err := svc.Trash.Move(context.Background(), tc.live, sha)
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve), "err=%v", err)
			assert.Equal(t, []string{"path"}, ve.Fields)

			old, ok := repo.Content(tc.trashed)
			require.True(t, ok)
			assert.Equal(t, "---\ntitle: Old\n---\n", old)
			_, ok = repo.Content(tc.live)
			assert.True(t, ok)
		})
	}
}

func TestTrashSamePageTwiceKeepsFirstCopy(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	sha := repo.Put("_pages/about.md", "---\ntitle: Old About\n---\n")
	_, err := svc.Pages.Delete(ctx, "about.md", sha)
	require.NoError(t, err)

	sha = repo.Put("_pages/about.md", "---\ntitle: New About\n---\n")
	_, err = svc.Pages.Delete(ctx, "about.md", sha)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))

	old, ok := repo.Content("_trash/_pages/about.md")
	require.True(t, ok)
	assert.Contains(t, old, "Old About")
	items, err := svc.Trash.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, svc.Trash.Purge(ctx, "about.md", ""))
	_, err = svc.Pages.Delete(ctx, "about.md", sha)
	require.NoError(t, err)
}

func TestRestoreDestination(t *testing.T) {
	cases := []struct {
		name     string
		trashed  string
		filename string
		dest     string
		want     string
		status   int
	}{
		{"page goes back to pages", "_trash/_pages/about.md", "about.md", "", "_pages/about.md", http.StatusOK},
		{"post goes back to posts", "_trash/_posts/2024-01-01-a.md", "2024-01-01-a.md", "", "_posts/2024-01-01-a.md", http.StatusOK},
		{"untagged undated file is a page", "_trash/about.md", "about.md", "", "_pages/about.md", http.StatusOK},
		{"untagged dated file is a post", "_trash/2024-01-01-a.md", "2024-01-01-a.md", "", "_posts/2024-01-01-a.md", http.StatusOK},
		{"post restored as page", "_trash/_posts/2024-01-01-a.md", "2024-01-01-a.md", PagesDir, "_pages/2024-01-01-a.md", http.StatusOK},
		{"undated page refused by posts", "_trash/_pages/about.md", "about.md", PostsDir, "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)
			repo.Put(tc.trashed, "---\ntitle: T\n---\nbody")

			res, err := svc.Trash.Restore(context.Background(), tc.filename, tc.dest)
			require.Equal(t, tc.status, apperr.StatusCode(err), "err=%v", err)
			if err != nil {
				_, ok := repo.Content(tc.trashed)
				assert.True(t, ok)
				return
			}
			assert.Equal(t, tc.want, res.Path)
			got, ok := repo.Content(tc.want)
			require.True(t, ok)
			assert.Equal(t, "---\ntitle: T\n---\nbody", got)
			_, ok = repo.Content(tc.trashed)
			assert.False(t, ok)
		})
	}
}

func TestTrashedPageIsNotListedAsPost(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	sha := repo.Put("_pages/about.md", "---\ntitle: About\n---\n")
	_, err := svc.Pages.Delete(ctx, "about.md", sha)
	require.NoError(t, err)

	_, err = svc.Trash.Restore(ctx, "about.md", "")
	require.NoError(t, err)

	posts, err := svc.Posts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
	pages, err := svc.Pages.List(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "about.md", pages[0].Filename)
}
