package email

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdesk/blogdesk/internal/config"
)

func TestNewPicksImplementation(t *testing.T) {
	_, ok := New(config.EmailConfig{}).(Disabled)
	assert.True(t, ok)

	_, ok = New(config.EmailConfig{ResendAPIKey: "re_x", AdminEmail: "a@b.c"}).(Disabled)
	assert.True(t, ok, "missing FROM_EMAIL")

	_, ok = New(config.EmailConfig{ResendAPIKey: "re_x", AdminEmail: "a@b.c", FromEmail: "blog@b.c"}).(*Resend)
	assert.True(t, ok)
}

func TestDisabledNeverFails(t *testing.T) {
	require.NoError(t, Disabled{}.NotifyNewComment(context.Background(), CommentNotice{ID: "1"}))
}

func TestRenderEscapesInput(t *testing.T) {
	body, err := RenderCommentNotice(CommentNotice{
		ID:        "c-1",
		PostSlug:  "hello-world",
		Name:      "Eve",
		Email:     "eve@example.com",
		Message:   "<script>alert(1)</script>",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, body, "hello-world")
	assert.Contains(t, body, "2024-01-02 03:04 UTC")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
