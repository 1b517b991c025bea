// Package email sends admin notifications through Resend.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/blogdesk/blogdesk/pkg/logger"
	"github.com/blogdesk/blogdesk/pkg/metrics"
)

// CommentNotice describes a newly stored comment.
type CommentNotice struct {
	ID        string
	PostSlug  string
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// Notifier delivers admin notifications.
type Notifier interface {
	NotifyNewComment(ctx context.Context, n CommentNotice) error
}

// New returns a Resend notifier when the API key and both addresses are
// configured, otherwise a Disabled notifier.
func New(cfg config.EmailConfig) Notifier {
	if cfg.ResendAPIKey == "" || cfg.AdminEmail == "" || cfg.FromEmail == "" {
		logger.Warnf("email notifications disabled: RESEND_API_KEY, ADMIN_EMAIL and FROM_EMAIL are required")
		return Disabled{}
	}
	return NewResend(cfg)
}

// Disabled only logs.
type Disabled struct{}

func (Disabled) NotifyNewComment(_ context.Context, n CommentNotice) error {
	logger.Infow("comment notification skipped (email disabled)", "id", n.ID, "post", n.PostSlug)
	return nil
}

// Resend sends through the Resend API.
type Resend struct {
	client *resend.Client
	from   string
	to     string
}

func NewResend(cfg config.EmailConfig) *Resend {
	return &Resend{client: resend.NewClient(cfg.ResendAPIKey), from: cfg.FromEmail, to: cfg.AdminEmail}
}

func (r *Resend) NotifyNewComment(ctx context.Context, n CommentNotice) error {
	if r.to == "" {
		return &apperr.ConfigurationError{Key: "ADMIN_EMAIL"}
	}
	body, err := RenderCommentNotice(n)
	if err != nil {
		return err
	}
	req := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{r.to},
		Subject: fmt.Sprintf("New comment on %s from %s", n.PostSlug, n.Name),
		Html:    body,
		ReplyTo: n.Email,
	}
	_, err = r.client.Emails.SendWithContext(ctx, req)
	metrics.Upstream("resend", err)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

var commentTmpl = template.Must(template.New("comment").Parse(`<h2>New comment awaiting moderation</h2>
<p><strong>Post:</strong> {{.PostSlug}}</p>
<p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
<p><strong>Received:</strong> {{.CreatedAt.Format "2006-01-02 15:04 MST"}}</p>
<blockquote>{{.Message}}</blockquote>
<p>Comment id: {{.ID}}</p>
`))

// RenderCommentNotice renders the HTML body. User input is escaped.
func RenderCommentNotice(n CommentNotice) (string, error) {
	var buf bytes.Buffer
	if err := commentTmpl.Execute(&buf, n); err != nil {
		return "", fmt.Errorf("render comment notice: %w", err)
	}
	return buf.String(), nil
}
