// Package comments stores reader comments in the blob store, one JSON
// document per comment, and handles moderation.
package comments

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/blob"
	"github.com/blogdesk/blogdesk/internal/email"
	"github.com/blogdesk/blogdesk/pkg/logger"
	"github.com/blogdesk/blogdesk/pkg/metrics"
)

// MaxMessageLength is the longest accepted comment body, in characters.
const MaxMessageLength = 5000

// Status values.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Comment is one stored comment. Moderation is the only mutation.
type Comment struct {
	ID          string     `json:"id"`
	PostSlug    string     `json:"postSlug"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Message     string     `json:"message"`
	CreatedAt   time.Time  `json:"createdAt"`
	Approved    bool       `json:"approved"`
	Status      string     `json:"status"`
	ModeratedAt *time.Time `json:"moderatedAt,omitempty"`
}

// SubmitRequest is a public comment submission. Website is a honeypot field
// hidden from humans.
type SubmitRequest struct {
	PostSlug string
	Name     string
	Email    string
	Message  string
	Website  string
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	PostSlug string
	Status   string
}

// Store is the subset of the blob gateway comments use.
type Store interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]blob.Entry, error)
}

type Service struct {
	store    Store
	notifier email.Notifier
	now      func() time.Time
	newID    func() string
}

func NewService(store Store, notifier email.Notifier) *Service {
	if notifier == nil {
		notifier = email.Disabled{}
	}
	return &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

var fieldCheck = validator.New()

func validate(req SubmitRequest) error {
	var fields []string
	if strings.TrimSpace(req.PostSlug) == "" {
		fields = append(fields, "postSlug")
	}
	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, "name")
	}
	if err := fieldCheck.Var(strings.TrimSpace(req.Email), "required,email"); err != nil {
		fields = append(fields, "email")
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" || utf8.RuneCountInString(msg) > MaxMessageLength {
		fields = append(fields, "message")
	}
	if len(fields) > 0 {
		return apperr.Invalid(fields...)
	}
	return nil
}

// Submit validates and stores a pending comment, then notifies the admin.
// A filled honeypot returns a plausible id without storing or notifying.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Comment, error) {
	if strings.TrimSpace(req.Website) != "" {
		metrics.CommentsSubmitted.WithLabelValues("spam").Inc()
		logger.Infow("comment honeypot triggered", "post", req.PostSlug)
		return &Comment{ID: s.newID(), PostSlug: req.PostSlug, Status: StatusPending, CreatedAt: s.now().UTC()}, nil
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:        s.newID(),
		PostSlug:  strings.TrimSpace(req.PostSlug),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Message:   strings.TrimSpace(req.Message),
		CreatedAt: s.now().UTC(),
		Status:    StatusPending,
	}
	if err := s.store.SetJSON(ctx, c.ID, c); err != nil {
		return nil, fmt.Errorf("store comment: %w", err)
	}
	metrics.CommentsSubmitted.WithLabelValues("stored").Inc()

	notice := email.CommentNotice{ID: c.ID, PostSlug: c.PostSlug, Name: c.Name, Email: c.Email, Message: c.Message, CreatedAt: c.CreatedAt}
	if err := s.notifier.NotifyNewComment(ctx, notice); err != nil {
		logger.Warnf("comment %s: admin notification failed: %v", c.ID, err)
	}
	return c, nil
}

// Get loads one comment.
func (s *Service) Get(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	found, err := s.store.GetJSON(ctx, id, &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &apperr.NotFoundError{Resource: "comment " + id}
	}
	if c.Status == "" {
		c.Status = statusOf(c.Approved)
	}
	return &c, nil
}

func statusOf(approved bool) string {
	if approved {
		return StatusApproved
	}
	return StatusPending
}

// List returns matching comments, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Comment, error) {
	if f.Status != "" && f.Status != StatusPending && f.Status != StatusApproved && f.Status != StatusRejected {
		return nil, &apperr.ValidationError{Fields: []string{"status"}, Message: "status must be pending, approved or rejected"}
	}
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(entries))
	for _, e := range entries {
		c, err := s.Get(ctx, e.Key)
		if err != nil {
			if apperr.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if f.PostSlug != "" && c.PostSlug != f.PostSlug {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Moderate approves or rejects a comment.
func (s *Service) Moderate(ctx context.Context, id, action string) (*Comment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Invalid("id")
	}
	var status string
	switch action {
	case "approve":
		status = StatusApproved
	case "reject":
		status = StatusRejected
	default:
		return nil, &apperr.ValidationError{Fields: []string{"action"}, Message: "action must be approve or reject"}
	}
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c.Status = status
	c.Approved = status == StatusApproved
	c.ModeratedAt = &now
	if err := s.store.SetJSON(ctx, c.ID, c); err != nil {
		return nil, fmt.Errorf("store comment: %w", err)
	}
	logger.Infow("comment moderated", "id", c.ID, "status", c.Status)
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Invalid("id")
	}
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return &apperr.NotFoundError{Resource: "comment " + id}
	}
	return nil
}
