package comments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/blob"
	"github.com/blogdesk/blogdesk/internal/email"
)

type recordingStore struct {
	*blob.Store
	sets int
}

func (r *recordingStore) SetJSON(ctx context.Context, key string, v any) error {
	r.sets++
	return r.Store.SetJSON(ctx, key, v)
}

type recordingNotifier struct {
	sent []email.CommentNotice
	err  error
}

func (r *recordingNotifier) NotifyNewComment(_ context.Context, n email.CommentNotice) error {
	r.sent = append(r.sent, n)
	return r.err
}

func newTestService() (*Service, *recordingStore, *recordingNotifier) {
	st := &recordingStore{Store: blob.NewStore(blob.StoreComments, blob.NewMemoryBackend())}
	n := &recordingNotifier{}
	svc := NewService(st, n)
	seq := 0
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.newID = func() string { seq++; return fmt.Sprintf("c%d", seq) }
	svc.now = func() time.Time { return base.Add(time.Duration(seq) * time.Minute) }
	return svc, st, n
}

func validRequest() SubmitRequest {
	return SubmitRequest{PostSlug: "hello", Name: "Ada", Email: "ada@example.com", Message: "Nice post"}
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	svc, st, n := newTestService()
	c, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, StatusPending, c.Status)
	assert.False(t, c.Approved)
	assert.Equal(t, 1, st.sets)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "hello", n.sent[0].PostSlug)

	got, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Nice post", got.Message)
}

func TestHoneypotDiscardsSilently(t *testing.T) {
	svc, st, n := newTestService()
	req := validRequest()
	req.Website = "http://spam.example"

	c, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 0, st.sets)
	assert.Empty(t, n.sent)

	list, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotificationFailureDoesNotFailSubmit(t *testing.T) {
	svc, st, n := newTestService()
	n.err = errors.New("resend: 500")
	c, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 1, st.sets)
}

func TestSubmitValidation(t *testing.T) {
	svc, st, _ := newTestService()
	long := make([]rune, MaxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	cases := []struct {
		name   string
		req    SubmitRequest
		fields []string
	}{
		{"empty", SubmitRequest{}, []string{"postSlug", "name", "email", "message"}},
		{"bad email", SubmitRequest{PostSlug: "p", Name: "n", Email: "not-an-email", Message: "m"}, []string{"email"}},
		{"display name email", SubmitRequest{PostSlug: "p", Name: "n", Email: "Ada <ada@example.com>", Message: "m"}, []string{"email"}},
		{"too long", SubmitRequest{PostSlug: "p", Name: "n", Email: "a@b.co", Message: string(long)}, []string{"message"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tc.req)
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.fields, ve.Fields)
		})
	}
	assert.Equal(t, 0, st.sets)
}

func TestListFiltersAndOrders(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	for _, slug := range []string{"a", "b", "a"} {
		req := validRequest()
		req.PostSlug = slug
		_, err := svc.Submit(ctx, req)
		require.NoError(t, err)
	}
	_, err := svc.Moderate(ctx, "c1", "approve")
	require.NoError(t, err)

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c3", "c2", "c1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	onA, err := svc.List(ctx, Filter{PostSlug: "a"})
	require.NoError(t, err)
	assert.Len(t, onA, 2)

	approved, err := svc.List(ctx, Filter{Status: StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "c1", approved[0].ID)
	assert.True(t, approved[0].Approved)
	assert.NotNil(t, approved[0].ModeratedAt)

	_, err = svc.List(ctx, Filter{Status: "bogus"})
	assert.Equal(t, 400, apperr.StatusCode(err))
}

func TestModerateAndDelete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	c, err := svc.Moderate(ctx, "c1", "reject")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, c.Status)

	_, err = svc.Moderate(ctx, "c1", "maybe")
	assert.Equal(t, 400, apperr.StatusCode(err))

	_, err = svc.Moderate(ctx, "missing", "approve")
	assert.True(t, apperr.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, "c1"))
	assert.True(t, apperr.IsNotFound(svc.Delete(ctx, "c1")))
}
