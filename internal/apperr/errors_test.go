package apperr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{Invalid("name", "email"), http.StatusBadRequest},
		{&ConfigurationError{Key: "GITHUB_TOKEN"}, http.StatusServiceUnavailable},
		{fmt.Errorf("load post: %w", &NotFoundError{Resource: "post"}), http.StatusNotFound},
		{&ConflictError{Path: "_posts/a.md", CurrentSHA: "abc"}, http.StatusConflict},
		{&UpstreamError{Provider: "github", Status: 502}, http.StatusInternalServerError},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StatusCode(c.err), "err=%v", c.err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := Invalid("name", "message")
	assert.Equal(t, "missing or invalid fields: name, message", err.Error())

	cause := errors.New("page is protected")
	wrapped := fmt.Errorf("delete: %w", &ValidationError{Fields: []string{"filename"}, Message: "about.md: page is protected", Err: cause})
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, http.StatusBadRequest, StatusCode(wrapped))
}

func TestFromResponse(t *testing.T) {
	ok := &http.Response{StatusCode: 201, Body: io.NopCloser(strings.NewReader(""))}
	require.NoError(t, FromResponse("github", ok))

	bad := &http.Response{StatusCode: 422, Body: io.NopCloser(strings.NewReader(`{"message":"sha wasn't supplied"}`))}
	err := FromResponse("github", bad)
	require.Error(t, err)
	ue, isUp := err.(*UpstreamError)
	require.True(t, isUp)
	assert.Equal(t, 422, ue.Status)
	assert.Contains(t, ue.Body, "sha wasn't supplied")
	assert.False(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", &NotFoundError{Resource: "x"})))
}
