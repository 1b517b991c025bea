// Package apperr defines the error taxonomy shared by the gateways and the
// admin handlers, and maps each kind to an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ValidationError reports malformed or missing request fields. Err, when
// set, is the domain error behind the rejection.
type ValidationError struct {
	Fields  []string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "missing or invalid fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for the given fields.
func Invalid(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// ConfigurationError reports a required secret or setting that is absent
// from the deployment.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Key)
}

// UpstreamError carries a non-2xx response from an external provider.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d", e.Provider, e.Status)
}

// FromResponse reads resp.Body into an UpstreamError. Returns nil for 2xx.
func FromResponse(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &UpstreamError{Provider: provider, Status: resp.StatusCode, Body: fmt.Sprintf("read body: %v", err)}
	}
	return &UpstreamError{Provider: provider, Status: resp.StatusCode, Body: string(b)}
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// ConflictError reports an optimistic-concurrency failure: the caller's
// sha is stale. Callers re-read and retry.
type ConflictError struct {
	Path       string
	CurrentSHA string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s was modified concurrently; re-read and retry", e.Path)
}

// IsNotFound reports whether err (or anything it wraps) is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StatusCode maps err to the HTTP status the handlers respond with.
func StatusCode(err error) int {
	var (
		ve *ValidationError
		ce *ConfigurationError
		nf *NotFoundError
		cf *ConflictError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &cf):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
