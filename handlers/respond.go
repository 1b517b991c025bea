package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/pkg/logger"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error      string        `json:"error"`
	Fields     []string      `json:"fields,omitempty"`
	CurrentSHA string        `json:"currentSha,omitempty"`
	Retryable  bool          `json:"retryable,omitempty"`
	Details    *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails is diagnostic information withheld in production.
type ErrorDetails struct {
	Cause          string `json:"cause"`
	Provider       string `json:"provider,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	UpstreamBody   string `json:"upstreamBody,omitempty"`
}

// fail converts err into a status and JSON body.
func (h *Handler) fail(c *gin.Context, err error) {
	status := apperr.StatusCode(err)
	body := ErrorResponse{Error: err.Error()}

	var (
		ve *apperr.ValidationError
		cf *apperr.ConflictError
		ue *apperr.UpstreamError
	)
	if errors.As(err, &ve) {
		body.Fields = ve.Fields
	}
	if errors.As(err, &cf) {
		body.CurrentSHA = cf.CurrentSHA
		body.Retryable = true
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		body.Error = "internal server error"
		if errors.As(err, &ue) {
			body.Error = ue.Provider + " request failed"
		}
		if !h.production {
			body.Details = &ErrorDetails{Cause: err.Error()}
			if ue != nil {
				body.Details.Provider = ue.Provider
				body.Details.UpstreamStatus = ue.Status
				body.Details.UpstreamBody = ue.Body
			}
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// bindErr turns a gin binding failure into a ValidationError naming the
// offending fields.
func bindErr(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, lowerFirst(fe.Field()))
		}
		return apperr.Invalid(fields...)
	}
	return &apperr.ValidationError{Fields: []string{"request"}, Message: "malformed request: " + err.Error()}
}

func lowerFirst(s string) string {
	switch {
	case s == "":
		return s
	case s == strings.ToUpper(s):
		return strings.ToLower(s)
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// bind decodes the JSON body, or the query string when there is no body.
// DELETE requests from the dashboard use either.
func bind(c *gin.Context, v any) error {
	var err error
	if c.Request.ContentLength > 0 {
		err = c.ShouldBindJSON(v)
	} else {
		err = c.ShouldBindQuery(v)
	}
	if err != nil {
		return bindErr(err)
	}
	return nil
}

func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return bindErr(err)
	}
	return nil
}
