// Package media lists images and folders held in Cloudinary through the
// Admin API of cloudinary-go.
package media

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/blogdesk/blogdesk/pkg/metrics"
)

const (
	defaultMaxResults = 50
	maxMaxResults     = 500
)

// Resource is one stored asset.
type Resource struct {
	PublicID     string    `json:"publicId"`
	Format       string    `json:"format"`
	ResourceType string    `json:"resourceType"`
	Type         string    `json:"type"`
	Folder       string    `json:"folder,omitempty"`
	Bytes        int64     `json:"bytes"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	URL          string    `json:"url"`
	SecureURL    string    `json:"secureUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ResourcePage is one page of ListResources.
type ResourcePage struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// Folder is a Cloudinary folder.
type Folder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListOptions narrows ListResources.
type ListOptions struct {
	Folder     string
	Type       string // resource type: image, video, raw
	MaxResults int
	NextCursor string
}

// Lister is the media surface the handlers use.
type Lister interface {
	ListResources(ctx context.Context, opts ListOptions) (*ResourcePage, error)
	ListFolders(ctx context.Context, parent string) ([]Folder, error)
}

// Unconfigured answers every call with Err, typically a ConfigurationError.
type Unconfigured struct{ Err error }

func (u Unconfigured) ListResources(context.Context, ListOptions) (*ResourcePage, error) {
	return nil, u.Err
}

func (u Unconfigured) ListFolders(context.Context, string) ([]Folder, error) { return nil, u.Err }

// Client wraps the cloudinary-go Admin API.
type Client struct {
	admin *admin.API
}

// New returns a client, or a ConfigurationError naming the first missing
// credential.
func New(cfg config.CloudinaryConfig, httpClient *http.Client) (*Client, error) {
	switch {
	case cfg.CloudName == "":
		return nil, &apperr.ConfigurationError{Key: "CLOUDINARY_CLOUD_NAME"}
	case cfg.APIKey == "":
		return nil, &apperr.ConfigurationError{Key: "CLOUDINARY_API_KEY"}
	case cfg.APISecret == "":
		return nil, &apperr.ConfigurationError{Key: "CLOUDINARY_API_SECRET"}
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	if base := strings.TrimRight(cfg.APIURL, "/"); base != "" {
		cld.Admin.Config.API.UploadPrefix = base
	}
	hc := http.Client{Timeout: 15 * time.Second}
	if httpClient != nil {
		hc = *httpClient
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = statusTransport{next: next}
	cld.Admin.Client = hc
	return &Client{admin: &cld.Admin}, nil
}

type statusKey struct{}

// statusTransport records the response status into the *int carried by the
// request context. The SDK reports API errors as a message only.
type statusTransport struct {
	next http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if rec, ok := req.Context().Value(statusKey{}).(*int); ok && resp != nil {
		*rec = resp.StatusCode
	}
	return resp, err
}

// call runs fn with a context that captures the HTTP status and maps the
// outcome onto the apperr taxonomy. apiErr is the message the SDK decoded
// from the response body.
func call(ctx context.Context, resource string, fn func(ctx context.Context) (apiErr string, err error)) error {
	status := 0
	apiErr, err := fn(context.WithValue(ctx, statusKey{}, &status))
	if apiErr == "" && err != nil {
		apiErr = err.Error()
	}
	var out error
	switch {
	case status == http.StatusNotFound:
		metrics.Upstream("cloudinary", nil)
		return &apperr.NotFoundError{Resource: resource}
	case status >= 300:
		out = &apperr.UpstreamError{Provider: "cloudinary", Status: status, Body: apiErr}
	case err != nil:
		out = fmt.Errorf("cloudinary request: %w", err)
	case apiErr != "":
		out = &apperr.UpstreamError{Provider: "cloudinary", Status: http.StatusBadGateway, Body: apiErr}
	}
	metrics.Upstream("cloudinary", out)
	return out
}

// ListResources lists uploaded assets, optionally within a folder.
func (c *Client) ListResources(ctx context.Context, opts ListOptions) (*ResourcePage, error) {
	rt := opts.Type
	if rt == "" {
		rt = "image"
	}
	switch rt {
	case "image", "video", "raw":
	default:
		return nil, &apperr.ValidationError{Fields: []string{"type"}, Message: "type must be image, video or raw"}
	}
	n := opts.MaxResults
	if n <= 0 {
		n = defaultMaxResults
	}
	if n > maxMaxResults {
		n = maxMaxResults
	}
	params := admin.AssetsParams{
		AssetType:    api.AssetType(rt),
		DeliveryType: "upload",
		MaxResults:   n,
		NextCursor:   opts.NextCursor,
	}
	if f := strings.Trim(opts.Folder, "/"); f != "" {
		params.Prefix = f + "/"
	}

	var res *admin.AssetsResult
	err := call(ctx, "resources/"+rt, func(ctx context.Context) (string, error) {
		var err error
		res, err = c.admin.Assets(ctx, params)
		if res == nil {
			return "", err
		}
		return res.Error.Message, err
	})
	if err != nil {
		return nil, err
	}
	page := &ResourcePage{Resources: make([]Resource, 0, len(res.Assets)), NextCursor: res.NextCursor}
	for _, a := range res.Assets {
		page.Resources = append(page.Resources, Resource{
			PublicID:     a.PublicID,
			Format:       a.Format,
			ResourceType: a.AssetType,
			Type:         a.Type,
			Folder:       a.AssetFolder,
			Bytes:        int64(a.Bytes),
			Width:        a.Width,
			Height:       a.Height,
			URL:          a.URL,
			SecureURL:    a.SecureURL,
			CreatedAt:    a.CreatedAt,
		})
	}
	return page, nil
}

// ListFolders lists root folders, or the sub folders of parent.
func (c *Client) ListFolders(ctx context.Context, parent string) ([]Folder, error) {
	parent = strings.Trim(parent, "/")
	resource := "folders"
	if parent != "" {
		resource += "/" + parent
	}
	var res *admin.FoldersResult
	err := call(ctx, resource, func(ctx context.Context) (string, error) {
		var err error
		if parent == "" {
			res, err = c.admin.RootFolders(ctx, admin.RootFoldersParams{})
		} else {
			res, err = c.admin.SubFolders(ctx, admin.SubFoldersParams{Folder: parent})
		}
		if res == nil {
			return "", err
		}
		return res.Error.Message, err
	})
	if err != nil {
		return nil, err
	}
	out := make([]Folder, 0, len(res.Folders))
	for _, f := range res.Folders {
		out = append(out, Folder{Name: f.Name, Path: f.Path})
	}
	return out, nil
}
