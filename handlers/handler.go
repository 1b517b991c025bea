// Package handlers exposes the admin and public endpoints of the blog over
// gin. Every handler decodes its request into an explicit struct, calls one
// service and converts the outcome with fail/JSON.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogdesk/blogdesk/internal/analytics"
	"github.com/blogdesk/blogdesk/internal/comments"
	"github.com/blogdesk/blogdesk/internal/content"
	"github.com/blogdesk/blogdesk/internal/media"
)

// Deps are the services the handlers call.
type Deps struct {
	Content    *content.Service
	Comments   *comments.Service
	Analytics  *analytics.Aggregator
	Media      media.Lister
	Production bool
	// Ready reports whether the storage backend answers. Nil means always ready.
	Ready func(ctx context.Context) error
}

type Handler struct {
	content    *content.Service
	comments   *comments.Service
	analytics  *analytics.Aggregator
	media      media.Lister
	production bool
	ready      func(ctx context.Context) error
	started    time.Time
}

func New(d Deps) *Handler {
	return &Handler{
		content:    d.Content,
		comments:   d.Comments,
		analytics:  d.Analytics,
		media:      d.Media,
		production: d.Production,
		ready:      d.Ready,
		started:    time.Now(),
	}
}

// Register mounts every route on r. public wraps the endpoints anonymous
// visitors call (comment submission and page tracking), typically a rate
// limiter.
func (h *Handler) Register(r *gin.Engine, public ...gin.HandlerFunc) {
	r.GET("/health", h.health)
	r.GET("/ready", h.readiness)

	h.registerDocuments(r, "/posts", h.content.Posts)
	h.registerDocuments(r, "/pages", h.content.Pages)

	r.GET("/trash", h.listTrash)
	r.POST("/trash", h.moveToTrash)
	r.PUT("/trash", h.restoreFromTrash)
	r.DELETE("/trash", h.purgeFromTrash)

	r.GET("/settings", h.getSettings)
	r.PUT("/settings", h.updateSettings)
	r.GET("/menus", h.getMenus)
	r.PUT("/menus", h.updateMenus)

	r.GET("/deployment-status", h.deploymentStatus)
	r.GET("/deployment-history", h.deploymentHistory)

	r.GET("/media", h.listMedia)
	r.GET("/cloudinary-folders", h.listFolders)

	r.POST("/comments-submit", append(append([]gin.HandlerFunc{}, public...), h.submitComment)...)
	r.GET("/comments", h.listComments)
	r.PUT("/comments", h.moderateComment)
	r.DELETE("/comments", h.deleteComment)

	r.POST("/track", append(append([]gin.HandlerFunc{}, public...), h.track)...)
	r.GET("/analytics", h.getAnalytics)
	r.DELETE("/analytics", h.purgeAnalytics)

	RegisterSwagger(r)
}

func (h *Handler) uptime() string {
	return time.Since(h.started).Round(time.Second).String()
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "uptime": h.uptime()})
}

// readiness returns 200 only when the blob backend answers.
func (h *Handler) readiness(c *gin.Context) {
	deps := map[string]bool{"storage": true}
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps["storage"] = h.ready(ctx) == nil
	}
	if !deps["storage"] {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": h.uptime()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": h.uptime()})
}
