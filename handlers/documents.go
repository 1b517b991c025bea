package handlers

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/content"
	"github.com/blogdesk/blogdesk/internal/frontmatter"
)

type getDocumentQuery struct {
	Filename string `form:"filename"`
}

type createDocumentRequest struct {
	Filename    string                   `json:"filename"`
	Frontmatter *frontmatter.Frontmatter `json:"frontmatter" binding:"required"`
	Body        string                   `json:"body"`
}

type updateDocumentRequest struct {
	Filename    string                   `json:"filename" binding:"required"`
	Frontmatter *frontmatter.Frontmatter `json:"frontmatter" binding:"required"`
	Body        string                   `json:"body"`
	SHA         string                   `json:"sha" binding:"required"`
}

type deleteDocumentRequest struct {
	Filename string `json:"filename" form:"filename" binding:"required"`
	SHA      string `json:"sha" form:"sha"`
}

// registerDocuments mounts the CRUD surface of one collection (posts or
// pages) under prefix.
func (h *Handler) registerDocuments(r *gin.Engine, prefix string, col *content.Collection) {
	r.GET(prefix, func(c *gin.Context) {
		var q getDocumentQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			h.fail(c, bindErr(err))
			return
		}
		if q.Filename == "" {
			items, err := col.List(c.Request.Context())
			if err != nil {
				h.fail(c, err)
				return
			}
			c.JSON(http.StatusOK, items)
			return
		}
		e, err := col.Get(c.Request.Context(), q.Filename)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, e)
	})

	r.POST(prefix, func(c *gin.Context) {
		var req createDocumentRequest
		if err := bindJSON(c, &req); err != nil {
			h.fail(c, err)
			return
		}
		res, err := col.Create(c.Request.Context(), content.Draft{Filename: req.Filename, Frontmatter: req.Frontmatter, Body: req.Body})
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	})

	r.PUT(prefix, func(c *gin.Context) {
		var req updateDocumentRequest
		if err := bindJSON(c, &req); err != nil {
			h.fail(c, err)
			return
		}
		res, err := col.Update(c.Request.Context(), content.Draft{Filename: req.Filename, Frontmatter: req.Frontmatter, Body: req.Body}, req.SHA)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	})

	r.DELETE(prefix, func(c *gin.Context) {
		var req deleteDocumentRequest
		if err := bind(c, &req); err != nil {
			h.fail(c, err)
			return
		}
		res, err := col.Delete(c.Request.Context(), req.Filename, req.SHA)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"trashed": true, "trash": res})
	})
}

type moveToTrashRequest struct {
	Path string `json:"path" binding:"required"`
	SHA  string `json:"sha"`
}

type restoreRequest struct {
	Filename    string `json:"filename" binding:"required"`
	Destination string `json:"destination"`
}

type purgeRequest struct {
	Filename string `json:"filename" form:"filename" binding:"required"`
	SHA      string `json:"sha" form:"sha"`
}

func (h *Handler) listTrash(c *gin.Context) {
	items, err := h.content.Trash.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// moveToTrash goes through the owning collection so protected pages stay put.
func (h *Handler) moveToTrash(c *gin.Context) {
	var req moveToTrashRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	var col *content.Collection
	switch path.Dir(req.Path) {
	case content.PostsDir:
		col = h.content.Posts
	case content.PagesDir:
		col = h.content.Pages
	default:
		h.fail(c, &apperr.ValidationError{Fields: []string{"path"}, Message: "path must be inside _posts or _pages"})
		return
	}
	res, err := col.Delete(c.Request.Context(), path.Base(req.Path), req.SHA)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) restoreFromTrash(c *gin.Context) {
	var req restoreRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.content.Trash.Restore(c.Request.Context(), req.Filename, req.Destination)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) purgeFromTrash(c *gin.Context) {
	var req purgeRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.content.Trash.Purge(c.Request.Context(), req.Filename, req.SHA); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "filename": req.Filename})
}
