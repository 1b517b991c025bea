package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blogdesk/blogdesk/internal/analytics"
	"github.com/blogdesk/blogdesk/internal/comments"
	"github.com/blogdesk/blogdesk/internal/media"
)

// submitCommentRequest fields are checked by the comments service so the
// honeypot is looked at before anything else.
type submitCommentRequest struct {
	PostSlug string `json:"postSlug"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	Website  string `json:"website"`
}

type submitCommentResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type listCommentsQuery struct {
	PostSlug string `form:"postSlug"`
	Status   string `form:"status"`
}

type moderateCommentRequest struct {
	ID     string `json:"id" binding:"required"`
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

type deleteCommentRequest struct {
	ID string `json:"id" form:"id" binding:"required"`
}

type trackRequest struct {
	Path      string    `json:"path" binding:"required"`
	Referrer  string    `json:"referrer"`
	SessionID string    `json:"sessionId"`
	UserAgent string    `json:"userAgent"`
	Country   string    `json:"country"`
	City      string    `json:"city"`
	Timestamp time.Time `json:"timestamp"`
}

type analyticsQuery struct {
	Top int `form:"top"`
}

type listMediaQuery struct {
	Folder     string `form:"folder"`
	Type       string `form:"type"`
	MaxResults int    `form:"max_results"`
	NextCursor string `form:"next_cursor"`
}

type listFoldersQuery struct {
	Folder string `form:"folder"`
}

func (h *Handler) submitComment(c *gin.Context) {
	var req submitCommentRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	cm, err := h.comments.Submit(c.Request.Context(), comments.SubmitRequest{
		PostSlug: req.PostSlug,
		Name:     req.Name,
		Email:    req.Email,
		Message:  req.Message,
		Website:  req.Website,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, submitCommentResponse{ID: cm.ID, Status: cm.Status, Message: "Comment submitted for moderation"})
}

func (h *Handler) listComments(c *gin.Context) {
	var q listCommentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindErr(err))
		return
	}
	list, err := h.comments.List(c.Request.Context(), comments.Filter{PostSlug: q.PostSlug, Status: q.Status})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) moderateComment(c *gin.Context) {
	var req moderateCommentRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	cm, err := h.comments.Moderate(c.Request.Context(), req.ID, req.Action)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *Handler) deleteComment(c *gin.Context) {
	var req deleteCommentRequest
	if err := bind(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.comments.Delete(c.Request.Context(), req.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "id": req.ID})
}

// track records one page view. Missing user agent and country fall back to
// the request headers.
func (h *Handler) track(c *gin.Context) {
	var req trackRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	if req.UserAgent == "" {
		req.UserAgent = c.GetHeader("User-Agent")
	}
	if req.Country == "" {
		req.Country = c.GetHeader("CF-IPCountry")
	}
	recorded, err := h.analytics.RecordPageView(c.Request.Context(), analytics.PageView{
		Path:      req.Path,
		Referrer:  req.Referrer,
		SessionID: req.SessionID,
		UserAgent: req.UserAgent,
		Country:   req.Country,
		City:      req.City,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": recorded})
}

func (h *Handler) getAnalytics(c *gin.Context) {
	var q analyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindErr(err))
		return
	}
	if q.Top <= 0 {
		q.Top = 10
	}
	snap, err := h.analytics.Snapshot(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": analytics.Summarize(snap, q.Top), "data": snap})
}

func (h *Handler) purgeAnalytics(c *gin.Context) {
	if err := h.analytics.Purge(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": true})
}

func (h *Handler) listMedia(c *gin.Context) {
	var q listMediaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindErr(err))
		return
	}
	page, err := h.media.ListResources(c.Request.Context(), media.ListOptions{
		Folder:     q.Folder,
		Type:       q.Type,
		MaxResults: q.MaxResults,
		NextCursor: q.NextCursor,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) listFolders(c *gin.Context) {
	var q listFoldersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindErr(err))
		return
	}
	folders, err := h.media.ListFolders(c.Request.Context(), q.Folder)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}
