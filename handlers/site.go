package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blogdesk/blogdesk/internal/content"
)

type updateSettingsRequest struct {
	Settings map[string]any `json:"settings" binding:"required"`
	SHA      string         `json:"sha"`
}

type getMenusQuery struct {
	Refresh bool `form:"refresh"`
}

type updateMenusRequest struct {
	Menus content.MenuSet `json:"menus" binding:"required"`
	SHA   string          `json:"sha"`
}

type deploymentStatusQuery struct {
	SHA string `form:"sha" binding:"required"`
}

type deploymentHistoryQuery struct {
	Limit int `form:"limit"`
}

func (h *Handler) getSettings(c *gin.Context) {
	s, err := h.content.Settings.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) updateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.content.Settings.Update(c.Request.Context(), req.Settings, req.SHA)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) getMenus(c *gin.Context) {
	var q getMenusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindErr(err))
		return
	}
	m, err := h.content.Menus.Get(c.Request.Context(), q.Refresh)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) updateMenus(c *gin.Context) {
	var req updateMenusRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.content.Menus.Update(c.Request.Context(), req.Menus, req.SHA)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) deploymentStatus(c *gin.Context) {
	var q deploymentStatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindErr(err))
		return
	}
	st, err := h.content.Deployments.Status(c.Request.Context(), q.SHA)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) deploymentHistory(c *gin.Context) {
	var q deploymentHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.fail(c, bindErr(err))
		return
	}
	runs, err := h.content.Deployments.History(c.Request.Context(), q.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}
