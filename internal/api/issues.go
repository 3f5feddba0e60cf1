package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robnorris1/property-management-system-sub000/internal/service"
)

func (h *Handler) GetIssue(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	issue, err := h.svc.GetIssue(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get issue")
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *Handler) CreateIssue(c *gin.Context) {
	var in service.IssueInput
	if !h.bindJSON(c, &in) {
		return
	}
	issue, err := h.svc.CreateIssue(c.Request.Context(), ownerID(c), in)
	if err != nil {
		h.respondError(c, err, "create issue")
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *Handler) UpdateIssue(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch service.IssuePatch
	if !h.bindJSON(c, &patch) {
		return
	}
	issue, err := h.svc.UpdateIssue(c.Request.Context(), ownerID(c), id, patch)
	if err != nil {
		h.respondError(c, err, "update issue")
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *Handler) DeleteIssue(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteIssue(c.Request.Context(), ownerID(c), id); err != nil {
		h.respondError(c, err, "delete issue")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted"})
}
