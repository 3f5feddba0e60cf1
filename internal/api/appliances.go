package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robnorris1/property-management-system-sub000/internal/service"
)

func (h *Handler) GetAppliance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	appliance, err := h.svc.GetAppliance(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get appliance")
		return
	}
	c.JSON(http.StatusOK, appliance)
}

func (h *Handler) CreateAppliance(c *gin.Context) {
	var in service.ApplianceInput
	if !h.bindJSON(c, &in) {
		return
	}
	appliance, err := h.svc.CreateAppliance(c.Request.Context(), ownerID(c), in)
	if err != nil {
		h.respondError(c, err, "create appliance")
		return
	}
	c.JSON(http.StatusCreated, appliance)
}

func (h *Handler) UpdateAppliance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch service.AppliancePatch
	if !h.bindJSON(c, &patch) {
		return
	}
	appliance, err := h.svc.UpdateAppliance(c.Request.Context(), ownerID(c), id, patch)
	if err != nil {
		h.respondError(c, err, "update appliance")
		return
	}
	c.JSON(http.StatusOK, appliance)
}

func (h *Handler) DeleteAppliance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAppliance(c.Request.Context(), ownerID(c), id); err != nil {
		h.respondError(c, err, "delete appliance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appliance deleted"})
}

func (h *Handler) ListMaintenance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	records, err := h.svc.ListMaintenance(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get maintenance records")
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) ListIssues(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	issues, err := h.svc.ListIssues(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get issues")
		return
	}
	c.JSON(http.StatusOK, issues)
}
