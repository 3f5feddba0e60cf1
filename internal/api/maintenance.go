package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/robnorris1/property-management-system-sub000/internal/service"
	"github.com/robnorris1/property-management-system-sub000/internal/state"
)

const defaultUpcomingDays = 30

func (h *Handler) GetMaintenance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	record, err := h.svc.GetMaintenance(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get maintenance record")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) UpcomingMaintenance(c *gin.Context) {
	days := defaultUpcomingDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
			return
		}
		days = parsed
	}

	records, err := h.svc.UpcomingMaintenance(c.Request.Context(), ownerID(c), days)
	if err != nil {
		h.respondError(c, err, "get upcoming maintenance")
		return
	}
	c.JSON(http.StatusOK, records)
}

// CreateMaintenance returns the record together with the refreshed appliance
// and the number of issues it resolved.
func (h *Handler) CreateMaintenance(c *gin.Context) {
	var in service.MaintenanceInput
	if !h.bindJSON(c, &in) {
		return
	}
	result, err := h.svc.CreateMaintenance(c.Request.Context(), ownerID(c), in)
	if err != nil {
		h.respondError(c, err, "create maintenance record")
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) UpdateMaintenance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch state.MaintenancePatch
	if !h.bindJSON(c, &patch) {
		return
	}
	record, err := h.svc.UpdateMaintenance(c.Request.Context(), ownerID(c), id, patch)
	if err != nil {
		h.respondError(c, err, "update maintenance record")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) DeleteMaintenance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteMaintenance(c.Request.Context(), ownerID(c), id); err != nil {
		h.respondError(c, err, "delete maintenance record")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance record deleted"})
}
