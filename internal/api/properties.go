package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robnorris1/property-management-system-sub000/internal/service"
)

func (h *Handler) ListProperties(c *gin.Context) {
	properties, err := h.svc.ListProperties(c.Request.Context(), ownerID(c))
	if err != nil {
		h.respondError(c, err, "get properties")
		return
	}
	c.JSON(http.StatusOK, properties)
}

func (h *Handler) GetProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	property, err := h.svc.GetProperty(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get property")
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *Handler) CreateProperty(c *gin.Context) {
	var in service.PropertyInput
	if !h.bindJSON(c, &in) {
		return
	}
	property, err := h.svc.CreateProperty(c.Request.Context(), ownerID(c), in)
	if err != nil {
		h.respondError(c, err, "create property")
		return
	}
	c.JSON(http.StatusCreated, property)
}

func (h *Handler) UpdateProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch service.PropertyPatch
	if !h.bindJSON(c, &patch) {
		return
	}
	property, err := h.svc.UpdateProperty(c.Request.Context(), ownerID(c), id, patch)
	if err != nil {
		h.respondError(c, err, "update property")
		return
	}
	c.JSON(http.StatusOK, property)
}

func (h *Handler) DeleteProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProperty(c.Request.Context(), ownerID(c), id); err != nil {
		h.respondError(c, err, "delete property")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Property deleted"})
}

func (h *Handler) ListAppliances(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	appliances, err := h.svc.ListAppliances(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get appliances")
		return
	}
	c.JSON(http.StatusOK, appliances)
}

func (h *Handler) ListRentPayments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	payments, err := h.svc.ListRentPayments(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get rent payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) PropertyMap(c *gin.Context) {
	fc, err := h.svc.PropertyMap(c.Request.Context(), ownerID(c))
	if err != nil {
		h.respondError(c, err, "build property map")
		return
	}
	c.JSON(http.StatusOK, fc)
}
