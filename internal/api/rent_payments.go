package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robnorris1/property-management-system-sub000/internal/service"
)

func (h *Handler) GetRentPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	payment, err := h.svc.GetRentPayment(c.Request.Context(), ownerID(c), id)
	if err != nil {
		h.respondError(c, err, "get rent payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) CreateRentPayment(c *gin.Context) {
	var in service.RentPaymentInput
	if !h.bindJSON(c, &in) {
		return
	}
	payment, err := h.svc.CreateRentPayment(c.Request.Context(), ownerID(c), in)
	if err != nil {
		h.respondError(c, err, "create rent payment")
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) UpdateRentPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch service.RentPaymentPatch
	if !h.bindJSON(c, &patch) {
		return
	}
	payment, err := h.svc.UpdateRentPayment(c.Request.Context(), ownerID(c), id, patch)
	if err != nil {
		h.respondError(c, err, "update rent payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handler) DeleteRentPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteRentPayment(c.Request.Context(), ownerID(c), id); err != nil {
		h.respondError(c, err, "delete rent payment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rent payment deleted"})
}
