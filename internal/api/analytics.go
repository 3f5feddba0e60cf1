package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// queryYear reads ?year=, defaulting to the current year.
func queryYear(c *gin.Context) (int, bool) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year must be an integer", "field": "year"})
		return 0, false
	}
	return year, true
}

func (h *Handler) PropertyAnalytics(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}
	rows, err := h.svc.PropertyAnalytics(c.Request.Context(), ownerID(c), year)
	if err != nil {
		h.respondError(c, err, "compute property analytics")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) MonthlyAnalytics(c *gin.Context) {
	year, ok := queryYear(c)
	if !ok {
		return
	}

	var propertyID uint
	if raw := c.Query("property_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "property_id must be a positive integer", "field": "property_id"})
			return
		}
		propertyID = uint(id)
	}

	rows, err := h.svc.MonthlyAnalytics(c.Request.Context(), ownerID(c), year, propertyID)
	if err != nil {
		h.respondError(c, err, "compute monthly analytics")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) Dashboard(c *gin.Context) {
	summary, err := h.svc.Dashboard(c.Request.Context(), ownerID(c))
	if err != nil {
		h.respondError(c, err, "build dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}
