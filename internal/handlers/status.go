package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// health is unauthenticated so supervisors can probe liveness.
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary      Current spa status
// @Description  Engine snapshot (temperatures, relays, fault, heater status) plus the desired state.
// @Tags         status
// @Produce      json
// @Success      200  {object}  service.Status
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	st, err := h.services.Monitoring.GetStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, "status_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Logged water temperatures
// @Tags         status
// @Produce      json
// @Param        limit  query     int  false  "Max samples (default 100, max 1000)"
// @Success      200    {object}  map[string]interface{}  "count, samples"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/status/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	samples, err := h.services.Monitoring.History(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "history_get_failed", err, "limit", limit)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(samples),
		"samples": samples,
	})
}
