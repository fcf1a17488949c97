package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Heating and cooling events
// @Tags         telemetry
// @Produce      json
// @Param        type   query     string  false  "Event type"  Enums(heat,cool)
// @Param        limit  query     int     false  "Max events (default 100, max 1000)"
// @Success      200    {object}  map[string]interface{}  "count, events"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/thermal [get]
// @Security     BearerAuth
func (h *Handler) getThermal(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	events, err := h.services.Telemetry.ThermalEvents(c.Request.Context(), c.Query("type"), limit)
	if err != nil {
		h.respondError(c, "thermal_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Energy usage report
// @Description  Per-component kWh and cost over the range. Unflushed runtime is included when the range reaches the present.
// @Tags         telemetry
// @Produce      json
// @Param        from  query     string  false  "Start of range (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD')"
// @Param        to    query     string  false  "End of range. Date-only treated as end of day."
// @Success      200   {object}  service.EnergyReport
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/energy [get]
// @Security     BearerAuth
func (h *Handler) getEnergy(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	rep, err := h.services.Telemetry.Energy(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, "energy_report_failed", err, "from", from, "to", to)
		return
	}
	c.JSON(http.StatusOK, rep)
}
