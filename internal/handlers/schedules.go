package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"opensoak/internal/models"
)

// @Summary      List schedules
// @Tags         schedules
// @Produce      json
// @Success      200  {array}   models.Schedule
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules [get]
// @Security     BearerAuth
func (h *Handler) listSchedules(c *gin.Context) {
	list, err := h.services.Schedules.List(c.Request.Context())
	if err != nil {
		h.respondError(c, "schedules_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Create a schedule
// @Description  start_time/end_time are HH:MM local time; days_of_week is a comma list with Monday=0.
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        body  body      models.Schedule  true  "Schedule"
// @Success      201   {object}  models.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/schedules [post]
// @Security     BearerAuth
func (h *Handler) createSchedule(c *gin.Context) {
	var sc models.Schedule
	if ok := h.bindJSONOrBadRequest(c, &sc); !ok {
		return
	}
	created, err := h.services.Schedules.Create(c.Request.Context(), sc)
	if err != nil {
		h.respondError(c, "schedule_create_failed", err, "name", sc.Name)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Delete a schedule
// @Tags         schedules
// @Param        id   path  int  true  "Schedule ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSchedule(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule id"})
		return
	}
	if err := h.services.Schedules.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, "schedule_delete_failed", err, "id", id)
		return
	}
	c.Status(http.StatusNoContent)
}
