package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"opensoak/internal/models"
	"opensoak/internal/service"
)

type soakRequest struct {
	TargetF         float64 `json:"target_f" binding:"required"`
	DurationMinutes int     `json:"duration_minutes" binding:"required"`
}

// @Summary      Set component toggles
// @Description  Only the named toggles change. The engine applies them on its next tick, subject to safety interlocks.
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        body  body      models.TogglePatch  true  "Toggles to change"
// @Success      200   {object}  models.DesiredState
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/control [post]
// @Security     BearerAuth
func (h *Handler) updateControl(c *gin.Context) {
	var patch models.TogglePatch
	if ok := h.bindJSONOrBadRequest(c, &patch); !ok {
		return
	}
	st, err := h.services.Control.UpdateToggles(c.Request.Context(), patch)
	if err != nil {
		h.respondError(c, "control_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Start a manual soak
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        body  body      soakRequest  true  "Target (F, max 108) and duration (1..240 minutes)"
// @Success      200   {object}  models.DesiredState
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/control/soak [post]
// @Security     BearerAuth
func (h *Handler) startSoak(c *gin.Context) {
	var req soakRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	st, err := h.services.Control.StartSoak(c.Request.Context(), service.SoakParams{
		TargetF:  req.TargetF,
		Duration: time.Duration(req.DurationMinutes) * time.Minute,
	})
	if err != nil {
		h.respondError(c, "soak_start_failed", err, "target_f", req.TargetF, "minutes", req.DurationMinutes)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Cancel the manual soak
// @Tags         control
// @Produce      json
// @Success      200  {object}  models.DesiredState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/control/soak [delete]
// @Security     BearerAuth
func (h *Handler) cancelSoak(c *gin.Context) {
	st, err := h.services.Control.CancelSoak(c.Request.Context())
	if err != nil {
		h.respondError(c, "soak_cancel_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}
