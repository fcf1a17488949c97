package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type shutdownRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Reset the safety fault
// @Description  Clears the fault unless the hi-limit is still at or above 110 F.
// @Tags         safety
// @Produce      json
// @Success      200  {object}  engine.FaultState
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/safety/reset [post]
// @Security     BearerAuth
func (h *Handler) resetSafety(c *gin.Context) {
	fs, err := h.services.Safety.Reset(c.Request.Context())
	if err != nil {
		h.respondError(c, "safety_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, fs)
}

// @Summary      Master shutdown
// @Description  Latches a safety lock and turns every relay off on the next tick.
// @Tags         safety
// @Accept       json
// @Produce      json
// @Param        body  body      shutdownRequest  false  "Optional reason"
// @Success      200   {object}  engine.FaultState
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/safety/shutdown [post]
// @Security     BearerAuth
func (h *Handler) masterShutdown(c *gin.Context) {
	var req shutdownRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fs, err := h.services.Safety.MasterShutdown(c.Request.Context(), req.Reason)
	if err != nil {
		h.respondError(c, "master_shutdown_failed", err)
		return
	}
	c.JSON(http.StatusOK, fs)
}
