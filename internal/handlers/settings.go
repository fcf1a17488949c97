package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"opensoak/internal/models"
)

// @Summary      Get settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.Settings
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	s, err := h.services.Settings.Get(c.Request.Context())
	if err != nil {
		h.respondError(c, "settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Update settings
// @Description  Partial update. Set points are capped at 108 F and max_temp_limit must stay below 110 F.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      models.SettingsPatch  true  "Fields to change"
// @Success      200   {object}  models.Settings
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings [post]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if ok := h.bindJSONOrBadRequest(c, &patch); !ok {
		return
	}
	s, err := h.services.Settings.Update(c.Request.Context(), patch)
	if err != nil {
		h.respondError(c, "settings_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}
