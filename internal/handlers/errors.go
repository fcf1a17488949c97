package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"opensoak/internal/repository"
	"opensoak/internal/service"
)

// respondError maps service errors to HTTP statuses. Validation errors carry
// their message to the client; anything unexpected is logged and hidden.
func (h *Handler) respondError(c *gin.Context, event string, err error, kv ...any) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		if h.log != nil {
			h.log.Errorw(event, append([]any{"err", err}, kv...)...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// queryInt reads an optional integer query parameter. It writes a 400 and
// returns false when the value is not a number.
func queryInt(c *gin.Context, name string) (int, bool) {
	s := c.Query(name)
	if s == "" {
		return 0, true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + name + "'; must be an integer"})
		return 0, false
	}
	return v, true
}
