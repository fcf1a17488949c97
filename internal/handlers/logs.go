package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"opensoak/internal/service"
)

// queryLayouts are tried in order. A date-only "to" covers the whole day.
var queryLayouts = []struct {
	layout   string
	dateOnly bool
}{
	{time.RFC3339, false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02", true},
}

// @Summary      List usage events
// @Description  Newest first. 'from' and 'to' accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' includes that whole day (UTC).
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2026-08-01)
// @Param        to    query   string  false  "End of range, inclusive"  example(2026-08-31)
// @Param        type  query   string  false  "Event type, case-insensitive"  Enums(CONTROL,SETTINGS,SOAK_START,SOAK_EXPIRED,SOAK_CANCEL,SESSION_START,SESSION_END,FAULT,RESET,SHUTDOWN,ERROR)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
// @Security     BearerAuth
func (h *Handler) getLogs(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	filter := service.LogFilter{From: from, To: to, Type: c.Query("type")}

	events, err := h.services.EventLog.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, "logs_list_failed", err, "from", from, "to", to, "type", filter.Type)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(events), "events": events})
}

// parseRange reads the optional 'from' and 'to' query values. It writes a
// 400 and returns false when either is malformed or from > to.
func parseRange(c *gin.Context) (from, to time.Time, ok bool) {
	if from, ok = queryTime(c, "from", false); !ok {
		return time.Time{}, time.Time{}, false
	}
	if to, ok = queryTime(c, "to", true); !ok {
		return time.Time{}, time.Time{}, false
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must not be after 'to'"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// queryTime parses one range bound in UTC. A missing value is the zero time.
// With endOfDay set, a date-only value moves to the last instant of that day.
func queryTime(c *gin.Context, name string, endOfDay bool) (time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return time.Time{}, true
	}
	for _, l := range queryLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		if l.dateOnly && endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid '" + name + "' time; use RFC3339, 'YYYY-MM-DD HH:MM:SS' or YYYY-MM-DD"})
	return time.Time{}, false
}
