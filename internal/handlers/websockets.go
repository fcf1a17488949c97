package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"opensoak/internal/logger"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
)

// wsEnvelope is the frame every stream message is wrapped in.
type wsEnvelope struct {
	Type  string `json:"type"` // "status" | "error"
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// The panel is served from other origins on the LAN.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// statusStream pushes the controller status to one websocket client.
type statusStream struct {
	conn     *websocket.Conn
	interval time.Duration
	fetch    func(ctx context.Context) (any, error)
	log      *logger.Logger
}

// wsConnect upgrades the request and streams status every ?interval
// (or ?interval_ms) until the client goes away.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	s := &statusStream{
		conn:     conn,
		interval: interval,
		log:      streamLogger(h.log, c.ClientIP()),
		fetch: func(ctx context.Context) (any, error) {
			return h.services.Monitoring.GetStatus(ctx)
		},
	}
	s.run(c.Request.Context())
}

func (s *statusStream) run(ctx context.Context) {
	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go s.drain(done)

	if err := s.push(ctx); err != nil {
		s.debug("ws_initial_push_failed", err)
		return
	}

	ticker := time.NewTicker(s.interval)
	ping := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.debug("ws_ping_failed", err)
				return
			}
		case <-ticker.C:
			if err := s.push(ctx); err != nil {
				s.debug("ws_push_failed", err)
				return
			}
		}
	}
}

// drain reads and discards client frames so control frames are processed
// and a disconnect closes done.
func (s *statusStream) drain(done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.debug("ws_read_closed", err)
			return
		}
	}
}

// push sends one status frame. A failed status lookup is reported to the
// client as an error frame and ends the stream.
func (s *statusStream) push(ctx context.Context) error {
	st, err := s.fetch(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("ws_get_status_failed", "err", err)
		}
		_ = s.writeJSON(wsEnvelope{Type: "error", Error: "status unavailable"})
		return err
	}
	return s.writeJSON(wsEnvelope{Type: "status", Data: st})
}

func (s *statusStream) writeJSON(v any) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *statusStream) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

func (s *statusStream) debug(event string, err error) {
	if s.log != nil {
		s.log.Debugw(event, "err", err)
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

func streamLogger(l *logger.Logger, remote string) *logger.Logger {
	if l == nil {
		return nil
	}
	return l.With("remote", remote)
}
