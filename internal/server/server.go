package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"opensoak/internal/logger"
)

// Server owns the API listener.
type Server struct {
	httpServer *http.Server
}

const (
	defaultPort       = "8080"
	maxHeaderBytes    = 1 << 20
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 10 * time.Second // websocket streams reset deadlines after the upgrade
	idleTimeout       = 60 * time.Second
)

// New builds a server for port ("8080", ":8080" or "host:8080"; empty means
// 8080). Nothing listens until Run. Connection-level errors from net/http go
// to log at warn level when log is non-nil.
func New(port string, handler http.Handler, log *logger.Logger) *Server {
	srv := &http.Server{
		Addr:              normalizeAddr(port),
		Handler:           handler,
		MaxHeaderBytes:    maxHeaderBytes,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	if log != nil {
		if std, err := zap.NewStdLogAt(log.Desugar(), zap.WarnLevel); err == nil {
			srv.ErrorLog = std
		}
	}
	return &Server{httpServer: srv}
}

func normalizeAddr(port string) string {
	port = strings.TrimSpace(port)
	switch {
	case port == "":
		return ":" + defaultPort
	case strings.Contains(port, ":"):
		return port
	default:
		return ":" + port
	}
}

func (s *Server) Addr() string { return s.httpServer.Addr }

// Run serves until Shutdown. A graceful shutdown is not an error.
func (s *Server) Run() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
