// Package server wires HTTP handlers into a router for the relay via
// routing helpers.
package server

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// SetupRoutes returns the relay's HTTP handler: the health check, the root
// websocket channel, the room sub-channels and the browser test page.
func SetupRoutes(h *Hub) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", HealthHandler)
	r.HandleFunc("/test", TestPageHandler)
	r.HandleFunc("/ws", h.ServeWS)
	r.HandleFunc("/ws/rooms/{room}", h.ServeRoomWS)
	return withMiddleware(h.log, r)
}

// withMiddleware adds panic recovery and request logging around next.
func withMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	logged := handlers.CustomLoggingHandler(io.Discard, next, accessLog(log))
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log: log}))(logged)
}

func accessLog(log *slog.Logger) handlers.LogFormatter {
	return func(_ io.Writer, p handlers.LogFormatterParams) {
		log.Debug("HTTP request",
			"method", p.Request.Method,
			"path", p.URL.Path,
			"status", p.StatusCode,
			"size", p.Size,
			"duration", time.Since(p.TimeStamp))
	}
}

type recoveryLogger struct {
	log *slog.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.log.Error("Recovered from handler panic", "error", fmt.Sprint(v...))
}
