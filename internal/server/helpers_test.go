package server

import (
	"log/slog"
	"net/http"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func requestWithOrigin(origin string) *http.Request {
	r, _ := http.NewRequest(http.MethodGet, "/ws", http.NoBody)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}
