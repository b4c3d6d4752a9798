// Package server defines shared message payload types and utility helpers that
// are reused across client and hub logic.
package server

import (
	"strings"

	"github.com/Tyrowin/roomrelay/internal/chat"
)

// inbound is a decoded frame on its way to the hub loop.
type inbound struct {
	client  *Client
	request chat.Request
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
