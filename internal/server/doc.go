// Package server is the websocket front of the room relay.
//
// It upgrades HTTP requests on the root channel (/ws) and on room
// sub-channels (/ws/rooms/{room}), runs one read and one write pump per
// connection, and funnels every connection event through a single Hub
// goroutine that drives the chat package. Configuration, origin checks and
// per-connection rate limiting live here as well.
package server
