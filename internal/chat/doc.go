// Package chat holds the session, identity and room state of the relay.
//
// Everything in this package is driven from a single goroutine (the server
// hub's event loop). Types here take no locks: one inbound event is handled
// to completion before the next one starts, so directories, room membership
// and history are never observed half-updated.
//
// Two kinds of scope exist side by side. The global scope covers every
// connection on the root channel and owns the global name directory. Each
// room owns a second, independent scope fed by connections attached to the
// room's sub-channel. A display name may be held once per scope.
package chat
