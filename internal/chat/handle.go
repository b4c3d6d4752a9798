//go:generate go run go.uber.org/mock/mockgen -source=handle.go -destination=../mocks/mock_handle.go -package=mocks
package chat

// ConnectionID identifies one live transport session. The transport
// guarantees uniqueness for the lifetime of the session.
type ConnectionID string

// Handle is the sending side of a connection.
// Send is called from the dispatch goroutine and must not block.
type Handle interface {
	Send(evt Event)
}
