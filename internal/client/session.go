// Package client is a terminal client for the relay: a websocket session that
// speaks the JSON envelope protocol and a printer that renders what arrives.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomrelay/internal/chat"
)

// Incoming is one server event with its payload left raw.
type Incoming struct {
	Event chat.EventName  `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Text decodes a string payload.
func (in Incoming) Text() string {
	var s string
	_ = json.Unmarshal(in.Data, &s)
	return s
}

// Session is one websocket connection to the root channel or a room's
// sub-channel. Writes are safe for concurrent use; Next must be called from
// a single goroutine.
type Session struct {
	conn *websocket.Conn
	room string
	mu   sync.Mutex
}

// Endpoint builds the websocket URL for room on the relay at base. An empty
// room selects the root channel.
func Endpoint(base, room string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid relay url %q: %w", base, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid relay url %q: unsupported scheme %q", base, u.Scheme)
	}

	if room == "" {
		return u.JoinPath("ws").String(), nil
	}
	return u.JoinPath("ws", "rooms", url.PathEscape(room)).String(), nil
}

// Dial opens a session on room, or on the root channel when room is empty.
func Dial(ctx context.Context, base, room string) (*Session, error) {
	endpoint, err := Endpoint(base, room)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return &Session{conn: conn, room: room}, nil
}

// Room returns the room the session is attached to, or "" for root.
func (s *Session) Room() string {
	return s.room
}

// Send writes one envelope.
func (s *Session) Send(event chat.EventName, data any) error {
	payload, err := json.Marshal(chat.Event{Name: event, Data: data})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("sending %s: %w", event, err)
	}
	return nil
}

func (s *Session) SetUsername(name string) error {
	return s.Send(chat.EventSetUsername, name)
}

func (s *Session) Chat(content string) error {
	return s.Send(chat.EventChatMessage, content)
}

// CreateRoom asks for a new room. An empty name lets the relay pick one.
func (s *Session) CreateRoom(name string, private bool) error {
	return s.Send(chat.EventCreateRoom, chat.CreateRoom{Name: name, IsPrivate: private})
}

func (s *Session) ListRooms() error {
	return s.Send(chat.EventListRooms, nil)
}

// Next blocks until the next event arrives or the connection fails.
func (s *Session) Next() (Incoming, error) {
	var in Incoming
	_, raw, err := s.conn.ReadMessage()
	if err != nil {
		return in, err
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("decoding frame: %w", err)
	}
	return in, nil
}

// Close sends a close frame and releases the connection.
func (s *Session) Close() error {
	s.mu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.mu.Unlock()
	return s.conn.Close()
}
