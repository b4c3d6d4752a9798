package chat

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// EventName is the identifier carried in the "event" field of every frame.
type EventName string

// Client to server.
const (
	EventSetUsername EventName = "set-username"
	EventChatMessage EventName = "chat-message"
	EventCreateRoom  EventName = "create-room"
	EventListRooms   EventName = "list-rooms"

	// Declared by clients but not handled.
	EventLeaveRoom         EventName = "leave-room"
	EventJoinRoom          EventName = "join-room"
	EventCreatePrivateRoom EventName = "create-private-room"
	EventInviteToJoinRoom  EventName = "invite-to-join-room"
	EventRequestToJoinRoom EventName = "request-to-join-room"
)

// Server to client.
const (
	EventRequestUsername EventName = "request-username"
	EventUsernameSuccess EventName = "username-success"
	EventUsernameError   EventName = "username-error"
	EventOnlineUsers     EventName = "online-users"
	EventChatCatchup     EventName = "chat-catchup"
	EventRoomCreated     EventName = "room-created"
	EventCreateRoomError EventName = "create-room-error"
	EventRooms           EventName = "rooms"
	EventError           EventName = "error"
)

// Event is one outbound frame.
type Event struct {
	Name EventName `json:"event"`
	Data any       `json:"data,omitempty"`
}

// Encode renders the event as a wire frame.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Request is one validated inbound frame. The concrete types below are the
// only implementations.
type Request interface {
	Event() EventName
}

// SetUsername asks to claim Name in the scope of the channel it arrived on.
type SetUsername struct {
	Name string
}

// ChatMessage carries a line of chat for the channel it arrived on.
type ChatMessage struct {
	Content string
}

// CreateRoom asks for a new room. An empty Name means "generate one".
type CreateRoom struct {
	Name      string `json:"name" validate:"omitempty,max=64,excludesall=/?#"`
	IsPrivate bool   `json:"isPrivate"`
}

// ListRooms asks for the rooms visible to the sender.
type ListRooms struct{}

// Reserved is an event name the protocol declares but the relay does not act on.
type Reserved struct {
	Name EventName
}

func (SetUsername) Event() EventName { return EventSetUsername }
func (ChatMessage) Event() EventName { return EventChatMessage }
func (CreateRoom) Event() EventName  { return EventCreateRoom }
func (ListRooms) Event() EventName   { return EventListRooms }
func (r Reserved) Event() EventName  { return r.Name }

type envelope struct {
	Event string          `json:"event" validate:"required,oneof=set-username chat-message create-room list-rooms leave-room join-room create-private-room invite-to-join-room request-to-join-room"`
	Data  json.RawMessage `json:"data"`
}

var validate = validator.New()

// Decode parses and validates one inbound frame.
func Decode(raw []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(env); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	switch name := EventName(env.Event); name {
	case EventSetUsername:
		var s string
		if err := decodeData(env.Data, &s); err != nil {
			return nil, err
		}
		return SetUsername{Name: s}, nil
	case EventChatMessage:
		var s string
		if err := decodeData(env.Data, &s); err != nil {
			return nil, err
		}
		return ChatMessage{Content: s}, nil
	case EventCreateRoom:
		var req CreateRoom
		if err := decodeData(env.Data, &req); err != nil {
			return nil, err
		}
		if err := validate.Struct(req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return req, nil
	case EventListRooms:
		return ListRooms{}, nil
	default:
		return Reserved{Name: name}, nil
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
