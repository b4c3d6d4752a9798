package chat

import (
	"fmt"
	"log/slog"
	"time"
)

// Room is a named channel with its own directory, membership and history.
// Owner is assigned once, when the room is created on someone's request.
type Room struct {
	*Scope
	IsPrivate bool
	Owner     string
}

// RoomSummary is the listing entry sent in "rooms" events.
type RoomSummary struct {
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	IsPrivate bool   `json:"isPrivate"`
	NumUsers  int    `json:"numUsers"`
}

// NewRoom returns an empty public room with no owner.
func NewRoom(name string, now func() time.Time, log *slog.Logger) *Room {
	return &Room{
		Scope: &Scope{
			name:     name,
			attached: NewRegistry(),
			users:    NewDirectory(),
			history:  &History{},
			welcome: func(user string) string {
				return fmt.Sprintf("Hello %s, welcome to #%s!", user, name)
			},
			membersOnly: true,
			now:         now,
			log:         log.With("room", name),
		},
	}
}

// AddUser makes u a member: it holds its name in the room and counts towards
// membership and visibility. It does not broadcast presence, and u receives
// nothing from the room unless it also attaches to the room's channel.
func (r *Room) AddUser(u User) {
	r.users.Add(u)
}

func (r *Room) IsJoined(id ConnectionID) bool {
	_, ok := r.users.Lookup(id)
	return ok
}

func (r *Room) CountUsers() int {
	return r.users.Len()
}

// History returns a copy of the room's messages, oldest first.
func (r *Room) History() []Message {
	return r.history.Snapshot()
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		Name:      r.name,
		Owner:     r.Owner,
		IsPrivate: r.IsPrivate,
		NumUsers:  r.CountUsers(),
	}
}

// VisibleTo reports whether a requester with the given display name and
// root connection may see the room in listings.
func (r *Room) VisibleTo(name string, id ConnectionID) bool {
	return !r.IsPrivate || r.Owner == name || r.IsJoined(id)
}
