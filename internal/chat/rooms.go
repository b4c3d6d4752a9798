package chat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// CollisionPolicy decides what creating an already registered room does.
type CollisionPolicy string

const (
	// CollisionOverwrite replaces the existing room; its members and
	// history are dropped.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionReject refuses the creation with ErrRoomExists.
	CollisionReject CollisionPolicy = "reject"
)

// ParseCollisionPolicy maps a configuration value to a policy.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch p := CollisionPolicy(s); p {
	case CollisionOverwrite, CollisionReject:
		return p, nil
	case "":
		return CollisionOverwrite, nil
	default:
		return "", fmt.Errorf("unknown room collision policy %q", s)
	}
}

// RoomRegistry holds every room by name. Rooms are never removed.
type RoomRegistry struct {
	rooms  map[string]*Room
	order  []string
	policy CollisionPolicy
	now    func() time.Time
	log    *slog.Logger
}

func NewRoomRegistry(policy CollisionPolicy, now func() time.Time, log *slog.Logger) *RoomRegistry {
	if policy == "" {
		policy = CollisionOverwrite
	}
	return &RoomRegistry{
		rooms:  make(map[string]*Room),
		policy: policy,
		now:    now,
		log:    log,
	}
}

// Create registers a fresh room under name. Under the overwrite policy an
// existing room is replaced in place: connections attached to its
// sub-channel stay attached, everything else starts empty.
func (rr *RoomRegistry) Create(name string) (*Room, error) {
	room := NewRoom(name, rr.now, rr.log)

	old, exists := rr.rooms[name]
	switch {
	case exists && rr.policy == CollisionReject:
		return nil, fmt.Errorf("%w: %s", ErrRoomExists, name)
	case exists:
		rr.log.Warn("Room replaced, members and history dropped",
			"room", name, "members", old.CountUsers(), "messages", old.history.Len())
		room.attached = old.attached
	default:
		rr.order = append(rr.order, name)
	}

	rr.rooms[name] = room
	rr.log.Info("Room created", "room", name)
	return room, nil
}

func (rr *RoomRegistry) Get(name string) (*Room, bool) {
	r, ok := rr.rooms[name]
	return r, ok
}

// All returns every room in registration order.
func (rr *RoomRegistry) All() []*Room {
	return lo.Map(rr.order, func(name string, _ int) *Room {
		return rr.rooms[name]
	})
}

// List returns the rooms a requester may see: public rooms, rooms it owns
// and rooms its connection is a member of.
func (rr *RoomRegistry) List(visibleTo string, id ConnectionID) []*Room {
	return lo.Filter(rr.All(), func(r *Room, _ int) bool {
		return r.VisibleTo(visibleTo, id)
	})
}

// Summaries renders rooms for a "rooms" event. It is never nil.
func Summaries(rooms []*Room) []RoomSummary {
	return lo.Map(rooms, func(r *Room, _ int) RoomSummary {
		return r.Summary()
	})
}
