package chat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Options configures a Dispatcher. Zero values pick the defaults.
type Options struct {
	Policy       CollisionPolicy
	DefaultRooms []string
	Clock        func() time.Time
	NewRoomName  func() string
}

// Dispatcher is the composition root of the chat state. It owns the root
// connection registry, the global scope and the room registry, and turns
// connection events into state changes and outbound events.
//
// A Dispatcher must only be used from one goroutine.
type Dispatcher struct {
	conns       *Registry
	global      *Scope
	rooms       *RoomRegistry
	newRoomName func() string
	log         *slog.Logger
}

func NewDispatcher(log *slog.Logger, opts Options) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewRoomName == nil {
		opts.NewRoomName = uuid.NewString
	}

	conns := NewRegistry()
	d := &Dispatcher{
		conns: conns,
		global: &Scope{
			name:     "/",
			attached: conns,
			users:    NewDirectory(),
			welcome: func(name string) string {
				return fmt.Sprintf("Login successfully, welcome %s!", name)
			},
			now: opts.Clock,
			log: log,
		},
		rooms:       NewRoomRegistry(opts.Policy, opts.Clock, log),
		newRoomName: opts.NewRoomName,
		log:         log,
	}

	for _, name := range opts.DefaultRooms {
		if _, err := d.rooms.Create(name); err != nil {
			log.Warn("Skipping default room", "room", name, "error", err)
		}
	}
	return d
}

// Rooms exposes the room registry.
func (d *Dispatcher) Rooms() *RoomRegistry {
	return d.rooms
}

// Users exposes the global directory.
func (d *Dispatcher) Users() *Directory {
	return d.global.users
}

// Connections exposes the root connection registry.
func (d *Dispatcher) Connections() *Registry {
	return d.conns
}

// Connect registers a root connection, asks it for a name when it has none,
// and broadcasts global presence.
func (d *Dispatcher) Connect(id ConnectionID, h Handle) {
	d.log.Info("A user connected to root", "conn", id)
	d.conns.Register(id, h)
	if _, ok := d.global.users.Lookup(id); !ok {
		h.Send(Event{Name: EventRequestUsername})
	}
	d.global.BroadcastPresence()
}

// Disconnect tears down a root connection: its global name, its registry
// entry and any room membership it got by creating rooms. Repeating it is
// harmless.
func (d *Dispatcher) Disconnect(id ConnectionID) {
	d.global.Detach(id)
	for _, room := range d.rooms.All() {
		if room.IsJoined(id) {
			room.Detach(id)
		}
	}
}

// Dispatch handles one request received on the root channel.
func (d *Dispatcher) Dispatch(id ConnectionID, req Request) {
	h, ok := d.conns.Get(id)
	if !ok {
		d.log.Warn("Request from unknown connection dropped", "conn", id, "event", req.Event())
		return
	}

	switch r := req.(type) {
	case SetUsername:
		_, _ = d.global.Claim(id, r.Name, h)
	case ChatMessage:
		d.global.Say(id, r.Content)
	case CreateRoom:
		d.createRoom(id, h, r)
	case ListRooms:
		d.listRooms(id, h)
	default:
		d.log.Info("Event not handled", "conn", id, "event", req.Event())
	}
}

func (d *Dispatcher) createRoom(id ConnectionID, h Handle, req CreateRoom) {
	user, ok := d.global.users.Lookup(id)
	if !ok {
		d.log.Info("Room creation from unnamed connection dropped", "conn", id)
		return
	}

	name := req.Name
	if name == "" {
		name = d.newRoomName()
	}

	room, err := d.rooms.Create(name)
	if err != nil {
		d.log.Info("Room creation refused", "conn", id, "room", name, "error", err)
		h.Send(Event{Name: EventCreateRoomError, Data: fmt.Sprintf("Room %s already exists", name)})
		return
	}

	room.IsPrivate = req.IsPrivate
	room.Owner = user.Name
	room.AddUser(user)
	h.Send(Event{Name: EventRoomCreated, Data: name})

	if room.IsPrivate {
		h.Send(d.roomsEvent(id))
	} else {
		d.conns.Each(func(cid ConnectionID, ch Handle) {
			ch.Send(d.roomsEvent(cid))
		})
	}
	d.log.Info("Room created by user", "user", user.Name, "room", name, "private", room.IsPrivate)
}

func (d *Dispatcher) listRooms(id ConnectionID, h Handle) {
	if _, ok := d.global.users.Lookup(id); !ok {
		d.log.Info("Room listing from unnamed connection dropped", "conn", id)
		return
	}
	h.Send(d.roomsEvent(id))
}

func (d *Dispatcher) roomsEvent(id ConnectionID) Event {
	var name string
	if u, ok := d.global.users.Lookup(id); ok {
		name = u.Name
	}
	return Event{Name: EventRooms, Data: Summaries(d.rooms.List(name, id))}
}

// ConnectRoom attaches a connection to a room's sub-channel.
func (d *Dispatcher) ConnectRoom(room string, id ConnectionID, h Handle) error {
	r, ok := d.rooms.Get(room)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, room)
	}
	d.log.Info("A user connected to room", "room", room, "conn", id)
	r.Attach(id, h)
	return nil
}

// DisconnectRoom detaches a connection from a room's sub-channel.
func (d *Dispatcher) DisconnectRoom(room string, id ConnectionID) {
	if r, ok := d.rooms.Get(room); ok {
		r.Detach(id)
	}
}

// DispatchRoom handles one request received on a room's sub-channel. Only
// name claims and chat are meaningful there.
func (d *Dispatcher) DispatchRoom(room string, id ConnectionID, req Request) {
	r, ok := d.rooms.Get(room)
	if !ok {
		d.log.Warn("Request for unknown room dropped", "room", room, "conn", id)
		return
	}
	h, ok := r.attached.Get(id)
	if !ok {
		d.log.Warn("Request from unattached connection dropped", "room", room, "conn", id)
		return
	}

	switch q := req.(type) {
	case SetUsername:
		_, _ = r.Claim(id, q.Name, h)
	case ChatMessage:
		r.Say(id, q.Content)
	default:
		d.log.Info("Event not handled on room channel", "room", room, "conn", id, "event", req.Event())
	}
}
