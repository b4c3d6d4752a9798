package chat

import (
	"log/slog"
	"time"
)

// Scope is one name-uniqueness domain together with the connections that
// listen to it. The global channel and every room each own one.
//
// attached holds the connections opened on the scope's own channel and is
// the only fan-out target. The directory holds the claimed names; for a room
// it can also contain users added from elsewhere (the creator's root
// connection), who count as members but are never sent the room's events.
type Scope struct {
	name     string
	attached *Registry
	users    *Directory
	history  *History
	welcome  func(name string) string

	// membersOnly restricts chat fan-out to attached connections holding a name.
	membersOnly bool

	now func() time.Time
	log *slog.Logger
}

func (s *Scope) Name() string {
	return s.name
}

func (s *Scope) Directory() *Directory {
	return s.users
}

// Attach registers a connection on the scope's channel and broadcasts presence.
func (s *Scope) Attach(id ConnectionID, h Handle) {
	s.attached.Register(id, h)
	s.BroadcastPresence()
}

// Detach forgets a connection everywhere in the scope. Detaching an unknown
// connection changes nothing and sends nothing.
func (s *Scope) Detach(id ConnectionID) {
	user, claimed := s.users.Lookup(id)
	removedName := s.users.Remove(id)
	removedConn := s.attached.Unregister(id)
	if !removedName && !removedConn {
		return
	}
	if claimed {
		s.log.Info("User left", "scope", s.name, "user", user.Name, "conn", id)
	} else {
		s.log.Info("Connection left", "scope", s.name, "conn", id)
	}
	s.BroadcastPresence()
}

// Claim runs the name claim for id and reports the outcome to h. On success
// the scope's presence is broadcast and, when the scope keeps history, the
// full log is replayed to h alone.
func (s *Scope) Claim(id ConnectionID, name string, h Handle) (Claim, error) {
	claim, err := s.users.Claim(id, name)
	if err != nil {
		s.log.Info("Username refused", "scope", s.name, "conn", id, "user", name, "error", err)
		h.Send(Event{Name: EventUsernameError, Data: err.Error()})
		return Claim{}, err
	}

	s.log.Info("Setting username", "scope", s.name, "conn", id, "user", name)
	if claim.Renamed() {
		h.Send(Event{Name: EventUsernameSuccess, Data: "Changed username from " + claim.Previous + " to " + name})
	} else {
		h.Send(Event{Name: EventUsernameSuccess, Data: s.welcome(name)})
	}

	s.BroadcastPresence()

	if s.history != nil {
		h.Send(Event{Name: EventChatCatchup, Data: s.history.Snapshot()})
	}
	return claim, nil
}

// Say broadcasts content as a message from id. An unclaimed sender is sent
// with an empty name.
func (s *Scope) Say(id ConnectionID, content string) Message {
	var sender string
	if u, ok := s.users.Lookup(id); ok {
		sender = u.Name
	}
	msg := Message{Sender: sender, Content: content, Timestamp: s.now()}

	evt := Event{Name: EventChatMessage, Data: msg}
	s.attached.Each(func(cid ConnectionID, h Handle) {
		if s.membersOnly {
			if _, ok := s.users.Lookup(cid); !ok {
				return
			}
		}
		h.Send(evt)
	})

	if s.history != nil {
		s.history.Append(msg)
	}
	return msg
}

// BroadcastPresence sends the scope's current names to every attached
// connection.
func (s *Scope) BroadcastPresence() {
	evt := Event{Name: EventOnlineUsers, Data: s.users.Names()}
	s.attached.Each(func(_ ConnectionID, h Handle) {
		h.Send(evt)
	})
}
