package chat_test

import (
	"testing"

	"github.com/Tyrowin/roomrelay/internal/chat"
	"github.com/Tyrowin/roomrelay/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatcher_Connect_Requests_Username_Then_Presence(t *testing.T) {
	ctrl := gomock.NewController(t)
	d := newTestDispatcher(chat.Options{})
	conn := mocks.NewMockHandle(ctrl)

	gomock.InOrder(
		conn.EXPECT().Send(chat.Event{Name: chat.EventRequestUsername}),
		conn.EXPECT().Send(chat.Event{Name: chat.EventOnlineUsers, Data: []string{}}),
	)

	d.Connect("c1", conn)
}

func TestDispatcher_Creates_Default_Rooms(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{DefaultRooms: []string{"lobby", "general", "random"}})

	req.Equal([]string{"lobby", "general", "random"}, roomNames(d.Rooms().All()))
	for _, r := range d.Rooms().All() {
		req.False(r.IsPrivate)
		req.Empty(r.Owner)
	}
}

func TestDispatcher_SetUsername_Success_And_Presence(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{})
	a, b := &recorder{}, &recorder{}
	d.Connect("a", a)
	d.Connect("b", b)
	a.reset()
	b.reset()

	d.Dispatch("a", chat.SetUsername{Name: "alice"})

	req.Equal([]chat.EventName{chat.EventUsernameSuccess, chat.EventOnlineUsers}, a.names())
	req.Equal("Login successfully, welcome alice!", a.events[0].Data)
	evt, ok := b.last(chat.EventOnlineUsers)
	req.True(ok)
	req.Equal([]string{"alice"}, evt.Data)
	// no catch-up on the root channel
	req.Empty(a.all(chat.EventChatCatchup))
}

func TestDispatcher_SetUsername_Errors(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{})
	a, b := &recorder{}, &recorder{}
	d.Connect("a", a)
	d.Connect("b", b)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})
	b.reset()

	d.Dispatch("b", chat.SetUsername{Name: ""})
	d.Dispatch("b", chat.SetUsername{Name: "alice"})

	errs := b.all(chat.EventUsernameError)
	req.Len(errs, 2)
	req.Equal("Username cannot be empty", errs[0].Data)
	req.Equal("Username alice already exists", errs[1].Data)
	req.Empty(b.all(chat.EventOnlineUsers))
	req.Equal([]string{"alice"}, d.Users().Names())
}

func TestDispatcher_Rename(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{})
	a := &recorder{}
	d.Connect("a", a)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})

	d.Dispatch("a", chat.SetUsername{Name: "alicia"})

	evt, ok := a.last(chat.EventUsernameSuccess)
	req.True(ok)
	req.Equal("Changed username from alice to alicia", evt.Data)
	req.Equal([]string{"alicia"}, d.Users().Names())
}

func TestDispatcher_Global_Chat_Reaches_Every_Connection(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{})
	a, b, c := &recorder{}, &recorder{}, &recorder{}
	d.Connect("a", a)
	d.Connect("b", b)
	d.Connect("c", c)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})

	d.Dispatch("a", chat.ChatMessage{Content: "hi all"})
	d.Dispatch("c", chat.ChatMessage{Content: "anonymous"})

	for _, r := range []*recorder{a, b, c} {
		msgs := r.all(chat.EventChatMessage)
		req.Len(msgs, 2)
		req.Equal(chat.Message{Sender: "alice", Content: "hi all", Timestamp: testNow}, msgs[0].Data)
		req.Equal(chat.Message{Sender: "", Content: "anonymous", Timestamp: testNow}, msgs[1].Data)
	}
}

func TestDispatcher_Presence_Matches_Claims(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{})
	watcher := &recorder{}
	d.Connect("w", watcher)

	d.Connect("a", &recorder{})
	d.Dispatch("a", chat.SetUsername{Name: "alice"})
	d.Connect("b", &recorder{})
	d.Dispatch("b", chat.SetUsername{Name: "bob"})
	d.Dispatch("b", chat.SetUsername{Name: "alice"})
	d.Disconnect("a")

	evt, ok := watcher.last(chat.EventOnlineUsers)
	req.True(ok)
	req.Equal([]string{"bob"}, evt.Data)
	req.Equal(d.Users().Names(), evt.Data)
}

func TestDispatcher_Disconnect_Frees_Name_And_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{DefaultRooms: []string{"lobby"}})
	a, b := &recorder{}, &recorder{}
	d.Connect("a", a)
	d.Connect("b", b)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})
	d.Dispatch("a", chat.CreateRoom{Name: "team"})

	d.Disconnect("a")
	b.reset()
	d.Disconnect("a")

	req.Empty(b.events)
	req.Equal(1, d.Connections().Len())
	req.Empty(d.Users().Names())
	team, _ := d.Rooms().Get("team")
	req.False(team.IsJoined("a"))

	d.Dispatch("b", chat.SetUsername{Name: "alice"})
	req.Equal([]string{"alice"}, d.Users().Names())
}

func TestDispatcher_Unnamed_Connection_Cannot_Create_Or_List_Rooms(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{DefaultRooms: []string{"lobby"}})
	a := &recorder{}
	d.Connect("a", a)
	a.reset()

	d.Dispatch("a", chat.CreateRoom{Name: "team"})
	d.Dispatch("a", chat.ListRooms{})

	req.Empty(a.events)
	_, ok := d.Rooms().Get("team")
	req.False(ok)
}

func TestDispatcher_Create_Public_Room_Rebroadcasts_To_Everyone(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{DefaultRooms: []string{"lobby"}})
	a, b := &recorder{}, &recorder{}
	d.Connect("a", a)
	d.Connect("b", b)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})
	a.reset()
	b.reset()

	d.Dispatch("a", chat.CreateRoom{Name: "open"})

	req.Equal([]chat.EventName{chat.EventRoomCreated, chat.EventRooms}, a.names())
	req.Equal("open", a.events[0].Data)
	want := []chat.RoomSummary{
		{Name: "lobby"},
		{Name: "open", Owner: "alice", NumUsers: 1},
	}
	req.Equal(want, a.events[1].Data)
	req.Equal([]chat.EventName{chat.EventRooms}, b.names())
	req.Equal(want, b.events[0].Data)
}

func TestDispatcher_Create_Room_Generates_Name(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{NewRoomName: func() string { return "generated" }})
	a := &recorder{}
	d.Connect("a", a)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})

	d.Dispatch("a", chat.CreateRoom{})

	evt, ok := a.last(chat.EventRoomCreated)
	req.True(ok)
	req.Equal("generated", evt.Data)
	_, ok = d.Rooms().Get("generated")
	req.True(ok)
}

func TestDispatcher_Create_Room_Collision_Policies(t *testing.T) {
	t.Run("overwrite", func(t *testing.T) {
		req := require.New(t)
		d := newTestDispatcher(chat.Options{})
		a, b := &recorder{}, &recorder{}
		d.Connect("a", a)
		d.Connect("b", b)
		d.Dispatch("a", chat.SetUsername{Name: "alice"})
		d.Dispatch("b", chat.SetUsername{Name: "bob"})
		d.Dispatch("a", chat.CreateRoom{Name: "team", IsPrivate: true})

		d.Dispatch("b", chat.CreateRoom{Name: "team"})

		team, _ := d.Rooms().Get("team")
		req.Equal("bob", team.Owner)
		req.False(team.IsPrivate)
		req.False(team.IsJoined("a"))
		req.Empty(b.all(chat.EventCreateRoomError))
	})

	t.Run("reject", func(t *testing.T) {
		req := require.New(t)
		d := newTestDispatcher(chat.Options{Policy: chat.CollisionReject})
		a, b := &recorder{}, &recorder{}
		d.Connect("a", a)
		d.Connect("b", b)
		d.Dispatch("a", chat.SetUsername{Name: "alice"})
		d.Dispatch("b", chat.SetUsername{Name: "bob"})
		d.Dispatch("a", chat.CreateRoom{Name: "team", IsPrivate: true})
		b.reset()

		d.Dispatch("b", chat.CreateRoom{Name: "team"})

		req.Equal([]chat.EventName{chat.EventCreateRoomError}, b.names())
		req.Equal("Room team already exists", b.events[0].Data)
		team, _ := d.Rooms().Get("team")
		req.Equal("alice", team.Owner)
		req.True(team.IsJoined("a"))
	})
}

// TestDispatcher_Private_Room_Scenario walks through a private room being
// created by alice and hidden from bob.
func TestDispatcher_Private_Room_Scenario(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{DefaultRooms: []string{"lobby", "general", "random"}})
	a, b := &recorder{}, &recorder{}

	// A claims alice
	d.Connect("a", a)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})
	evt, _ := a.last(chat.EventUsernameSuccess)
	req.Equal("Login successfully, welcome alice!", evt.Data)

	// A creates the private room team
	d.Connect("b", b)
	b.reset()
	d.Dispatch("a", chat.CreateRoom{Name: "team", IsPrivate: true})
	evt, _ = a.last(chat.EventRoomCreated)
	req.Equal("team", evt.Data)
	team, ok := d.Rooms().Get("team")
	req.True(ok)
	req.Equal([]string{"alice"}, team.Directory().Names())
	evt, _ = a.last(chat.EventRooms)
	req.Equal([]string{"lobby", "general", "random", "team"}, summaryNames(evt))
	// the creation is not announced to B
	req.Empty(b.events)

	// B cannot take alice, then takes bob
	d.Dispatch("b", chat.SetUsername{Name: "alice"})
	evt, _ = b.last(chat.EventUsernameError)
	req.Equal("Username alice already exists", evt.Data)
	d.Dispatch("b", chat.SetUsername{Name: "bob"})
	_, ok = b.last(chat.EventUsernameSuccess)
	req.True(ok)

	// B's listing excludes team, A's includes it
	d.Dispatch("b", chat.ListRooms{})
	evt, _ = b.last(chat.EventRooms)
	req.Equal([]string{"lobby", "general", "random"}, summaryNames(evt))
	d.Dispatch("a", chat.ListRooms{})
	evt, _ = a.last(chat.EventRooms)
	req.Equal([]string{"lobby", "general", "random", "team"}, summaryNames(evt))
}

// TestDispatcher_Room_Channel_Scenario checks that room chat stays inside the
// room and is replayed to a later member.
func TestDispatcher_Room_Channel_Scenario(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{})
	a, b := &recorder{}, &recorder{}
	d.Connect("a", a)
	d.Connect("b", b)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})
	d.Dispatch("b", chat.SetUsername{Name: "bob"})
	d.Dispatch("a", chat.CreateRoom{Name: "team", IsPrivate: true})

	// A and B both open the team sub-channel; only A's root connection is a member
	aSub, bSub := &recorder{}, &recorder{}
	req.NoError(d.ConnectRoom("team", "a-sub", aSub))
	req.NoError(d.ConnectRoom("team", "b-sub", bSub))
	a.reset()
	b.reset()
	aSub.reset()
	bSub.reset()

	// A sends hello on the sub-channel before anyone there holds a name
	d.DispatchRoom("team", "a-sub", chat.ChatMessage{Content: "hello"})

	req.Empty(aSub.all(chat.EventChatMessage))
	req.Empty(bSub.all(chat.EventChatMessage))

	// B claims a name in the room and catches up
	d.DispatchRoom("team", "b-sub", chat.SetUsername{Name: "bob"})
	req.Equal([]chat.EventName{
		chat.EventUsernameSuccess,
		chat.EventOnlineUsers,
		chat.EventChatCatchup,
	}, bSub.names())
	req.Equal("Hello bob, welcome to #team!", bSub.events[0].Data)
	req.Equal([]string{"alice", "bob"}, bSub.events[1].Data)
	req.Equal([]chat.Message{{Sender: "", Content: "hello", Timestamp: testNow}}, bSub.events[2].Data)

	// From now on B receives room chat
	d.DispatchRoom("team", "a-sub", chat.ChatMessage{Content: "welcome"})
	req.Len(bSub.all(chat.EventChatMessage), 1)

	// Room traffic never reaches the root connections, the creator's included
	req.Empty(a.events)
	req.Empty(b.events)
}

func TestDispatcher_Room_Names_Are_Independent_Of_Global_Names(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{DefaultRooms: []string{"lobby"}})
	a := &recorder{}
	d.Connect("a", a)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})

	sub := &recorder{}
	req.NoError(d.ConnectRoom("lobby", "x-sub", sub))
	d.DispatchRoom("lobby", "x-sub", chat.SetUsername{Name: "alice"})

	_, ok := sub.last(chat.EventUsernameSuccess)
	req.True(ok)
	req.Empty(sub.all(chat.EventUsernameError))
}

func TestDispatcher_Room_Channel_Errors_And_Reserved_Events(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{DefaultRooms: []string{"lobby"}})

	err := d.ConnectRoom("nowhere", "x", &recorder{})
	req.ErrorIs(err, chat.ErrUnknownRoom)

	sub := &recorder{}
	req.NoError(d.ConnectRoom("lobby", "x", sub))
	sub.reset()

	d.DispatchRoom("lobby", "x", chat.ListRooms{})
	d.DispatchRoom("lobby", "x", chat.Reserved{Name: chat.EventLeaveRoom})
	d.DispatchRoom("nowhere", "x", chat.ChatMessage{Content: "lost"})
	d.DispatchRoom("lobby", "not-attached", chat.ChatMessage{Content: "lost"})
	req.Empty(sub.events)

	root := &recorder{}
	d.Connect("r", root)
	root.reset()
	d.Dispatch("r", chat.Reserved{Name: chat.EventInviteToJoinRoom})
	d.Dispatch("unknown", chat.ChatMessage{Content: "lost"})
	req.Empty(root.events)

	d.DisconnectRoom("lobby", "x")
	d.DisconnectRoom("lobby", "x")
	d.DisconnectRoom("nowhere", "x")
}

func TestDispatcher_Root_Disconnect_Leaves_Created_Rooms(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(chat.Options{})
	a := &recorder{}
	d.Connect("a", a)
	d.Dispatch("a", chat.SetUsername{Name: "alice"})
	d.Dispatch("a", chat.CreateRoom{Name: "team"})

	watcher := &recorder{}
	req.NoError(d.ConnectRoom("team", "w-sub", watcher))
	watcher.reset()

	d.Disconnect("a")

	team, _ := d.Rooms().Get("team")
	req.Zero(team.CountUsers())
	evt, ok := watcher.last(chat.EventOnlineUsers)
	req.True(ok)
	req.Equal([]string{}, evt.Data)
	// the owner survives the disconnect
	req.Equal("alice", team.Owner)
}

func summaryNames(evt chat.Event) []string {
	summaries, _ := evt.Data.([]chat.RoomSummary)
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	return names
}
