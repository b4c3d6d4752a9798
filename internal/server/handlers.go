// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// ServeWS upgrades a request on the root channel.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "")
}

// ServeRoomWS upgrades a request on a room's sub-channel. Whether the room
// exists is decided by the hub once the connection is registered.
func (h *Hub) ServeRoomWS(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	if room == "" {
		http.Error(w, "Room name required.", http.StatusNotFound)
		return
	}
	h.serve(w, r, room)
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request, room string) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, h, r.RemoteAddr, room)

	// The hub launches the pump goroutines.
	if !h.Register(client) {
		_ = conn.Close()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Room relay is running!")
}

// TestPageHandler serves a small browser client for the relay: claim a name,
// chat globally, list and create rooms, and open one room sub-channel.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, testPage)
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Room relay test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .log { border: 1px solid #ccc; height: 220px; padding: 10px; overflow-y: scroll; margin: 10px 0; background-color: #f9f9f9; }
        input[type="text"] { width: 240px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
    </style>
</head>
<body>
    <h1>Room relay test</h1>
    <div>
        <input type="text" id="name" placeholder="Display name">
        <button onclick="send(root, 'set-username', val('name'))">Set name</button>
        <button onclick="send(root, 'list-rooms')">List rooms</button>
    </div>
    <div>
        <input type="text" id="newRoom" placeholder="Room name (optional)">
        <label><input type="checkbox" id="private"> private</label>
        <button onclick="send(root, 'create-room', {name: val('newRoom') || undefined, isPrivate: document.getElementById('private').checked})">Create room</button>
    </div>
    <div>
        <input type="text" id="global" placeholder="Global message">
        <button onclick="send(root, 'chat-message', val('global'))">Send</button>
    </div>
    <div class="log" id="rootLog"></div>

    <div>
        <input type="text" id="room" placeholder="Room to open">
        <button onclick="openRoom()">Open room</button>
        <input type="text" id="roomMsg" placeholder="Room message">
        <button onclick="send(sub, 'chat-message', val('roomMsg'))">Send</button>
    </div>
    <div class="log" id="roomLog"></div>

    <script>
        const base = (location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host;
        let sub = null;

        function val(id) { return document.getElementById(id).value; }

        function log(id, text) {
            const el = document.createElement('div');
            el.textContent = text;
            const box = document.getElementById(id);
            box.appendChild(el);
            box.scrollTop = box.scrollHeight;
        }

        function send(ws, event, data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({event: event, data: data}));
            }
        }

        function attach(ws, logId) {
            ws.onmessage = e => {
                const msg = JSON.parse(e.data);
                log(logId, msg.event + ' ' + JSON.stringify(msg.data ?? ''));
            };
            ws.onclose = () => log(logId, 'connection closed');
        }

        const root = new WebSocket(base + '/ws');
        attach(root, 'rootLog');

        function openRoom() {
            if (sub) { sub.close(); }
            sub = new WebSocket(base + '/ws/rooms/' + encodeURIComponent(val('room')));
            attach(sub, 'roomLog');
            sub.onopen = () => send(sub, 'set-username', val('name'));
        }
    </script>
</body>
</html>`
