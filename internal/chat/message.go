package chat

import "time"

// Message is one line of chat. It is never modified after it has been
// broadcast or appended to a history.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// History is the append-only message log of a room.
// It has no size cap.
type History struct {
	messages []Message
}

func (h *History) Append(m Message) {
	h.messages = append(h.messages, m)
}

func (h *History) Len() int {
	return len(h.messages)
}

// Snapshot returns a copy of the log, oldest first. It is never nil so it
// encodes as an empty JSON array.
func (h *History) Snapshot() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}
