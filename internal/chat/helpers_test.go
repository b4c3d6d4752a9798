package chat_test

import (
	"log/slog"
	"time"

	"github.com/Tyrowin/roomrelay/internal/chat"
	"github.com/samber/lo"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// recorder is a Handle that keeps everything sent to it.
type recorder struct {
	events []chat.Event
}

func (r *recorder) Send(evt chat.Event) {
	r.events = append(r.events, evt)
}

func (r *recorder) names() []chat.EventName {
	return lo.Map(r.events, func(e chat.Event, _ int) chat.EventName { return e.Name })
}

func (r *recorder) all(name chat.EventName) []chat.Event {
	return lo.Filter(r.events, func(e chat.Event, _ int) bool { return e.Name == name })
}

func (r *recorder) last(name chat.EventName) (chat.Event, bool) {
	matches := r.all(name)
	if len(matches) == 0 {
		return chat.Event{}, false
	}
	return matches[len(matches)-1], true
}

func (r *recorder) reset() {
	r.events = nil
}

func newTestDispatcher(opts chat.Options) *chat.Dispatcher {
	if opts.Clock == nil {
		opts.Clock = fixedClock
	}
	return chat.NewDispatcher(discardLogger(), opts)
}
