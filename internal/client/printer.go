package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/Tyrowin/roomrelay/internal/chat"
)

// roomRow mirrors the summaries carried by the rooms event.
type roomRow struct {
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	IsPrivate bool   `json:"isPrivate"`
	NumUsers  int    `json:"numUsers"`
}

// Printer renders incoming events as terminal lines. It is safe for
// concurrent use.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	colours bool
	loc     *time.Location
}

func NewPrinter(out io.Writer, colours bool) *Printer {
	return &Printer{out: out, colours: colours, loc: time.Local}
}

func (p *Printer) paint(s string, opts ...color.Color) string {
	if !p.colours {
		return s
	}
	return color.New(opts...).Render(s)
}

func (p *Printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// System prints a local status line.
func (p *Printer) System(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.system(text)
}

func (p *Printer) system(text string) {
	p.line("%s", p.paint("* "+text, color.FgYellow))
}

// Print renders one event. Payloads that do not decode are shown raw.
func (p *Printer) Print(in Incoming) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch in.Event {
	case chat.EventRequestUsername:
		p.system("Choose a name with /name <name>")
	case chat.EventUsernameSuccess:
		p.line("%s", p.paint(in.Text(), color.FgGreen))
	case chat.EventRoomCreated:
		p.line("%s", p.paint("Room "+in.Text()+" created", color.FgGreen))
	case chat.EventUsernameError, chat.EventCreateRoomError, chat.EventError:
		p.line("%s", p.paint(in.Text(), color.FgRed, color.OpBold))
	case chat.EventOnlineUsers:
		p.printOnline(in)
	case chat.EventChatMessage:
		var msg chat.Message
		if err := json.Unmarshal(in.Data, &msg); err != nil {
			p.raw(in)
			return
		}
		p.printMessage(msg)
	case chat.EventChatCatchup:
		var history []chat.Message
		if err := json.Unmarshal(in.Data, &history); err != nil {
			p.raw(in)
			return
		}
		if len(history) == 0 {
			p.system("No earlier messages")
			return
		}
		p.system(fmt.Sprintf("%d earlier messages", len(history)))
		for _, msg := range history {
			p.printMessage(msg)
		}
	case chat.EventRooms:
		var rows []roomRow
		if err := json.Unmarshal(in.Data, &rows); err != nil {
			p.raw(in)
			return
		}
		p.printRooms(rows)
	default:
		p.raw(in)
	}
}

func (p *Printer) raw(in Incoming) {
	p.line("%s %s", in.Event, string(in.Data))
}

func (p *Printer) printOnline(in Incoming) {
	var names []string
	if err := json.Unmarshal(in.Data, &names); err != nil {
		p.raw(in)
		return
	}
	if len(names) == 0 {
		p.system("Online: nobody")
		return
	}
	p.system("Online: " + strings.Join(names, ", "))
}

func (p *Printer) printMessage(msg chat.Message) {
	sender := msg.Sender
	if sender == "" {
		sender = "(unnamed)"
	}
	stamp := msg.Timestamp.In(p.loc).Format(time.TimeOnly)
	p.line("[%s] %s: %s", stamp, p.paint(sender, color.FgCyan, color.OpBold), msg.Content)
}

func (p *Printer) printRooms(rows []roomRow) {
	if len(rows) == 0 {
		p.system("No rooms")
		return
	}

	table := tablewriter.NewWriter(p.out)
	table.SetHeader([]string{"Room", "Owner", "Private", "Users"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, r := range rows {
		private := ""
		if r.IsPrivate {
			private = "yes"
		}
		table.Append([]string{r.Name, r.Owner, private, strconv.Itoa(r.NumUsers)})
	}
	table.Render()
}
