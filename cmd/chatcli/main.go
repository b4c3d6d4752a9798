package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/Tyrowin/roomrelay/internal/client"
)

const usage = `Commands:
  /name <name>              claim a display name
  /rooms                    list the rooms you can see
  /create [name] [private]  create a room (root channel only)
  /quit                     leave
Anything else is sent as a chat message.`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	url := flag.String("url", cfg.URL, "relay base url")
	name := flag.String("name", cfg.Name, "display name to claim on connect")
	room := flag.String("room", "", "room sub-channel to open instead of the root channel")
	colours := flag.Bool("colours", cfg.Colours, "colorize output")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	session, err := client.Dial(dialCtx, *url, *room)
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	printer := client.NewPrinter(os.Stdout, *colours)
	printer.System(usage)

	if *name != "" {
		if err := session.SetUsername(*name); err != nil {
			return err
		}
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			in, err := session.Next()
			if err != nil {
				readErr <- err
				return
			}
			printer.Print(in)
		}
	}()

	lines := make(chan string)
	go scanLines(os.Stdin, lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				printer.System("Connection closed by relay")
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handleLine(session, printer, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// loadConfig reads an optional .env file from the working directory, then
// the CHATCLI_* environment. Variables already set win over the file.
func loadConfig() (client.Config, error) {
	_ = godotenv.Load()
	return client.LoadConfig()
}

func scanLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// handleLine turns one input line into a request. It reports whether the
// user asked to quit.
func handleLine(s *client.Session, p *client.Printer, raw string) (bool, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, s.Chat(line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true, nil
	case "/name":
		name, ok := nameArg(raw)
		if !ok {
			p.System("Usage: /name <name>")
			return false, nil
		}
		return false, s.SetUsername(name)
	case "/rooms":
		if s.Room() != "" {
			p.System("Rooms are listed on the root channel")
			return false, nil
		}
		return false, s.ListRooms()
	case "/create":
		if s.Room() != "" {
			p.System("Rooms are created on the root channel")
			return false, nil
		}
		return false, createRoom(s, p, fields[1:])
	case "/help":
		p.System(usage)
		return false, nil
	default:
		p.System(fmt.Sprintf("Unknown command %s", fields[0]))
		return false, nil
	}
}

// nameArg returns what follows "/name" and one separating blank, unchanged.
func nameArg(raw string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimLeft(raw, " \t"), "/name")
	if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	rest = rest[1:]
	if strings.TrimSpace(rest) == "" {
		return "", false
	}
	return rest, true
}

func createRoom(s *client.Session, p *client.Printer, args []string) error {
	var name string
	private := false
	for _, arg := range args {
		if arg == "private" {
			private = true
			continue
		}
		if name != "" {
			p.System("Usage: /create [name] [private]")
			return nil
		}
		name = arg
	}
	return s.CreateRoom(name, private)
}
