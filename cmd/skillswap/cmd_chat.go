package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-sdk-go/skillswap"
	"github.com/skillswap/skillswap-sdk-go/skillswap/rest"
)

func newChatCmd() *cobra.Command {
	var userID, userName string

	cmd := &cobra.Command{
		Use:   "chat <match-id>",
		Short: "Open a conversation and chat in real time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID := args[0]
			if authToken == "" {
				return fmt.Errorf("no token; run `skillswap login` first")
			}
			if userID == "" {
				return fmt.Errorf("no user id; pass --user-id or set SKILLSWAP_USER_ID")
			}
			ctx := cmd.Context()

			cfg := skillswap.DefaultConfig()
			cfg.SocketURL = socketURL
			cfg.APIURL = apiURL
			cfg.LocalUser = skillswap.User{ID: userID, Name: userName}

			logger := skillswap.SlogLogger{L: slog.Default()}

			api := rest.NewClient(cfg.APIURL)
			api.SetToken(authToken)

			client := skillswap.NewClient(cfg)
			client.SetLogger(logger)
			api.OnUnauthorized(func() {
				fmt.Fprintln(os.Stderr, "Session expired; run `skillswap login` again.")
				_ = client.Disconnect()
			})
			client.OnError(func(err error) {
				slog.Warn("transport error", "error", err)
			})
			client.OnNotification(func(ev skillswap.NotificationEvent) {
				fmt.Printf("\n[notification] %s: %s\n> ", ev.Title, ev.Body)
			})

			rooms := skillswap.NewRoomTracker(client, cfg)
			rooms.SetLogger(logger)
			engine := skillswap.NewEngine(client, skillswap.NewRESTHistory(api), rooms, cfg)
			engine.SetLogger(logger)
			engine.Bind(client)

			printer := newPrinter(engine, userID)
			engine.SetOnChange(printer.render)

			if err := client.Connect(ctx, authToken); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer client.Disconnect()

			history, err := engine.OpenConversation(ctx, matchID)
			if err != nil {
				return fmt.Errorf("open conversation: %w", err)
			}
			printer.catchUp(history)
			defer engine.CloseConversation(ctx)

			fmt.Println("Type a message and press enter. /quit to exit.")
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("> ")
			for scanner.Scan() {
				line := scanner.Text()
				if strings.TrimSpace(line) == "/quit" {
					break
				}
				engine.Composing(ctx, matchID)
				if _, err := engine.SendMessage(ctx, matchID, line); err != nil {
					if skillswap.IsRecoverable(err) {
						fmt.Fprintf(os.Stderr, "send failed (%v); your text was not delivered, try again\n", err)
					} else {
						return err
					}
				}
				fmt.Print("> ")
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", os.Getenv("SKILLSWAP_USER_ID"), "local user id")
	cmd.Flags().StringVar(&userName, "user-name", os.Getenv("SKILLSWAP_USER_NAME"), "local display name")
	return cmd
}

// printer renders timeline growth and typing changes without repeating
// messages it already showed.
type printer struct {
	engine *skillswap.Engine
	selfID string

	mu     sync.Mutex
	shown  map[string]bool
	typing string
}

func newPrinter(engine *skillswap.Engine, selfID string) *printer {
	return &printer{engine: engine, selfID: selfID, shown: make(map[string]bool)}
}

func (p *printer) catchUp(msgs []skillswap.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		p.printLocked(m)
	}
}

func (p *printer) render(matchID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.engine.Timeline(matchID) {
		p.printLocked(m)
	}
	name, ok := p.engine.TypingUser(matchID)
	switch {
	case ok && name != p.typing:
		fmt.Printf("\n[%s is typing...]\n> ", name)
		p.typing = name
	case !ok:
		p.typing = ""
	}
}

func (p *printer) printLocked(m skillswap.Message) {
	key := m.ID + "/" + m.Status.String()
	if p.shown[key] {
		return
	}
	p.shown[key] = true
	who := m.Sender.Name
	if m.Sender.ID == p.selfID {
		who = "you"
	}
	switch m.Status {
	case skillswap.StatusOptimistic:
		fmt.Printf("\n%s %s: %s (sending...)\n> ", m.CreatedAt.Format("15:04"), who, m.Content)
	case skillswap.StatusFailed:
		fmt.Printf("\n%s %s: %s (FAILED)\n> ", m.CreatedAt.Format("15:04"), who, m.Content)
	default:
		fmt.Printf("\n%s %s: %s\n> ", m.CreatedAt.Format("15:04"), who, m.Content)
	}
}
