// alejo-sim: scripted input adapter for the alejo fusion service
// Replays scenarios over the adapter WebSocket and prints the resulting events
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-alejo/internal/httpc"
	"github.com/teslashibe/go-alejo/internal/log"
	"github.com/teslashibe/go-alejo/pkg/protocol"
)

var (
	serverURL string
	scenario  string
	topics    string
	situation string
	linger    time.Duration
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "alejo-sim",
	Short: "Replay scripted adapter input against an alejo server",
	Long: `Connects to an alejo server as an input adapter and replays a scenario.

Builtin scenarios: ` + strings.Join(builtinNames(), ", ") + `
Any other value is read as a YAML scenario file. With --scenario=- lines
typed on stdin are sent as voice commands.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&serverURL, "url", "u", "ws://localhost:8080", "alejo server base URL")
	rootCmd.Flags().StringVarP(&scenario, "scenario", "s", "tour", "builtin name, YAML file, or - for interactive voice")
	rootCmd.Flags().StringVar(&topics, "topics", "", "event topics to print (comma separated, * suffix for prefix)")
	rootCmd.Flags().StringVar(&situation, "context", "", "set the situational context before replaying")
	rootCmd.Flags().DurationVar(&linger, "linger", 2*time.Second, "how long to keep printing events after the last step")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func builtinNames() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func run(cmd *cobra.Command, _ []string) error {
	if verbose {
		log.Init("debug")
	} else {
		log.Init("info")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api, err := httpc.New(serverURL)
	if err != nil {
		return err
	}
	health, err := api.Health(ctx)
	if err != nil {
		return fmt.Errorf("server not reachable at %s: %w", api.BaseURL(), err)
	}
	log.Info("server up", "version", health.Version, "adapters", health.Adapters)

	if situation != "" {
		if err := api.SetContext(ctx, situation); err != nil {
			return err
		}
	}

	adapterURL, eventsURL, err := endpoints(serverURL, "sim-"+uuid.NewString()[:8], topics)
	if err != nil {
		return err
	}

	events, _, err := websocket.DefaultDialer.DialContext(ctx, eventsURL, nil)
	if err != nil {
		return fmt.Errorf("connect event stream: %w", err)
	}
	defer events.Close()
	go printEvents(cmd.OutOrStdout(), events)

	adapter, _, err := websocket.DefaultDialer.DialContext(ctx, adapterURL, nil)
	if err != nil {
		return fmt.Errorf("connect adapter: %w", err)
	}
	defer adapter.Close()
	go readAcks(adapter)

	log.Info("connected", "adapter", adapterURL, "events", eventsURL)

	if scenario == "-" {
		err = interactive(ctx, cmd.InOrStdin(), adapter)
	} else {
		err = replay(ctx, adapter)
	}
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-time.After(linger):
	}

	status, err := api.Status(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	st := status.Stats
	fmt.Fprintf(cmd.OutOrStdout(), "\n📊 inputs=%d commands=%d executed=%d conflicts=%d (won %d) below_threshold=%d\n",
		st.Inputs, st.Commands, st.Executed, st.Conflicts, st.ConflictsWon, st.BelowThreshold)
	return nil
}

// endpoints derives the adapter and event stream URLs from a base URL.
func endpoints(base, adapterID, topics string) (adapterURL, eventsURL string, err error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	a := *u
	a.Path += "/ws/adapter/" + url.PathEscape(adapterID)

	e := *u
	e.Path += "/ws/events"
	if topics != "" {
		e.RawQuery = url.Values{"topics": {topics}}.Encode()
	}
	return a.String(), e.String(), nil
}

func replay(ctx context.Context, conn *websocket.Conn) error {
	s, err := loadScenario(scenario)
	if err != nil {
		return err
	}
	log.Info("replaying scenario", "name", s.Name, "steps", len(s.Steps))

	for i, step := range s.Steps {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(step.delay()):
		}

		msg, err := step.message()
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := send(conn, msg); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Debug("sent", "step", i+1, "type", step.Type)
	}
	return nil
}

// interactive sends each stdin line as a voice command, like a push to
// talk button with perfect recognition.
func interactive(ctx context.Context, in io.Reader, conn *websocket.Conn) error {
	status, _ := protocol.NewModalityStatusMessage("voice", true)
	if err := send(conn, status); err != nil {
		return err
	}

	fmt.Println("🎤 Type a command and press enter (Ctrl-D to quit)")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		msg, err := protocol.NewVoiceMessage(text, 1.0)
		if err != nil {
			return err
		}
		if err := send(conn, msg); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func send(conn *websocket.Conn, msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func readAcks(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil || msg.Type != protocol.TypeAck {
			continue
		}
		if ack, err := msg.GetAckData(); err == nil && !ack.Accepted {
			log.Warn("server rejected message", "type", ack.Type, "error", ack.Error)
		}
	}
}

func printEvents(w io.Writer, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s  %-17s %s\n", time.UnixMilli(msg.Timestamp).Format("15:04:05.000"), msg.Type, msg.Data)
	}
}
