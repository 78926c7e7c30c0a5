package ingress

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-alejo/pkg/events"
	"github.com/teslashibe/go-alejo/pkg/fusion"
	"github.com/teslashibe/go-alejo/pkg/protocol"
)

// inlinePoster runs work on the caller's goroutine, or refuses it.
type inlinePoster struct {
	full bool
}

func (p inlinePoster) Post(fn func()) bool {
	if p.full {
		return false
	}
	fn()
	return true
}

func newTestHub(t *testing.T) (*Hub, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	return NewHub(bus, inlinePoster{}), bus
}

func TestNewHub(t *testing.T) {
	hub, _ := newTestHub(t)

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	if hub.AdapterCount() != 0 {
		t.Error("AdapterCount should be 0 initially")
	}
}

func TestGetStats(t *testing.T) {
	hub, _ := newTestHub(t)

	stats := hub.GetStats()

	if stats.AdapterCount != 0 {
		t.Error("AdapterCount should be 0")
	}
	if stats.MessagesReceived != 0 {
		t.Error("MessagesReceived should be 0")
	}
	if stats.InputsForwarded != 0 {
		t.Error("InputsForwarded should be 0")
	}
}

func TestGetAdapterNotFound(t *testing.T) {
	hub, _ := newTestHub(t)

	if hub.GetAdapter("nonexistent") != nil {
		t.Error("GetAdapter should return nil for nonexistent adapter")
	}
	if len(hub.GetAdapters()) != 0 {
		t.Error("GetAdapters should return empty slice initially")
	}
	if len(hub.GetAdapterInfos()) != 0 {
		t.Error("GetAdapterInfos should return empty slice initially")
	}
}

func TestForward(t *testing.T) {
	bus := events.NewBus()
	hub := NewHub(bus, inlinePoster{}, WithClock(func() time.Time { return time.UnixMilli(4242) }))

	var got []fusion.RawInput
	if _, err := events.Subscribe(bus, fusion.TopicVoice, func(in fusion.RawInput) { got = append(got, in) }); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	msg, _ := protocol.NewVoiceMessage("open settings", 0.9)
	if err := hub.Forward(msg); err != nil {
		t.Fatalf("Forward error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d inputs, want 1", len(got))
	}
	if got[0].Timestamp != 4242 {
		t.Errorf("Timestamp = %d, want arrival time 4242", got[0].Timestamp)
	}
	if hub.GetStats().InputsForwarded != 1 {
		t.Error("InputsForwarded should be 1")
	}
}

func TestForwardRejectsProfileWithoutData(t *testing.T) {
	bus := events.NewBus()
	hub := NewHub(bus, inlinePoster{})

	published := 0
	if _, err := events.Subscribe(bus, fusion.TopicProfileUpdate, func(fusion.UserProfile) { published++ }); err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	msg, err := protocol.ParseMessage([]byte(`{"type":"profile"}`))
	if err != nil {
		t.Fatalf("ParseMessage error: %v", err)
	}
	if err := hub.Forward(msg); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Forward error = %v, want ErrInvalidPayload", err)
	}
	if published != 0 {
		t.Errorf("published %d profiles, want none", published)
	}
	if hub.GetStats().Rejected != 1 {
		t.Error("Rejected should be 1")
	}
}

func TestForwardWhenLoopFull(t *testing.T) {
	hub := NewHub(events.NewBus(), inlinePoster{full: true})

	msg, _ := protocol.NewVoiceMessage("hello", 0.9)
	if err := hub.Forward(msg); !errors.Is(err, ErrBusy) {
		t.Errorf("Forward error = %v, want ErrBusy", err)
	}
	if hub.GetStats().Rejected != 1 {
		t.Error("Rejected should be 1")
	}
}

func TestSendToNonexistentAdapter(t *testing.T) {
	hub, _ := newTestHub(t)

	ping, _ := protocol.NewPingMessage("x")
	if err := hub.SendPong("nonexistent", ping); !errors.Is(err, ErrAdapterNotConnected) {
		t.Errorf("SendPong error = %v, want ErrAdapterNotConnected", err)
	}
}

func startServer(t *testing.T, hub *Hub, addr string) {
	t.Helper()

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterRoutes(app)

	go app.Listen(addr)
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) *protocol.Message {
	t.Helper()

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatalf("ParseMessage error: %v", err)
	}
	return msg
}

func TestWebSocketConnection(t *testing.T) {
	hub, _ := newTestHub(t)
	startServer(t, hub, ":18180")

	ws := dial(t, "ws://localhost:18180/ws/adapter/eye-tracker")

	// Wait for connection to be registered
	time.Sleep(50 * time.Millisecond)

	if hub.AdapterCount() != 1 {
		t.Errorf("AdapterCount = %d, want 1", hub.AdapterCount())
	}
	if hub.GetAdapter("eye-tracker") == nil {
		t.Error("GetAdapter should return the connected adapter")
	}

	// Close and verify disconnect
	ws.Close()
	time.Sleep(100 * time.Millisecond)

	if hub.AdapterCount() != 0 {
		t.Errorf("AdapterCount = %d, want 0 after disconnect", hub.AdapterCount())
	}
}

func TestGeneratedAdapterID(t *testing.T) {
	hub, _ := newTestHub(t)
	startServer(t, hub, ":18181")

	dial(t, "ws://localhost:18181/ws/adapter")
	time.Sleep(50 * time.Millisecond)

	infos := hub.GetAdapterInfos()
	if len(infos) != 1 {
		t.Fatalf("got %d adapters, want 1", len(infos))
	}
	if len(infos[0].ID) != 36 {
		t.Errorf("ID = %q, want a UUID", infos[0].ID)
	}
}

func TestAdapterInputIsPublishedAndAcked(t *testing.T) {
	hub, bus := newTestHub(t)

	received := make(chan fusion.RawInput, 1)
	events.Subscribe(bus, fusion.TopicSwitch, func(in fusion.RawInput) { received <- in })

	startServer(t, hub, ":18182")
	ws := dial(t, "ws://localhost:18182/ws/adapter/switch-box")

	msg, _ := protocol.NewSwitchMessage("big-red", true)
	data, _ := msg.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)

	select {
	case in := <-received:
		if in.Modality != fusion.Switch {
			t.Errorf("Modality = %s, want switch", in.Modality)
		}
		if s, ok := in.Payload.(fusion.SwitchState); !ok || s.ID != "big-red" {
			t.Errorf("Payload = %#v, want switch big-red", in.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("switch input was not published")
	}

	resp := readMessage(t, ws)
	if resp.Type != protocol.TypeAck {
		t.Fatalf("Type = %s, want ack", resp.Type)
	}
	ack, _ := resp.GetAckData()
	if !ack.Accepted || ack.Type != protocol.TypeSwitch {
		t.Errorf("ack = %+v, want accepted switch", ack)
	}
}

func TestRejectedMessageIsAcked(t *testing.T) {
	hub, _ := newTestHub(t)
	startServer(t, hub, ":18183")
	ws := dial(t, "ws://localhost:18183/ws/adapter/bad")

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"telepathy"}`))

	resp := readMessage(t, ws)
	ack, err := resp.GetAckData()
	if err != nil {
		t.Fatalf("GetAckData error: %v", err)
	}
	if ack.Accepted {
		t.Error("unknown type should be rejected")
	}
	if !strings.Contains(ack.Error, "unknown message type") {
		t.Errorf("Error = %q", ack.Error)
	}
	if hub.GetStats().Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", hub.GetStats().Rejected)
	}
}

func TestPingPong(t *testing.T) {
	hub, _ := newTestHub(t)
	startServer(t, hub, ":18184")
	ws := dial(t, "ws://localhost:18184/ws/adapter/ping-test")

	time.Sleep(50 * time.Millisecond)

	// Send ping
	msg, _ := protocol.NewPingMessage("p-1")
	data, _ := msg.Bytes()
	ws.WriteMessage(websocket.TextMessage, data)

	// Read pong
	resp := readMessage(t, ws)
	if resp.Type != protocol.TypePong {
		t.Fatalf("Type = %s, want pong", resp.Type)
	}
	pong, _ := resp.GetPongData()
	if pong.ID != "p-1" {
		t.Errorf("ID = %s, want p-1", pong.ID)
	}
}

func TestRegisterRoutes(t *testing.T) {
	hub, _ := newTestHub(t)
	app := fiber.New()

	// Should not panic
	hub.RegisterRoutes(app)
	hub.RegisterAPIRoutes(app.Group("/api"))
}

func TestAPIListAdapters(t *testing.T) {
	hub, _ := newTestHub(t)
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterAPIRoutes(app.Group("/api"))

	req := httptest.NewRequest("GET", "/api/adapters/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if parsed["count"] != float64(0) {
		t.Errorf("count = %v, want 0", parsed["count"])
	}
}

func TestAPIStats(t *testing.T) {
	hub, _ := newTestHub(t)
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterAPIRoutes(app.Group("/api"))

	req := httptest.NewRequest("GET", "/api/adapters/stats", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
}

func TestAPIPingUnknownAdapter(t *testing.T) {
	hub, _ := newTestHub(t)
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	hub.RegisterAPIRoutes(app.Group("/api"))

	req := httptest.NewRequest("POST", "/api/adapters/ghost/ping", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}

	if resp.StatusCode != 404 {
		t.Errorf("Status = %d, want 404", resp.StatusCode)
	}
}
