// Package ingress provides the WebSocket hub that input adapters connect to.
//
// Each adapter (eye tracker, gesture recogniser, speech recogniser, switch
// box, touch surface) sends protocol messages. The hub decodes them into
// fusion inputs stamped with their arrival time and publishes them on the
// event bus from the engine loop.
package ingress

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-alejo/internal/log"
	"github.com/teslashibe/go-alejo/pkg/events"
	"github.com/teslashibe/go-alejo/pkg/protocol"
)

// Poster queues work onto the goroutine that owns the engine.
// *events.Loop satisfies it.
type Poster interface {
	Post(fn func()) bool
}

// AdapterConnection represents a connected input adapter
type AdapterConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time
	Messages  uint64

	mu sync.Mutex
}

// Send sends a message to the adapter
func (a *AdapterConnection) Send(msg *protocol.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	return a.Conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections from input adapters
type Hub struct {
	mu       sync.RWMutex
	adapters map[string]*AdapterConnection

	bus    *events.Bus
	loop   Poster
	logger *slog.Logger
	now    func() time.Time

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	inputsForwarded  atomic.Uint64
	rejected         atomic.Uint64
}

// Option configures a Hub.
type Option func(*Hub)

// WithClock replaces the clock used to stamp arrival times.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		h.now = now
	}
}

// NewHub creates an adapter hub that publishes on bus through loop.
func NewHub(bus *events.Bus, loop Poster, opts ...Option) *Hub {
	h := &Hub{
		adapters: make(map[string]*AdapterConnection),
		bus:      bus,
		loop:     loop,
		logger:   log.With("component", "ingress"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/adapter", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/adapter", websocket.New(h.handleAdapter))
	app.Get("/ws/adapter/:id", websocket.New(h.handleAdapter))
}

// handleAdapter handles an adapter WebSocket connection
func (h *Hub) handleAdapter(c *websocket.Conn) {
	adapterID := c.Params("id")
	if adapterID == "" {
		adapterID = uuid.NewString()
	}

	now := h.now()
	adapter := &AdapterConnection{
		ID:        adapterID,
		Conn:      c,
		Connected: now,
		LastSeen:  now,
	}

	h.mu.Lock()
	if old, ok := h.adapters[adapterID]; ok {
		h.logger.Warn("adapter reconnected, replacing previous connection", "adapter", adapterID)
		old.Conn.Close()
	}
	h.adapters[adapterID] = adapter
	count := len(h.adapters)
	h.mu.Unlock()

	h.logger.Info("adapter connected", "adapter", adapterID, "total", count)

	defer func() {
		h.mu.Lock()
		if h.adapters[adapterID] == adapter {
			delete(h.adapters, adapterID)
		}
		count := len(h.adapters)
		h.mu.Unlock()

		h.logger.Info("adapter disconnected", "adapter", adapterID, "total", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("adapter read error", "adapter", adapterID, "error", err)
			return
		}

		adapter.mu.Lock()
		adapter.LastSeen = h.now()
		adapter.Messages++
		adapter.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(adapter, data)
	}
}

// handleMessage processes an incoming message from an adapter. Everything
// except gaze samples and pings is acknowledged.
func (h *Hub) handleMessage(adapter *AdapterConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.rejected.Add(1)
		h.logger.Debug("parse error", "adapter", adapter.ID, "error", err)
		h.ack(adapter, "", err)
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		h.SendPong(adapter.ID, msg)
		return
	case protocol.TypePong, protocol.TypeAck:
		return
	}

	err = h.Forward(msg)
	if err != nil {
		h.logger.Debug("rejected adapter message", "adapter", adapter.ID, "type", msg.Type, "error", err)
	}
	if msg.Type == protocol.TypeGaze && err == nil {
		return
	}
	h.ack(adapter, msg.Type, err)
}

// Forward decodes msg and publishes it on the bus from the engine loop.
// It is also used by the HTTP input endpoint.
func (h *Hub) Forward(msg *protocol.Message) error {
	pub, err := decode(msg, h.now().UnixMilli())
	if err != nil {
		h.rejected.Add(1)
		return err
	}

	bus := h.bus
	if !h.loop.Post(func() { pub.publish(bus) }) {
		h.rejected.Add(1)
		return ErrBusy
	}

	h.inputsForwarded.Add(1)
	return nil
}

func (h *Hub) ack(adapter *AdapterConnection, msgType protocol.MessageType, result error) {
	msg, err := protocol.NewAckMessage(msgType, result)
	if err != nil {
		return
	}
	h.messagesSent.Add(1)
	if err := adapter.Send(msg); err != nil {
		h.logger.Debug("reply failed", "adapter", adapter.ID, "error", err)
	}
}

// SendPong answers a ping from an adapter
func (h *Hub) SendPong(adapterID string, ping *protocol.Message) error {
	var id string
	if data, err := ping.GetPingData(); err == nil {
		id = data.ID
	}
	msg, err := protocol.NewPongMessage(id, ping.Timestamp, h.now().UnixMilli())
	if err != nil {
		return err
	}
	return h.sendToAdapter(adapterID, msg)
}

// sendToAdapter sends a message to a specific adapter
func (h *Hub) sendToAdapter(adapterID string, msg *protocol.Message) error {
	h.mu.RLock()
	adapter, ok := h.adapters[adapterID]
	h.mu.RUnlock()

	if !ok {
		return ErrAdapterNotConnected
	}

	h.messagesSent.Add(1)
	return adapter.Send(msg)
}

// GetAdapter returns an adapter connection by ID
func (h *Hub) GetAdapter(adapterID string) *AdapterConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.adapters[adapterID]
}

// GetAdapters returns all connected adapters
func (h *Hub) GetAdapters() []*AdapterConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	adapters := make([]*AdapterConnection, 0, len(h.adapters))
	for _, a := range h.adapters {
		adapters = append(adapters, a)
	}
	return adapters
}

// AdapterCount returns the number of connected adapters
func (h *Hub) AdapterCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.adapters)
}

// Stats contains hub statistics
type Stats struct {
	AdapterCount     int    `json:"adapter_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	InputsForwarded  uint64 `json:"inputs_forwarded"`
	Rejected         uint64 `json:"rejected"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		AdapterCount:     h.AdapterCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		InputsForwarded:  h.inputsForwarded.Load(),
		Rejected:         h.rejected.Load(),
	}
}

// AdapterInfo contains info about a connected adapter
type AdapterInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Messages  uint64    `json:"messages"`
}

// GetAdapterInfos returns info about all connected adapters
func (h *Hub) GetAdapterInfos() []AdapterInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]AdapterInfo, 0, len(h.adapters))
	for _, a := range h.adapters {
		a.mu.Lock()
		infos = append(infos, AdapterInfo{
			ID:        a.ID,
			Connected: a.Connected,
			LastSeen:  a.LastSeen,
			Messages:  a.Messages,
		})
		a.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers API routes for adapter management
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	adapters := api.Group("/adapters")

	// List connected adapters
	adapters.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"adapters": h.GetAdapterInfos(),
			"count":    h.AdapterCount(),
		})
	})

	// Get hub stats
	adapters.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})

	// Ping an adapter to measure round trip latency
	adapters.Post("/:id/ping", func(c *fiber.Ctx) error {
		msg, err := protocol.NewPingMessage(uuid.NewString())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if err := h.sendToAdapter(c.Params("id"), msg); err != nil {
			if errors.Is(err, ErrAdapterNotConnected) {
				return c.Status(404).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "sent"})
	})
}
