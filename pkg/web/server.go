// Package web serves the fusion service over HTTP: the control API, the
// adapter ingress endpoint and the outbound event stream.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-alejo/internal/log"
	"github.com/teslashibe/go-alejo/pkg/events"
	"github.com/teslashibe/go-alejo/pkg/fusion"
	"github.com/teslashibe/go-alejo/pkg/hub"
	"github.com/teslashibe/go-alejo/pkg/ingress"
)

const (
	// requestTimeout bounds how long a handler waits on the engine loop
	requestTimeout = 2 * time.Second

	// shutdownTimeout bounds graceful shutdown
	shutdownTimeout = 5 * time.Second
)

// Options configures the server.
type Options struct {
	Port    int
	Debug   bool
	Version string
}

// Server is the fusion HTTP server
type Server struct {
	app  *fiber.App
	opts Options

	engine   *fusion.Engine
	bus      *events.Bus
	loop     *events.Loop
	adapters *ingress.Hub
	stream   *hub.Hub

	logger  *slog.Logger
	started time.Time
	untap   func()

	forwarded atomic.Uint64
}

// NewServer creates the server and starts forwarding engine events to
// stream subscribers. Every engine call is made through loop.
func NewServer(opts Options, engine *fusion.Engine, bus *events.Bus, loop *events.Loop) (*Server, error) {
	s := &Server{
		opts:     opts,
		engine:   engine,
		bus:      bus,
		loop:     loop,
		adapters: ingress.NewHub(bus, loop),
		stream:   hub.New("events"),
		logger:   log.With("component", "web"),
		started:  time.Now(),
	}

	untap, err := bus.AddTap(s.forward)
	if err != nil {
		return nil, fmt.Errorf("tap bus: %w", err)
	}
	s.untap = untap

	app := fiber.New(fiber.Config{
		AppName:               "alejo",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if opts.Debug {
		app.Use(logger.New())
	}

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Put("/modalities/:modality", s.handleSetModality)
	api.Post("/context", s.handleContext)
	api.Put("/profile", s.handleProfile)
	api.Patch("/settings", s.handleSettings)
	api.Post("/inputs", s.handleInput)
	s.adapters.RegisterAPIRoutes(api)

	// WebSocket routes
	s.adapters.RegisterRoutes(app)
	app.Use("/ws/events", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app
	return s, nil
}

// App returns the underlying Fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Adapters returns the adapter ingress hub
func (s *Server) Adapters() *ingress.Hub {
	return s.adapters
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	defer s.untap()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", s.opts.Port)
		s.logger.Info("listening",
			"addr", addr,
			"adapters", fmt.Sprintf("ws://localhost:%d/ws/adapter", s.opts.Port),
			"events", fmt.Sprintf("ws://localhost:%d/ws/events", s.opts.Port),
		)
		return s.app.Listen(addr)
	})

	g.Go(func() error {
		<-ctx.Done()
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	})

	return g.Wait()
}

// do runs fn on the engine loop on behalf of a request.
func (s *Server) do(c *fiber.Ctx, fn func()) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()
	return s.loop.Do(ctx, fn)
}
