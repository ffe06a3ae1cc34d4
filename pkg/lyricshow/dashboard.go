package lyricshow

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/helixworks/go-agents/internal/hub"
	"github.com/helixworks/go-agents/internal/log"
)

// Dashboard serves the live lyrics view: a small fiber app pushing matched
// lines to browsers over websocket.
type Dashboard struct {
	app  *fiber.App
	port string

	lyricsHub *hub.Hub

	historyMu sync.RWMutex
	history   []Update
}

// NewDashboard creates a dashboard listening on port.
func NewDashboard(port string) *Dashboard {
	d := &Dashboard{
		port:      port,
		lyricsHub: hub.New("lyrics"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Lyrics Translator",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "clients": d.lyricsHub.ClientCount()})
	})
	app.Get("/api/lines", d.handleLines)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/lyrics", websocket.New(d.handleLyricsWS))

	d.app = app
	return d
}

// Start runs the server. It blocks until Shutdown is called.
func (d *Dashboard) Start() error {
	go d.lyricsHub.Run()
	log.Info("dashboard listening", "port", d.port)
	return d.app.Listen(":" + d.port)
}

// StartAsync runs the server in a goroutine.
func (d *Dashboard) StartAsync() {
	go func() {
		if err := d.Start(); err != nil {
			log.Error("dashboard server stopped", "error", err)
		}
	}()
}

// Shutdown stops the server.
func (d *Dashboard) Shutdown() error {
	return d.app.Shutdown()
}

// Publish broadcasts a matched line to all connected clients.
func (d *Dashboard) Publish(update Update) {
	d.historyMu.Lock()
	d.history = append(d.history, update)
	d.historyMu.Unlock()

	if err := d.lyricsHub.BroadcastJSON(update); err != nil {
		log.Warn("failed to broadcast update", "error", err)
	}
}

// App exposes the fiber app for tests.
func (d *Dashboard) App() *fiber.App {
	return d.app
}

func (d *Dashboard) handleLines(c *fiber.Ctx) error {
	d.historyMu.RLock()
	lines := make([]Update, len(d.history))
	copy(lines, d.history)
	d.historyMu.RUnlock()
	return c.JSON(lines)
}

func (d *Dashboard) handleLyricsWS(c *websocket.Conn) {
	client := hub.NewClient(d.lyricsHub, c)
	client.Run()
}
