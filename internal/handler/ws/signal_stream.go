package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	domrepo "github.com/Shillmaster/JJcbjee/internal/domain/repository"
	xlogger "github.com/Shillmaster/JJcbjee/pkg/logger"
	"github.com/Shillmaster/JJcbjee/pkg/util"
)

const maxMessageSize = 512

// HubConfig tunes the stream.
type HubConfig struct {
	PingInterval   time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	AllowedOrigins []string
}

func (c *HubConfig) applyDefaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 32
	}
}

type client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	symbols map[string]struct{}
}

func (c *client) wants(symbol string) bool {
	if len(c.symbols) == 0 {
		return true
	}
	_, ok := c.symbols[symbol]
	return ok
}

// Hub fans signal events out to websocket subscribers. Each client has a
// bounded send queue; a client whose queue is full is dropped.
type Hub struct {
	cfg      HubConfig
	log      *xlogger.Logger
	metrics  domrepo.Metrics
	upgrader websocket.Upgrader

	mu         sync.RWMutex
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan *models.SignalEvent
	done       chan struct{}
}

var _ domrepo.SignalBroadcaster = (*Hub)(nil)

func NewHub(cfg HubConfig, log *xlogger.Logger, metrics domrepo.Metrics) *Hub {
	cfg.applyDefaults()
	if log == nil {
		log = xlogger.Nop()
	}
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	h := &Hub{
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan *models.SignalEvent, 256),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range h.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Run owns the client set until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.metrics.SetStreamClients(0)
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetStreamClients(n)

		case c := <-h.unregister:
			h.remove(c)

		case e := <-h.broadcast:
			h.fanOut(e)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetStreamClients(n)
}

func (h *Hub) fanOut(e *models.SignalEvent) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.log.Error("stream encode failed", xlogger.Error(err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if !c.wants(e.Symbol) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("dropping slow stream client", xlogger.String("symbol", e.Symbol))
		h.metrics.RecordError("stream_slow_client")
		h.remove(c)
	}
}

// Broadcast queues e for every subscribed client. It never blocks.
func (h *Hub) Broadcast(e *models.SignalEvent) {
	if e == nil {
		return
	}
	select {
	case h.broadcast <- e:
	default:
		h.metrics.RecordError("stream_broadcast_full")
	}
}

// Clients is the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/signals", h.ServeWS)
}

// ServeWS upgrades the request. ?symbol=BTC,ETH limits the stream.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	cl := &client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, h.cfg.SendBuffer),
		symbols: parseSymbols(c.QueryParam("symbol")),
	}
	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go cl.writePump()
	go cl.readPump()
	return nil
}

func parseSymbols(raw string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, s := range strings.Split(raw, ",") {
		if s = util.NormalizeSymbol(s); s != "" {
			out[s] = struct{}{}
		}
	}
	return out
}

// readPump only watches for close frames and pongs.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	pongWait := c.hub.cfg.PingInterval + c.hub.cfg.WriteWait
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	wait := c.hub.cfg.WriteWait
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
