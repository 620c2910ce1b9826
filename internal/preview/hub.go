package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/pandoc-spec/internal/logging"
)

// reloadMessage is what connected browsers receive after a successful
// rerun.
type reloadMessage struct {
	Command string `json:"command"`
}

// client is one connected browser tab.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans reload notices out to every connected browser. A central
// goroutine owns all lifecycle transitions; handlers only feed its
// channels.
type hub struct {
	logger logging.Logger

	clients   map[*websocket.Conn]*client
	clientsMu sync.RWMutex

	broadcast  chan []byte
	register   chan *client
	unregister chan *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newHub(logger logging.Logger) *hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &hub{
		logger:     logger,
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client, 16),
		unregister: make(chan *websocket.Conn, 16),
		ctx:        ctx,
		cancel:     cancel,
	}
	go h.run()
	return h
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clientsMu.Lock()
			h.clients[c.conn] = c
			total := len(h.clients)
			h.clientsMu.Unlock()
			h.logger.Debug(h.ctx, "Preview client connected", "total", total)

		case conn := <-h.unregister:
			h.clientsMu.Lock()
			c, ok := h.clients[conn]
			if ok {
				delete(h.clients, conn)
				close(c.send)
			}
			total := len(h.clients)
			h.clientsMu.Unlock()
			if ok {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				h.logger.Debug(h.ctx, "Preview client disconnected", "total", total)
			}

		case message := <-h.broadcast:
			h.clientsMu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for _, c := range h.clients {
				targets = append(targets, c)
			}
			h.clientsMu.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- message:
				default:
					// A stalled tab misses this notice; the next one will
					// reach it or its read pump will reap it.
				}
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// handleWebSocket upgrades the request and runs the client pumps until the
// browser goes away.
func (h *hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The preview binds to loopback; only local pages may connect.
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*", "[::1]:*"},
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "Preview websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}

	select {
	case h.register <- c:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump drains the connection. Browsers never send anything meaningful;
// the read exists to notice the close.
func (h *hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c.conn:
		case <-h.ctx.Done():
		}
	}()

	for {
		if _, _, err := c.conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *hub) writePump(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-h.ctx.Done():
			return
		}
	}
}

// notifyReload queues a reload notice for every connected browser.
func (h *hub) notifyReload() {
	data, err := json.Marshal(reloadMessage{Command: "reload"})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
	}
}

func (h *hub) clientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// shutdown closes every connection and stops the hub goroutine.
func (h *hub) shutdown() {
	h.once.Do(func() {
		h.cancel()

		h.clientsMu.Lock()
		for conn, c := range h.clients {
			close(c.send)
			_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		}
		h.clients = make(map[*websocket.Conn]*client)
		h.clientsMu.Unlock()
	})
}
