package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rustyeddy/forexai/feed"
	"github.com/rustyeddy/forexai/market"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// WSMessage is sent by the browser to pick which symbols it wants.
type WSMessage struct {
	Type    string   `json:"type"` // "subscribe", "unsubscribe"
	Symbols []string `json:"symbols"`
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session string

	symbolsLock sync.RWMutex
	symbols     map[string]bool

	closeOnce sync.Once
	done      chan struct{}
}

// Hub tracks open streams so a session's streams can be closed when it
// ends.
type Hub struct {
	log *logrus.Entry

	mu      sync.Mutex
	clients map[*Client]bool
}

func NewHub(log *logrus.Entry) *Hub {
	return &Hub{log: log, clients: make(map[*Client]bool)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()
	h.log.WithField("clients", n).Debug("client connected")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		c.close()
		h.log.WithField("clients", n).Debug("client disconnected")
	}
}

// CloseSession ends every stream opened under a session.
func (h *Hub) CloseSession(id string) {
	h.mu.Lock()
	var gone []*Client
	for c := range h.clients {
		if c.session == id {
			gone = append(gone, c)
		}
	}
	h.mu.Unlock()
	for _, c := range gone {
		h.unregister(c)
	}
}

func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.Unlock()
	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// wants reports whether the client subscribed to symbol. A client with
// no subscriptions gets everything.
func (c *Client) wants(symbol string) bool {
	c.symbolsLock.RLock()
	defer c.symbolsLock.RUnlock()
	if len(c.symbols) == 0 || symbol == "" {
		return true
	}
	return c.symbols[symbol]
}

func (c *Client) handleMessage(msg WSMessage) {
	c.symbolsLock.Lock()
	defer c.symbolsLock.Unlock()

	switch msg.Type {
	case "subscribe":
		for _, sym := range msg.Symbols {
			in, err := market.Lookup(sym)
			if err != nil || !in.Board {
				c.hub.log.WithField("symbol", sym).Debug("rejected subscription")
				continue
			}
			c.symbols[in.Symbol] = true
		}
	case "unsubscribe":
		for _, sym := range msg.Symbols {
			if in, err := market.Lookup(sym); err == nil {
				delete(c.symbols, in.Symbol)
			}
		}
	default:
		c.hub.log.WithField("type", msg.Type).Debug("unknown message type")
	}
}

// forward copies board updates the client wants onto its send queue.
func (c *Client) forward(updates <-chan feed.Update, cancel func()) {
	defer cancel()
	for {
		select {
		case <-c.done:
			return
		case u, ok := <-updates:
			if !ok {
				c.hub.unregister(c)
				return
			}
			if !c.wants(u.Symbol) {
				continue
			}
			data, err := json.Marshal(u)
			if err != nil {
				c.hub.log.WithError(err).Warn("marshal update")
				continue
			}
			select {
			case c.send <- data:
			default:
				// too slow to keep up
				c.hub.unregister(c)
				return
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.unregister(c)
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer c.hub.unregister(c)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Debug("websocket read")
			}
			return
		}
		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.log.WithError(err).Debug("bad websocket message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts same-host requests and the configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.opts.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// serveWS streams the session's board updates.
func (s *Server) serveWS(c *gin.Context) {
	sc := currentScope(c)
	board := s.Dashboards.Get(sc.Key).Board

	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		session: sc.Key,
		symbols: make(map[string]bool),
		done:    make(chan struct{}),
	}
	updates, cancel := board.Subscribe()
	s.hub.register(client)

	go client.forward(updates, cancel)
	go client.writePump()
	go client.readPump()
}
