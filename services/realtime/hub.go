package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferLen  = 32
)

type client struct {
	id     string
	actor  core.Actor
	conn   *websocket.Conn
	send   chan []byte
	closed sync.Once
}

func (c *client) close() {
	c.closed.Do(func() { close(c.send) })
}

// Hub fans events out to the websocket clients of each organization.
type Hub struct {
	logger   core.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[int]map[string]*client // {organizationID: {clientID: client}}
}

var _ core.Broadcaster = (*Hub)(nil)

func NewHub(logger core.Logger, conf *core.Config) *Hub {
	origins := make(map[string]bool, len(conf.Server.CORSOrigins))
	for _, o := range conf.Server.CORSOrigins {
		origins[o] = true
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
		clients: make(map[int]map[string]*client),
	}
}

// Broadcast queues ev for every client of its organization. Slow clients are disconnected.
func (h *Hub) Broadcast(ev core.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encoding event "+ev.Name, err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, c := range h.clients[ev.OrganizationID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.unregister(c)
	}
}

// Connections returns the number of clients connected for an organization.
func (h *Hub) Connections(organizationID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[organizationID])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	org, ok := h.clients[c.actor.OrganizationID]
	if !ok {
		org = make(map[string]*client)
		h.clients[c.actor.OrganizationID] = org
	}
	org[c.id] = c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if org, ok := h.clients[c.actor.OrganizationID]; ok {
		delete(org, c.id)
		if len(org) == 0 {
			delete(h.clients, c.actor.OrganizationID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// ServeWS upgrades the request and attaches the connection to the actor's organization.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, actor core.Actor) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}
	c := &client{
		id:    uuid.NewString(),
		actor: actor,
		conn:  conn,
		send:  make(chan []byte, sendBufferLen),
	}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// readPump discards client messages; it exists to process control frames and detect closure.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read", err, c.actor)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*client
	for _, org := range h.clients {
		for _, c := range org {
			all = append(all, c)
		}
	}
	h.clients = make(map[int]map[string]*client)
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}
