// Package websocket pushes booking events to connected students and tutors.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/anjiri1684/skill_bridge/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultWriteWait    = 10 * time.Second
	defaultClientBuffer = 16
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one connection. Once registered only the hub writes to Conn.
type Client struct {
	UserID uuid.UUID
	Conn   Conn
	send   chan events.Event
}

// Hub tracks live connections per user. A user may hold several.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event

	done       chan struct{}

	writeWait    time.Duration
	clientBuffer int

	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan events.Event, 64),
		done:       make(chan struct{}),

		writeWait:    defaultWriteWait,
		clientBuffer: defaultClientBuffer,

		clients: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Run owns the client table until ctx is done, then closes every connection.
// Each client gets its own writer goroutine so a slow peer never stalls
// delivery to the others.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					_ = c.Conn.Close()
					close(c.send)
				}
			}
			h.clients = make(map[uuid.UUID]map[*Client]struct{})
			h.mu.Unlock()
			return
		case c := <-h.register:
			c.send = make(chan events.Event, h.clientBuffer)
			go h.writePump(c, c.send)
			h.mu.Lock()
			if h.clients[c.UserID] == nil {
				h.clients[c.UserID] = make(map[*Client]struct{})
			}
			h.clients[c.UserID][c] = struct{}{}
			h.mu.Unlock()
			log.Debug().Str("user_id", c.UserID.String()).Msg("websocket client registered")
		case c := <-h.unregister:
			h.remove(c)
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	log.Debug().Str("user_id", c.UserID.String()).Msg("websocket client unregistered")
}

// deliver hands ev to each recipient's writer without blocking. A client
// whose buffer is full is disconnected.
func (h *Hub) deliver(ev events.Event) {
	var slow []*Client
	h.mu.RLock()
	seen := make(map[uuid.UUID]bool, 2)
	for _, id := range ev.Recipients() {
		if seen[id] {
			continue
		}
		seen[id] = true
		for c := range h.clients[id] {
			select {
			case c.send <- ev:
			default:
				log.Warn().Str("user_id", id.String()).Msg("websocket client too slow, disconnecting")
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()
	for _, c := range slow {
		_ = c.Conn.Close()
		h.remove(c)
	}
}

func (h *Hub) writePump(c *Client, send <-chan events.Event) {
	for ev := range send {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(h.writeWait))
		if err := c.Conn.WriteJSON(ev); err != nil {
			log.Warn().Err(err).Str("user_id", c.UserID.String()).Msg("websocket write failed")
			_ = c.Conn.Close()
			select {
			case h.unregister <- c:
			case <-h.done:
			}
			for range send {
			}
			return
		}
	}
}

func (h *Hub) Register(ctx context.Context, c *Client) {
	select {
	case h.register <- c:
	case <-ctx.Done():
	}
}

func (h *Hub) Unregister(ctx context.Context, c *Client) {
	select {
	case h.unregister <- c:
	case <-ctx.Done():
	}
}

// Publish queues ev for delivery. It never blocks the caller; when the buffer
// is full the event is dropped.
func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	select {
	case h.broadcast <- ev:
	default:
		log.Warn().Str("event", string(ev.Type)).Msg("websocket broadcast buffer full, event dropped")
	}
	return nil
}

// Connected reports how many live connections userID holds.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
