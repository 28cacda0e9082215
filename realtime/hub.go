// Package realtime keeps the process-local registry of websocket
// connections and delivers group events to them.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sendBuffer = 16

// Event is a message for a set of accounts.
type Event struct {
	Type       string          `json:"type"`
	Recipients []uuid.UUID     `json:"recipients"`
	Data       json.RawMessage `json:"data"`
}

func NewEvent(kind string, recipients []uuid.UUID, data interface{}) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: kind, Recipients: recipients, Data: raw}, nil
}

// wire is what a connected client receives.
type wire struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Client is one open connection for an account.
type Client struct {
	accountID uuid.UUID
	send      chan []byte
}

// Hub maps accounts to their open connections. It lives for the process
// and starts empty after a restart.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(accountID uuid.UUID) *Client {
	c := &Client{accountID: accountID, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[accountID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[accountID] = set
	}
	set[c] = struct{}{}
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.accountID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.accountID)
	}
}

// Connected reports whether the account has at least one open connection.
func (h *Hub) Connected(accountID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID]) > 0
}

// Deliver hands ev to every local connection of its recipients and
// returns how many took it. A connection whose buffer is full misses the
// event.
func (h *Hub) Deliver(ev Event) int {
	msg, err := json.Marshal(wire{Type: ev.Type, Data: ev.Data})
	if err != nil {
		h.log.Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, id := range ev.Recipients {
		for c := range h.clients[id] {
			select {
			case c.send <- msg:
				delivered++
			default:
				h.log.Warn("dropping event for slow client",
					zap.String("type", ev.Type),
					zap.String("account_id", id.String()))
			}
		}
	}
	return delivered
}

// Publish delivers locally. It lets the hub stand in as the publisher
// when there is no cross-instance channel.
func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.Deliver(ev)
	return nil
}

// HandleNotification decodes an event received from another instance and
// delivers it.
func (h *Hub) HandleNotification(payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		h.log.Warn("bad event payload", zap.Error(err))
		return
	}
	h.Deliver(ev)
}
