package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub keeps the open connections of each identity. An identity may hold
// several connections (phone and browser) and receives every push on each.
type Hub struct {
	clients    map[*Client]bool
	identities map[uuid.UUID]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		identities: make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.identities[client.identityID] == nil {
		h.identities[client.identityID] = make(map[*Client]bool)
	}
	h.identities[client.identityID][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	delete(h.identities[client.identityID], client)
	if len(h.identities[client.identityID]) == 0 {
		delete(h.identities, client.identityID)
	}

	close(client.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.dropLocked(client)
	}
}

func (h *Hub) deliver(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range event.Recipients {
		for client := range h.identities[id] {
			select {
			case client.send <- message:
			default:
				// Slow consumer
				h.dropLocked(client)
			}
		}
	}
}

// SendTo queues an event for the given identities. Identities without an
// open connection are skipped; the alert feed covers them.
func (h *Hub) SendTo(recipients []uuid.UUID, eventType EventType, data interface{}) {
	if len(recipients) == 0 {
		return
	}

	event := Event{
		Recipients: recipients,
		Type:       eventType,
		Data:       data,
		Timestamp:  time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

// IsConnected reports whether the identity has at least one open connection
func (h *Hub) IsConnected(identityID uuid.UUID) bool {
	return h.GetConnectedClients(identityID) > 0
}

func (h *Hub) GetConnectedClients(identityID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.identities[identityID])
}

// ConnectedIdentities returns how many distinct identities are online
func (h *Hub) ConnectedIdentities() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.identities)
}
