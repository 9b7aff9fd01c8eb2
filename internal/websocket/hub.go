package websocket

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

var errHubStopped = errors.New("websocket hub stopped")

type ownerMessage struct {
	ownerID string
	client  *Client // when set, only this client of the owner receives data
	data    []byte
}

// Hub maintains the set of active clients and delivers messages to the
// clients of one owner. All map access happens on the Run goroutine.
type Hub struct {
	// Registered clients, grouped by owner id.
	owners map[string]map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	send chan ownerMessage
	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		owners:     make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		send:       make(chan ownerMessage, 64),
		done:       make(chan struct{}),
	}
}

// Run processes hub traffic until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.owners {
				for client := range clients {
					close(client.Send)
				}
			}
			h.owners = make(map[string]map[*Client]bool)
			return nil
		case client := <-h.Register:
			if h.owners[client.OwnerID] == nil {
				h.owners[client.OwnerID] = make(map[*Client]bool)
			}
			h.owners[client.OwnerID][client] = true
			log.Info().Str("user_id", client.OwnerID).Int("total_clients", h.count()).Msg("Client connected")
		case client := <-h.Unregister:
			if h.remove(client) {
				log.Info().Str("user_id", client.OwnerID).Int("total_clients", h.count()).Msg("Client disconnected")
			}
		case msg := <-h.send:
			for client := range h.owners[msg.ownerID] {
				if msg.client != nil && msg.client != client {
					continue
				}
				select {
				case client.Send <- msg.data:
				default:
					// Slow consumer: drop it rather than block everyone else.
					h.remove(client)
				}
			}
		}
	}
}

// remove forgets client and closes its send channel. It reports whether the client was registered.
func (h *Hub) remove(client *Client) bool {
	clients, ok := h.owners[client.OwnerID]
	if !ok || !clients[client] {
		return false
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.owners, client.OwnerID)
	}
	return true
}

func (h *Hub) count() int {
	n := 0
	for _, clients := range h.owners {
		n += len(clients)
	}
	return n
}

// Join registers client with the hub.
func (h *Hub) Join(client *Client) error {
	select {
	case h.Register <- client:
		return nil
	case <-h.done:
		return errHubStopped
	}
}

// Leave unregisters client. It is a no-op once the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// BroadcastTo queues data for every client of ownerID.
func (h *Hub) BroadcastTo(ctx context.Context, ownerID string, data []byte) error {
	return h.enqueue(ctx, ownerMessage{ownerID: ownerID, data: data})
}

func (h *Hub) enqueue(ctx context.Context, msg ownerMessage) error {
	select {
	case <-h.done:
		return errHubStopped
	default:
	}
	select {
	case h.send <- msg:
		return nil
	case <-h.done:
		return errHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendTo queues data for a single client.
func (h *Hub) SendTo(ctx context.Context, client *Client, data []byte) error {
	return h.enqueue(ctx, ownerMessage{ownerID: client.OwnerID, client: client, data: data})
}

// NotifyChange pushes a change message to the owner's connected clients.
func (h *Hub) NotifyChange(ctx context.Context, ownerID, action string, payload any) error {
	data, err := NewMessage(action, payload)
	if err != nil {
		return err
	}
	return h.BroadcastTo(ctx, ownerID, data)
}
