package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/isdelr/incomesense-be/internal/auth"
	ws "github.com/isdelr/incomesense-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades authenticated requests to live change feeds.
type WebSocketHandler struct {
	hub      *ws.Hub
	verifier auth.Verifier
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. Origins listed in
// allowedOrigins (or "*") may connect; requests without an Origin header are
// always accepted.
func NewWebSocketHandler(hub *ws.Hub, verifier auth.Verifier, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:      hub,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// authenticate accepts the usual bearer header or, for browsers that cannot
// set headers on a websocket handshake, a token query parameter.
func (h *WebSocketHandler) authenticate(r *http.Request) (string, error) {
	if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
		return h.verifier.Verify(token)
	}
	return auth.Authenticate(h.verifier, r.Header.Get("Authorization"))
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	owner, err := h.authenticate(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, auth.RejectionMessage(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, owner)
	if err := h.hub.Join(client); err != nil {
		log.Warn().Err(err).Str("user_id", owner).Msg("Rejecting websocket client")
		conn.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(h.handleIncomingWSMessage)
	}()

	// Cleanup on disconnect.
	go func() {
		wg.Wait()
		h.hub.Leave(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
// The feed is push-only; clients may ping to check liveness.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Str("user_id", client.OwnerID).Msg("Error decoding websocket message")
		client.Reply(ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case "ping":
		if data, err := ws.NewMessage("pong", nil); err == nil {
			client.Reply(data)
		}
	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		client.Reply(ws.NewErrorMessage("Unknown action: " + msg.Action))
	}
}
