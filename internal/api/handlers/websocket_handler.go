package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/haneul-academy/portal-be/internal/auth"
	"github.com/haneul-academy/portal-be/internal/models"
	"github.com/haneul-academy/portal-be/internal/services"
	ws "github.com/haneul-academy/portal-be/internal/websocket"
)

// WebSocketHandler upgrades chat connections and bridges the hub with the
// content repository: inbound messages are persisted as chat items first,
// then fanned out to every connected client.
type WebSocketHandler struct {
	hub        *ws.Hub
	contentSvc services.ContentServiceProvider
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(hub *ws.Hub, contentSvc services.ContentServiceProvider) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, contentSvc: contentSvc}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins (consider tightening this in production).
		return true
	},
}

// Serve handles the chat WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing identity", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, ident.Username)
	h.hub.Register <- client

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(func(c *ws.Client, message []byte) {
			h.handleIncoming(ident, message)
		})
	}()

	// Cleanup on disconnect.
	go func() {
		wg.Wait()
		h.hub.Unregister <- client
	}()
}

// handleIncoming persists a chat message and broadcasts the stored item.
func (h *WebSocketHandler) handleIncoming(ident models.Identity, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Error().Err(err).Bytes("message", message).Msg("Error decoding websocket message")
		return
	}
	if msg.Action != "chat" {
		return
	}

	body, _ := msg.Payload.(string)
	if body == "" {
		return
	}

	item, err := h.contentSvc.Create(ident, models.ContentItem{Kind: models.KindChat, Body: body})
	if err != nil {
		log.Error().Err(err).Str("username", ident.Username).Msg("Failed to persist chat message")
		return
	}

	out, err := json.Marshal(ws.Message{Action: "chat", Payload: item})
	if err != nil {
		return
	}
	h.hub.Broadcast <- out
}
