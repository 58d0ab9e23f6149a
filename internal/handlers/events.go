package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/elitedecor/backend/internal/realtime"
	"github.com/elitedecor/backend/internal/utils"
)

type EventsHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
}

func NewEventsHandler(hub *realtime.Hub, jwtSecret string) *EventsHandler {
	return &EventsHandler{Hub: hub, JWTSecret: jwtSecret}
}

// WebSocketHandler upgrades the connection to a live booking-event feed.
// Browsers cannot set headers on websocket upgrades, so the bearer
// token travels in the token query parameter instead.
func (h *EventsHandler) WebSocketHandler(c *websocket.Conn) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		log.Println("WebSocket: token parameter missing")
		c.Close()
		return
	}

	claims, err := utils.ParseJWT(h.JWTSecret, tokenStr)
	if err != nil {
		log.Println("WebSocket: invalid token:", err)
		c.Close()
		return
	}

	log.Printf("WebSocket: %s connected\n", claims.Email)

	client := &realtime.Client{
		ID:    uuid.New().String(),
		Email: claims.Email,
		Role:  claims.Role,
		Conn:  &realtime.WebSocketConn{Conn: c},
		Send:  make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: %s disconnected\n", claims.Email)
	}()

	// Send events from hub to client
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// Read messages from client (keep connection alive)
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			log.Printf("WebSocket read error for %s: %v\n", claims.Email, err)
			break
		}

		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
