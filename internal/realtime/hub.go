package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

type Client struct {
	ID    string
	Email string
	Role  string
	Conn  *WebSocketConn
	Send  chan []byte
}

type Hub struct {
	clients    map[string]*Client
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// SendToEmail pushes an event to every connection of one user.
func (h *Hub) SendToEmail(email string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.Email == email {
			select {
			case client.Send <- payload:
			default:
				// slow consumer, skip rather than block
			}
		}
	}
}

// SendToAdmins pushes an event to every connected admin.
func (h *Hub) SendToAdmins(data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.Role == "admin" {
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
}

// BookingEvent fans a booking update out to its owner, the assigned
// decorator (if any) and the admin dashboards.
func (h *Hub) BookingEvent(ownerEmail string, decoratorEmail *string, data interface{}) {
	h.SendToEmail(ownerEmail, data)
	if decoratorEmail != nil && *decoratorEmail != "" && *decoratorEmail != ownerEmail {
		h.SendToEmail(*decoratorEmail, data)
	}
	h.SendToAdmins(data)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("Events client registered: %s (%s)", client.ID, client.Email)

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(old.Send)
				log.Printf("Events client unregistered: %s", client.ID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()
		}
	}
}
