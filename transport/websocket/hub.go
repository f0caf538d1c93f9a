package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Electry/panaxeo-coding-arena-2023/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the payload pushed to spectators after every fire and
// avenger fire.
type Message struct {
	Token    string                `json:"token"`
	Response *service.FireResponse `json:"response,omitempty"`
	Event    string                `json:"event,omitempty"`
}

// Client represents one spectator connection.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	token string
}

// Hub maintains the set of spectators per token and fans broadcast
// messages out to them.
type Hub struct {
	tokens map[string]map[*Client]bool

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		tokens:     make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	clients, ok := h.tokens[client.token]
	if !ok {
		clients = make(map[*Client]bool)
		h.tokens[client.token] = clients
	}
	clients[client] = true
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.tokens[client.token]
	if !ok {
		return
	}
	if clients[client] {
		delete(clients, client)
		close(client.send)
	}
	if len(clients) == 0 {
		delete(h.tokens, client.token)
	}
}

func (h *Hub) broadcastMessage(message *Message) {
	clients, ok := h.tokens[message.Token]
	if !ok {
		return
	}
	payload, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal broadcast message")
		return
	}
	for client := range clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer, drop it.
			delete(clients, client)
			close(client.send)
		}
	}
}

// BroadcastToToken implements service.Broadcaster.
func (h *Hub) BroadcastToToken(token string, response *service.FireResponse) {
	h.broadcast <- &Message{Token: token, Response: response}
}

// ServeWS upgrades the request and attaches the spectator to a token.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, token string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		token: token,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains (and discards) inbound frames so control messages
// keep flowing; spectators never send game traffic.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump pushes queued messages and periodic pings to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
