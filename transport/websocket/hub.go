package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/marblerace/game/engine"
	"github.com/wricardo/marblerace/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Signaling payloads carry SDP.
	maxMessageSize = 64 * 1024

	sendBufferSize = 256
)

// Transport-level event types
const (
	EventConnected = "connected"
	EventNewVideo  = "new_video"
	EventOffer     = "offer"
	EventAnswer    = "answer"
	EventCandidate = "candidate"
)

// Inbound actions
const (
	ActionCreateRoom = "create_room"
	ActionJoinRoom   = "join_room"
	ActionClick      = "click"
	ActionEndTurn    = "end_turn"
	ActionReset      = "reset"
	ActionNewVideo   = "new_video"
	ActionOffer      = "offer"
	ActionAnswer     = "answer"
	ActionCandidate  = "candidate"
)

// Request is one inbound client message
type Request struct {
	Action     string          `json:"action"`
	RoomID     string          `json:"room_id,omitempty"`
	PlayerName string          `json:"player_name,omitempty"`
	Capacity   int             `json:"capacity,omitempty"`
	Geometry   string          `json:"geometry,omitempty"`
	Row        *int            `json:"row,omitempty"`
	Col        *int            `json:"col,omitempty"`
	Target     string          `json:"target,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Signal is an outbound transport event: the connection greeting and
// relayed video signaling
type Signal struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string
}

// ID returns the client's transport identity
func (c *Client) ID() string {
	return c.id
}

// outbound is a serialized message addressed to a set of connections
type outbound struct {
	to   []string
	data []byte
}

// Hub maintains the set of active clients, routes their actions to the game
// service and delivers events back to them
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex

	service  service.GameService
	upgrader websocket.Upgrader

	// Outbound messages for clients
	broadcast chan *outbound

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new WebSocket hub. An empty allowedOrigins accepts every origin.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *outbound, sendBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// SetService wires the game service that handles inbound actions
func (h *Hub) SetService(svc service.GameService) {
	h.service = svc
}

func originChecker(allowed []string) func(r *http.Request) bool {
	var origins []string
	for _, o := range allowed {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimSuffix(o, "/"))
		}
	}
	return func(r *http.Request) bool {
		if len(origins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		log.WithField("origin", origin).Warn("Rejected WebSocket origin")
		return false
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// ServeWS upgrades the request and gives the connection a fresh identity
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		id:   uuid.NewString(),
	}

	client.hub.register <- client
	h.sendSignal(client.id, Signal{Type: EventConnected, ID: client.id})

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// Send delivers a game event to the given connections
func (h *Hub) Send(connIDs []string, event engine.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("type", event.Type).Error("Failed to marshal event")
		return
	}
	h.broadcast <- &outbound{to: connIDs, data: data}
}

func (h *Hub) sendSignal(connID string, signal Signal) {
	data, err := json.Marshal(signal)
	if err != nil {
		log.WithError(err).WithField("type", signal.Type).Error("Failed to marshal signal")
		return
	}
	h.broadcast <- &outbound{to: []string{connID}, data: data}
}

func (h *Hub) sendError(connID, message string) {
	h.Send([]string{connID}, engine.ErrorEvent(connID, message))
}

// Connected reports whether a connection id is currently registered
func (h *Hub) Connected(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[connID]
	return ok
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// registerClient adds a client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	log.WithFields(log.Fields{"conn": client.id, "clients": total}).Debug("Client registered")
}

// unregisterClient removes a client and closes its send channel
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if ok && current == client {
		delete(h.clients, client.id)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		log.WithFields(log.Fields{"conn": client.id, "clients": total}).Debug("Client unregistered")
	}
}

// deliver writes a message to every addressed client that is still connected
func (h *Hub) deliver(message *outbound) {
	for _, id := range message.to {
		h.mu.RLock()
		client, ok := h.clients[id]
		h.mu.RUnlock()
		if !ok {
			continue
		}
		select {
		case client.send <- message.data:
		default:
			// Client's send channel is full, drop it
			h.unregisterClient(client)
		}
	}
}

// handle dispatches one inbound request from a client
func (h *Hub) handle(c *Client, raw []byte) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		h.sendError(c.id, engine.MsgMalformedRequest)
		return
	}

	ctx := context.Background()
	var err error

	switch req.Action {
	case ActionCreateRoom:
		_, err = h.service.CreateRoom(ctx, c.id, req.PlayerName, req.Capacity, req.Geometry)
	case ActionJoinRoom:
		err = h.service.JoinRoom(ctx, c.id, req.RoomID, req.PlayerName)
	case ActionClick:
		if req.Row == nil || req.Col == nil {
			h.sendError(c.id, engine.MsgMalformedRequest)
			return
		}
		err = h.service.Click(ctx, c.id, req.RoomID, engine.Position{Row: *req.Row, Col: *req.Col})
	case ActionEndTurn:
		err = h.service.EndTurn(ctx, c.id, req.RoomID)
	case ActionReset:
		err = h.service.Reset(ctx, c.id, req.RoomID)
	case ActionNewVideo:
		h.announceVideo(ctx, c, req.RoomID)
	case ActionOffer, ActionAnswer, ActionCandidate:
		h.relay(c, req)
	default:
		h.sendError(c.id, engine.MsgUnknownAction)
	}

	if err != nil {
		log.WithError(err).WithFields(log.Fields{"conn": c.id, "action": req.Action}).Debug("Action rejected")
	}
}

// announceVideo tells the other seats of a room that c has a video stream
func (h *Hub) announceVideo(ctx context.Context, c *Client, roomID string) {
	members, err := h.service.RoomMembers(ctx, roomID)
	if err != nil {
		h.sendError(c.id, engine.MsgRoomNotFound)
		return
	}

	var others []string
	seated := false
	for _, id := range members {
		if id == c.id {
			seated = true
			continue
		}
		others = append(others, id)
	}
	if !seated {
		h.sendError(c.id, engine.MsgNotInRoom)
		return
	}

	data, err := json.Marshal(Signal{Type: EventNewVideo, From: c.id})
	if err != nil {
		return
	}
	h.broadcast <- &outbound{to: others, data: data}
}

// relay forwards a signaling payload to a single connection
func (h *Hub) relay(c *Client, req Request) {
	if req.Target == "" || !h.Connected(req.Target) {
		h.sendError(c.id, engine.MsgUnknownConnection)
		return
	}
	h.sendSignal(req.Target, Signal{Type: req.Action, From: c.id, Payload: req.Payload})
}

// readPump pumps messages from the WebSocket connection to the game service
func (c *Client) readPump() {
	defer func() {
		if c.hub.service != nil {
			if err := c.hub.service.Disconnect(context.Background(), c.id); err != nil {
				log.WithError(err).WithField("conn", c.id).Warn("Disconnect failed")
			}
		}
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).WithField("conn", c.id).Warn("WebSocket error")
			}
			break
		}
		if c.hub.service == nil {
			c.hub.sendError(c.id, engine.MsgUnknownAction)
			continue
		}
		c.hub.handle(c, message)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
// Each event is its own text frame.
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
				// The hub closed the channel
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
