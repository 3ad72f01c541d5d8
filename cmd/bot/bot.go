package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/marblerace/game/engine"
	"github.com/wricardo/marblerace/game/service"
	ws "github.com/wricardo/marblerace/transport/websocket"
)

// Config describes how a bot joins a game
type Config struct {
	URL      string // WebSocket endpoint, e.g. ws://localhost:8080/ws
	Name     string
	RoomID   string // join this room; empty creates one
	Capacity int
	Geometry string
	Think    time.Duration // pause before each turn
}

// Bot plays one game over the WebSocket protocol. It reads the board from
// the REST API on each of its turns and makes the single move that brings its
// pieces closest to their destination zone.
type Bot struct {
	cfg        Config
	apiBase    string
	httpClient *http.Client
	conn       *websocket.Conn

	id     string
	roomID string
	geom   *engine.Geometry
	joined chan string
	log    *log.Entry
}

// inbound is the union of server events and transport signals
type inbound struct {
	Type    string           `json:"type"`
	ID      string           `json:"id"`
	RoomID  string           `json:"room_id"`
	Seat    *engine.SeatInfo `json:"seat"`
	Name    string           `json:"name"`
	Names   []string         `json:"names"`
	Message string           `json:"message"`
}

// errGameOver ends the read loop normally
var errGameOver = errors.New("game over")

// NewBot validates cfg and derives the REST base URL from the WebSocket URL
func NewBot(cfg Config) (*Bot, error) {
	if cfg.Name == "" {
		return nil, errors.New("bot name is required")
	}
	apiBase, err := apiBaseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = 2
	}

	return &Bot{
		cfg:        cfg,
		apiBase:    apiBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		joined:     make(chan string, 1),
		log:        log.WithField("bot", cfg.Name),
	}, nil
}

// apiBaseURL maps ws://host/ws to http://host
func apiBaseURL(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", wsURL, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("invalid url %q: scheme must be ws or wss", wsURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/ws")
	u.RawQuery = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// Joined delivers the room id once the bot has a seat
func (b *Bot) Joined() <-chan string {
	return b.joined
}

// Run connects and plays until every seat has finished, the room closes,
// or ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", b.cfg.URL, err)
	}
	b.conn = conn
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			b.log.WithError(err).Warn("Ignoring malformed message")
			continue
		}

		if err := b.handle(ctx, msg); err != nil {
			if errors.Is(err, errGameOver) {
				return nil
			}
			return err
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg inbound) error {
	b.log.WithField("type", msg.Type).Debug("Event")

	switch msg.Type {
	case ws.EventConnected:
		b.id = msg.ID
		return b.enter()

	case string(engine.EventRoomJoined):
		b.roomID = msg.RoomID
		b.log = b.log.WithField("room", b.roomID)
		b.log.Info("Seated")
		select {
		case b.joined <- b.roomID:
		default:
		}

	case string(engine.EventPlayerList):
		b.log.WithField("players", msg.Names).Info("Players")

	case string(engine.EventGameStarted), string(engine.EventTurnAdvanced), string(engine.EventBoardReset):
		if msg.Seat != nil && msg.Seat.ID == b.id {
			return b.takeTurn(ctx)
		}

	case string(engine.EventPlayerWon):
		b.log.WithField("winner", msg.Name).Info("Player won")

	case string(engine.EventAllFinished):
		b.log.Info("All players finished")
		return errGameOver

	case string(engine.EventError):
		if b.roomID == "" || msg.Message == engine.MsgRoomClosed {
			return fmt.Errorf("server: %s", msg.Message)
		}
		b.log.WithField("message", msg.Message).Warn("Server rejected action")
	}
	return nil
}

// enter creates or joins the configured room
func (b *Bot) enter() error {
	if b.cfg.RoomID != "" {
		return b.send(ws.Request{Action: ws.ActionJoinRoom, RoomID: b.cfg.RoomID, PlayerName: b.cfg.Name})
	}
	return b.send(ws.Request{
		Action:     ws.ActionCreateRoom,
		PlayerName: b.cfg.Name,
		Capacity:   b.cfg.Capacity,
		Geometry:   b.cfg.Geometry,
	})
}

func (b *Bot) send(req ws.Request) error {
	if req.RoomID == "" && req.Action != ws.ActionCreateRoom {
		req.RoomID = b.roomID
	}
	if err := b.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write %s: %w", req.Action, err)
	}
	return nil
}

func (b *Bot) click(p engine.Position) error {
	row, col := p.Row, p.Col
	return b.send(ws.Request{Action: ws.ActionClick, Row: &row, Col: &col})
}

func (b *Bot) takeTurn(ctx context.Context) error {
	if b.cfg.Think > 0 {
		select {
		case <-time.After(b.cfg.Think):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var room service.RoomInfo
	if err := b.getJSON("/api/rooms/"+url.PathEscape(b.roomID), &room); err != nil {
		return fmt.Errorf("fetch room: %w", err)
	}
	if room.State == nil || room.State.Board == nil {
		return errors.New("room state has no board")
	}

	color := engine.NoColor
	for _, p := range room.Players {
		if p.ConnID == b.id {
			color = p.Color
		}
	}
	if color == engine.NoColor {
		return errors.New("bot is not seated in its room")
	}

	geom, err := b.geometry(room.Geometry)
	if err != nil {
		return err
	}
	board := room.State.Board.WithOffsets(geom.Offsets())

	move, ok := chooseMove(board, geom, color)
	if !ok {
		b.log.Info("No useful move, passing")
		return b.send(ws.Request{Action: ws.ActionEndTurn})
	}

	b.log.WithFields(log.Fields{
		"from":  fmt.Sprintf("%d,%d", move.From.Row, move.From.Col),
		"to":    fmt.Sprintf("%d,%d", move.To.Row, move.To.Col),
		"gain":  move.Gain,
		"left":  move.Remaining,
		"color": color,
	}).Info("Moving")

	if err := b.click(move.From); err != nil {
		return err
	}
	if err := b.click(move.To); err != nil {
		return err
	}
	// a finished seat loses the turn automatically
	if move.Remaining == 0 {
		return nil
	}
	return b.send(ws.Request{Action: ws.ActionEndTurn})
}

// geometry loads and caches the room's board geometry from the REST API
func (b *Bot) geometry(name string) (*engine.Geometry, error) {
	if b.geom != nil && b.geom.Name() == name {
		return b.geom, nil
	}

	var cfg engine.BoardConfig
	if err := b.getJSON("/api/configs/"+url.PathEscape(name), &cfg); err != nil {
		return nil, fmt.Errorf("fetch geometry %s: %w", name, err)
	}
	geom, err := engine.NewGeometry(&cfg)
	if err != nil {
		return nil, err
	}
	b.geom = geom
	return geom, nil
}

func (b *Bot) getJSON(path string, v interface{}) error {
	resp, err := b.httpClient.Get(b.apiBase + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Move is one piece moved to one destination
type Move struct {
	From, To  engine.Position
	Gain      int // reduction in zone distance
	Remaining int // zone distance after the move
}

// chooseMove returns the legal move with the largest zone distance gain.
// Moves that lose ground are never chosen; among equal gains the first piece
// in row-major order wins. ok is false when no move keeps the distance.
func chooseMove(board *engine.Board, geom *engine.Geometry, color engine.Color) (Move, bool) {
	before := engine.ZoneDistance(board, geom, color)
	best := Move{Gain: -1}
	found := false

	for _, from := range engine.PiecesOf(board, color) {
		for _, to := range board.LegalDestinations(from, true, map[engine.Position]bool{from: true}) {
			trial := board.Clone()
			trial.Vacate(from)
			trial.PlacePiece(to, color)
			after := engine.ZoneDistance(trial, geom, color)

			if gain := before - after; gain > best.Gain {
				best = Move{From: from, To: to, Gain: gain, Remaining: after}
				found = true
			}
		}
	}
	return best, found
}
