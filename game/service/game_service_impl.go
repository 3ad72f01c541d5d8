package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/wricardo/marblerace/game/engine"
)

var (
	ErrRoomClosed      = errors.New("room is closed")
	ErrAlreadyInRoom   = errors.New("connection is already in a room")
	ErrResultsDisabled = errors.New("result archive is not configured")
)

// maxIDAttempts bounds retries when a generated room id collides
const maxIDAttempts = 8

// Options configures optional service behavior
type Options struct {
	// Results archives finished games; nil disables archiving
	Results ResultStore
	// TurnTimeout ends a turn automatically once it elapses; zero disables it
	TurnTimeout time.Duration
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	rooms       RoomRegistry
	configs     ConfigManager
	publisher   Publisher
	results     ResultStore
	turnTimeout time.Duration
}

// delivery is an event resolved to its recipients
type delivery struct {
	to    []string
	event engine.Event
}

type noopPublisher struct{}

func (noopPublisher) Send([]string, engine.Event) {}

// NewGameService creates a new game service instance
func NewGameService(rooms RoomRegistry, configs ConfigManager, publisher Publisher, opts Options) GameService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &gameServiceImpl{
		rooms:       rooms,
		configs:     configs,
		publisher:   publisher,
		results:     opts.Results,
		turnTimeout: opts.TurnTimeout,
	}
}

// CreateRoom creates a room and seats the requesting connection in it
func (s *gameServiceImpl) CreateRoom(ctx context.Context, connID, playerName string, capacity int, geometry string) (*RoomInfo, error) {
	if _, bound := s.rooms.RoomOf(connID); bound {
		s.sendError(connID, engine.MsgAlreadyInRoom)
		return nil, ErrAlreadyInRoom
	}

	geom := s.configs.GetDefault()
	if geometry != "" {
		loaded, err := s.configs.LoadConfig(geometry)
		if err != nil {
			s.sendError(connID, fmt.Sprintf("Unknown geometry %q", geometry))
			return nil, fmt.Errorf("failed to load geometry %s: %w", geometry, err)
		}
		geom = loaded
	}

	var (
		room   *Room
		events []engine.Event
	)
	for attempt := 0; ; attempt++ {
		id, err := s.rooms.NewID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room id: %w", err)
		}

		game, evs, err := engine.NewRoom(id, geom, capacity, connID, playerName)
		if err != nil {
			switch {
			case errors.Is(err, engine.ErrInvalidCapacity):
				s.sendError(connID, engine.MsgInvalidCapacity)
			case errors.Is(err, engine.ErrNameRequired):
				s.sendError(connID, engine.MsgNameRequired)
			}
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		now := time.Now()
		room = &Room{ID: id, Game: game, CreatedAt: now, LastActivityAt: now}
		room.mu.Lock()
		if err := s.rooms.Add(room); err != nil {
			room.mu.Unlock()
			if attempt+1 >= maxIDAttempts {
				return nil, fmt.Errorf("failed to register room: %w", err)
			}
			continue
		}
		events = evs
		break
	}

	s.rooms.Bind(connID, room.ID)
	deliveries := s.resolve(room, events)
	info := s.roomInfo(room, true)
	room.mu.Unlock()

	log.WithFields(log.Fields{
		"room":     room.ID,
		"conn":     connID,
		"capacity": capacity,
		"geometry": geom.Name(),
	}).Info("Room created")

	s.publish(deliveries)
	return info, nil
}

// JoinRoom seats the requesting connection in an existing room
func (s *gameServiceImpl) JoinRoom(ctx context.Context, connID, roomID, playerName string) error {
	if _, bound := s.rooms.RoomOf(connID); bound {
		s.sendError(connID, engine.MsgAlreadyInRoom)
		return ErrAlreadyInRoom
	}

	return s.act(connID, roomID, func(room *Room) []engine.Event {
		events := room.Game.Join(connID, playerName)
		if room.Game.SeatOf(connID) >= 0 {
			s.rooms.Bind(connID, room.ID)
			log.WithFields(log.Fields{"room": room.ID, "conn": connID}).Info("Player joined")
		}
		return events
	})
}

// Click selects a piece or commits a move for the requesting connection
func (s *gameServiceImpl) Click(ctx context.Context, connID, roomID string, pos engine.Position) error {
	return s.act(connID, roomID, func(room *Room) []engine.Event {
		return room.Game.SelectOrMove(connID, pos)
	})
}

// EndTurn passes the turn on behalf of the requesting connection
func (s *gameServiceImpl) EndTurn(ctx context.Context, connID, roomID string) error {
	return s.act(connID, roomID, func(room *Room) []engine.Event {
		return room.Game.EndTurn(connID)
	})
}

// Reset starts the room's game over
func (s *gameServiceImpl) Reset(ctx context.Context, connID, roomID string) error {
	return s.act(connID, roomID, func(room *Room) []engine.Event {
		events := room.Game.Reset(connID)
		if len(events) > 0 && events[0].Type == engine.EventBoardReset {
			log.WithFields(log.Fields{"room": room.ID, "conn": connID}).Info("Room reset")
		}
		return events
	})
}

// Disconnect releases the connection's seat. The room is torn down once no
// seat is left to play.
func (s *gameServiceImpl) Disconnect(ctx context.Context, connID string) error {
	roomID, bound := s.rooms.RoomOf(connID)
	s.rooms.Unbind(connID)
	if !bound {
		return nil
	}

	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil
	}

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return nil
	}
	prev := room.Game.Status()
	events, teardown := room.Game.Disconnect(connID)
	room.LastActivityAt = time.Now()
	deliveries := s.resolve(room, events)
	result := s.afterAction(room, prev)
	if teardown {
		s.closeLocked(room)
	}
	room.mu.Unlock()

	fields := log.Fields{"room": roomID, "conn": connID}
	if teardown {
		log.WithFields(fields).Info("Room torn down, no seats left")
	} else {
		log.WithFields(fields).Info("Player disconnected")
	}

	s.archive(result)
	s.publish(deliveries)
	return nil
}

// GetRoom retrieves room information including the full state
func (s *gameServiceImpl) GetRoom(ctx context.Context, roomID string) (*RoomInfo, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, fmt.Errorf("room not found: %w", err)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return nil, ErrRoomClosed
	}
	return s.roomInfo(room, true), nil
}

// ListRooms returns every open room, oldest first, without board state
func (s *gameServiceImpl) ListRooms(ctx context.Context) ([]*RoomInfo, error) {
	rooms := s.rooms.List()
	result := make([]*RoomInfo, 0, len(rooms))

	for _, room := range rooms {
		room.mu.Lock()
		if !room.closed {
			result = append(result, s.roomInfo(room, false))
		}
		room.mu.Unlock()
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// CloseRoom tears a room down and tells its connected seats
func (s *gameServiceImpl) CloseRoom(ctx context.Context, roomID string) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return fmt.Errorf("room not found: %w", err)
	}

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return ErrRoomClosed
	}
	members := room.Game.Members()
	s.closeLocked(room)
	room.mu.Unlock()

	log.WithField("room", roomID).Info("Room closed")
	s.notifyClosed(members)
	return nil
}

// RoomMembers returns the connections currently seated in a room
func (s *gameServiceImpl) RoomMembers(ctx context.Context, roomID string) ([]string, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, fmt.Errorf("room not found: %w", err)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed {
		return nil, ErrRoomClosed
	}
	return room.Game.Members(), nil
}

// CleanupIdleRooms closes rooms that have seen no action for maxIdle
func (s *gameServiceImpl) CleanupIdleRooms(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	removed := 0

	for _, room := range s.rooms.List() {
		room.mu.Lock()
		if room.closed || !room.LastActivityAt.Before(cutoff) {
			room.mu.Unlock()
			continue
		}
		idle := time.Since(room.LastActivityAt)
		members := room.Game.Members()
		s.closeLocked(room)
		room.mu.Unlock()

		log.WithFields(log.Fields{"room": room.ID, "idle": idle.Round(time.Second)}).Info("Closed idle room")
		s.notifyClosed(members)
		removed++
	}

	return removed
}

// ListConfigs returns all available board geometries
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific board geometry
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.BoardConfig, error) {
	geom, err := s.configs.LoadConfig(configName)
	if err != nil {
		return nil, err
	}
	return geom.Config(), nil
}

// SaveConfig stores a board geometry
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.BoardConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ListResults returns archived games, most recent first
func (s *gameServiceImpl) ListResults(ctx context.Context) ([]*GameResult, error) {
	if s.results == nil {
		return []*GameResult{}, nil
	}

	ids, err := s.results.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	results := make([]*GameResult, 0, len(ids))
	for _, id := range ids {
		result, err := s.results.Load(id)
		if err != nil {
			log.WithError(err).WithField("result", id).Warn("Skipping unreadable result")
			continue
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].FinishedAt.After(results[j].FinishedAt)
	})
	return results, nil
}

// GetResult retrieves one archived game
func (s *gameServiceImpl) GetResult(ctx context.Context, resultID string) (*GameResult, error) {
	if s.results == nil {
		return nil, ErrResultsDisabled
	}
	return s.results.Load(resultID)
}

// act runs one action against a room under its lock, then publishes the
// resulting events once the lock is released
func (s *gameServiceImpl) act(connID, roomID string, action func(room *Room) []engine.Event) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		s.sendError(connID, engine.MsgRoomNotFound)
		return fmt.Errorf("room %s: %w", roomID, err)
	}

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		s.sendError(connID, engine.MsgRoomNotFound)
		return fmt.Errorf("room %s: %w", roomID, ErrRoomClosed)
	}
	prev := room.Game.Status()
	events := action(room)
	// only seated players keep a room alive
	if room.Game.SeatOf(connID) >= 0 {
		room.LastActivityAt = time.Now()
	}
	deliveries := s.resolve(room, events)
	result := s.afterAction(room, prev)
	room.mu.Unlock()

	s.archive(result)
	s.publish(deliveries)
	return nil
}

// afterAction keeps the turn timer in step with the game and builds the
// archive record when the game has just finished. Called with the room lock held.
func (s *gameServiceImpl) afterAction(room *Room, prev engine.Status) *GameResult {
	s.armTimer(room)

	status := room.Game.Status()
	if prev == engine.Finished || status != engine.Finished {
		return nil
	}

	snap := room.Game.Snapshot()
	log.WithFields(log.Fields{
		"room":   room.ID,
		"winner": snap.Winner,
		"moves":  snap.Moves,
	}).Info("Game finished")

	result := &GameResult{
		ID:         uuid.NewString(),
		RoomID:     room.ID,
		Geometry:   snap.Geometry,
		Capacity:   snap.Capacity,
		Players:    make([]ResultPlayer, 0, len(snap.Players)),
		Winner:     snap.Winner,
		Moves:      snap.Moves,
		StartedAt:  room.CreatedAt,
		FinishedAt: time.Now(),
	}
	for _, p := range snap.Players {
		result.Players = append(result.Players, ResultPlayer{
			Name:         p.Name,
			Color:        p.Color,
			Rank:         p.Rank,
			Completed:    p.Completed,
			Disconnected: p.Disconnected,
		})
	}
	return result
}

// armTimer starts a turn timer whenever the turn changes hands. Called with the room lock held.
func (s *gameServiceImpl) armTimer(room *Room) {
	if s.turnTimeout <= 0 {
		return
	}
	if room.closed || room.Game.Status() != engine.InProgress {
		s.stopTimer(room)
		return
	}

	turn := room.Game.Turn()
	if room.timer != nil && room.timerTurn == turn {
		return
	}
	s.stopTimer(room)
	room.timerTurn = turn
	room.timer = time.AfterFunc(s.turnTimeout, func() {
		s.expireTurn(room, turn)
	})
}

func (s *gameServiceImpl) stopTimer(room *Room) {
	if room.timer != nil {
		room.timer.Stop()
		room.timer = nil
	}
}

func (s *gameServiceImpl) expireTurn(room *Room, turn int) {
	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return
	}
	prev := room.Game.Status()
	events := room.Game.ExpireTurn(turn)
	if len(events) > 0 {
		room.LastActivityAt = time.Now()
		log.WithFields(log.Fields{"room": room.ID, "turn": turn}).Info("Turn expired")
	}
	deliveries := s.resolve(room, events)
	result := s.afterAction(room, prev)
	room.mu.Unlock()

	s.archive(result)
	s.publish(deliveries)
}

// closeLocked removes the room from the registry and releases its seats.
// Called with the room lock held.
func (s *gameServiceImpl) closeLocked(room *Room) {
	room.closed = true
	s.stopTimer(room)
	for _, connID := range room.Game.Seats() {
		if bound, ok := s.rooms.RoomOf(connID); ok && bound == room.ID {
			s.rooms.Unbind(connID)
		}
	}
	if err := s.rooms.Delete(room.ID); err != nil {
		log.WithError(err).WithField("room", room.ID).Warn("Failed to remove room")
	}
}

func (s *gameServiceImpl) notifyClosed(members []string) {
	for _, connID := range members {
		s.sendError(connID, engine.MsgRoomClosed)
	}
}

// resolve addresses room-wide events to every connected seat. Called with the room lock held.
func (s *gameServiceImpl) resolve(room *Room, events []engine.Event) []delivery {
	if len(events) == 0 {
		return nil
	}
	members := room.Game.Members()
	out := make([]delivery, 0, len(events))
	for _, e := range events {
		if e.IsPrivate() {
			out = append(out, delivery{to: []string{e.Target}, event: e})
			continue
		}
		if e.RoomID == "" {
			e.RoomID = room.ID
		}
		out = append(out, delivery{to: members, event: e})
	}
	return out
}

func (s *gameServiceImpl) publish(deliveries []delivery) {
	for _, d := range deliveries {
		if len(d.to) > 0 {
			s.publisher.Send(d.to, d.event)
		}
	}
}

func (s *gameServiceImpl) sendError(connID, message string) {
	s.publisher.Send([]string{connID}, engine.ErrorEvent(connID, message))
}

func (s *gameServiceImpl) archive(result *GameResult) {
	if result == nil || s.results == nil {
		return
	}
	if err := s.results.Save(result); err != nil {
		log.WithError(err).WithField("room", result.RoomID).Error("Failed to archive result")
		return
	}
	log.WithFields(log.Fields{"room": result.RoomID, "result": result.ID}).Debug("Result archived")
}

// roomInfo builds the public view of a room. Called with the room lock held.
func (s *gameServiceImpl) roomInfo(room *Room, withState bool) *RoomInfo {
	snap := room.Game.Snapshot()
	info := &RoomInfo{
		ID:             room.ID,
		Geometry:       snap.Geometry,
		Status:         snap.Status,
		Capacity:       snap.Capacity,
		Players:        snap.Players,
		CreatedAt:      room.CreatedAt,
		LastActivityAt: room.LastActivityAt,
	}
	if withState {
		info.State = snap
	}
	return info
}
