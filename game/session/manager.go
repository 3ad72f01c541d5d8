package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/wricardo/marblerace/game/service"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrInvalidRoomID     = errors.New("invalid room ID")
)

const (
	// RoomIDLength is the number of characters in a generated room id
	RoomIDLength = 10
	roomIDChars  = "abcdefghijklmnopqrstABCDEFGHIJKLMNOPQRST0123456789"
)

// Manager is the room registry: live rooms by id and the room each
// connection is seated in
type Manager struct {
	rooms    map[string]*service.Room
	bindings map[string]string
	mu       sync.RWMutex
}

// NewManager creates a new room registry
func NewManager() *Manager {
	return &Manager{
		rooms:    make(map[string]*service.Room),
		bindings: make(map[string]string),
	}
}

// NewID generates a random room id that is not currently in use
func (m *Manager) NewID() (string, error) {
	for attempt := 0; attempt < 8; attempt++ {
		id, err := generateRoomID()
		if err != nil {
			return "", err
		}
		m.mu.RLock()
		_, taken := m.rooms[id]
		m.mu.RUnlock()
		if !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to find a free room id")
}

// Add registers a room under its id
func (m *Manager) Add(room *service.Room) error {
	if room == nil || room.ID == "" {
		return ErrInvalidRoomID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[room.ID]; exists {
		return ErrRoomAlreadyExists
	}
	m.rooms[room.ID] = room
	return nil
}

// Get retrieves a room by id
func (m *Manager) Get(id string) (*service.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, exists := m.rooms[id]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// List returns all registered rooms
func (m *Manager) List() []*service.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		result = append(result, room)
	}

	return result
}

// Delete removes a room and every binding that points at it
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.rooms[id]; !exists {
		return ErrRoomNotFound
	}
	delete(m.rooms, id)

	for connID, roomID := range m.bindings {
		if roomID == id {
			delete(m.bindings, connID)
		}
	}
	return nil
}

// Bind records that a connection is seated in a room
func (m *Manager) Bind(connID, roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[connID] = roomID
}

// Unbind forgets a connection's room
func (m *Manager) Unbind(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bindings, connID)
}

// RoomOf returns the room a connection is seated in
func (m *Manager) RoomOf(connID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	roomID, ok := m.bindings[connID]
	return roomID, ok
}

// Count returns the number of registered rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// generateRoomID draws RoomIDLength characters from roomIDChars
func generateRoomID() (string, error) {
	limit := big.NewInt(int64(len(roomIDChars)))
	buf := make([]byte, RoomIDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate room id: %w", err)
		}
		buf[i] = roomIDChars[n.Int64()]
	}
	return string(buf), nil
}
