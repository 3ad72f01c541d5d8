package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/marblerace/game/engine"
)

// GameService defines all room-related operations
type GameService interface {
	// Room actions. Rule violations reach the acting connection as error
	// events; a returned error only reports that the action could not be routed.
	CreateRoom(ctx context.Context, connID, playerName string, capacity int, geometry string) (*RoomInfo, error)
	JoinRoom(ctx context.Context, connID, roomID, playerName string) error
	Click(ctx context.Context, connID, roomID string, pos engine.Position) error
	EndTurn(ctx context.Context, connID, roomID string) error
	Reset(ctx context.Context, connID, roomID string) error
	Disconnect(ctx context.Context, connID string) error

	// Room Management
	GetRoom(ctx context.Context, roomID string) (*RoomInfo, error)
	ListRooms(ctx context.Context) ([]*RoomInfo, error)
	CloseRoom(ctx context.Context, roomID string) error
	RoomMembers(ctx context.Context, roomID string) ([]string, error)
	CleanupIdleRooms(ctx context.Context, maxIdle time.Duration) int

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.BoardConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.BoardConfig) error

	// Results
	ListResults(ctx context.Context) ([]*GameResult, error)
	GetResult(ctx context.Context, resultID string) (*GameResult, error)
}

// RoomRegistry defines room storage and connection bindings
type RoomRegistry interface {
	NewID() (string, error)
	Add(room *Room) error
	Get(id string) (*Room, error)
	List() []*Room
	Delete(id string) error
	Bind(connID, roomID string)
	Unbind(connID string)
	RoomOf(connID string) (string, bool)
}

// ConfigManager handles board geometry loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.Geometry, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.Geometry
	SaveConfig(name string, config *engine.BoardConfig) error
}

// ResultStore archives finished games
type ResultStore interface {
	Save(result *GameResult) error
	Load(id string) (*GameResult, error)
	ListAll() ([]string, error)
	Exists(id string) bool
	Delete(id string) error
}

// Publisher delivers an event to a set of connections
type Publisher interface {
	Send(connIDs []string, event engine.Event)
}

// Room is one registered room. The embedded game is only touched while the
// room lock is held; a closed room rejects every further action.
type Room struct {
	ID             string
	Game           *engine.Room
	CreatedAt      time.Time
	LastActivityAt time.Time

	mu        sync.Mutex
	closed    bool
	timer     *time.Timer
	timerTurn int
}
