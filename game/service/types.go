package service

import (
	"time"

	"github.com/wricardo/marblerace/game/engine"
)

// RoomInfo provides information about a room
type RoomInfo struct {
	ID             string               `json:"id"`
	Geometry       string               `json:"geometry"`
	Status         engine.Status        `json:"status"`
	Capacity       int                  `json:"capacity"`
	Players        []engine.Player      `json:"players"`
	CreatedAt      time.Time            `json:"created_at"`
	LastActivityAt time.Time            `json:"last_activity_at"`
	State          *engine.RoomSnapshot `json:"state,omitempty"`
}

// ConfigInfo provides information about a board geometry
type ConfigInfo struct {
	Filename        string `json:"filename"`
	ConfigID        string `json:"config_id"` // The identifier to use when creating a room
	Name            string `json:"name"`
	Description     string `json:"description"`
	Rows            int    `json:"rows"`
	Cols            int    `json:"cols"`
	PiecesPerPlayer int    `json:"pieces_per_player"`
	Capacities      []int  `json:"capacities"`
}

// ResultPlayer is one seat in an archived game
type ResultPlayer struct {
	Name         string       `json:"name"`
	Color        engine.Color `json:"color"`
	Rank         int          `json:"rank,omitempty"`
	Completed    bool         `json:"completed"`
	Disconnected bool         `json:"disconnected,omitempty"`
}

// GameResult is the archived record of a finished game
type GameResult struct {
	ID         string         `json:"id"`
	RoomID     string         `json:"room_id"`
	Geometry   string         `json:"geometry"`
	Capacity   int            `json:"capacity"`
	Players    []ResultPlayer `json:"players"`
	Winner     string         `json:"winner"`
	Moves      int            `json:"moves"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}
