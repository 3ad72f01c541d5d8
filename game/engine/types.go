package engine

// CellKind represents the role a grid cell plays on the board
type CellKind string

const (
	Invalid CellKind = "invalid"
	Home    CellKind = "home"
	Common  CellKind = "common"

	// Layout characters that are not zone keys
	InvalidMark = '.'
	CommonMark  = '*'

	// Validation constants
	MinRows         = 3
	MaxRows         = 64
	MinCols         = 3
	MaxCols         = 64
	MinCapacity     = 2
	MaxCapacity     = 6
	MinPieces       = 1
	MaxPieces       = 64
	MaxPlayerName   = 32
	DefaultGeometry = "standard"
)

// Color identifies a player's pieces. An empty Color means "no occupant".
type Color string

// NoColor is the occupant of an empty cell
const NoColor Color = ""

// Position represents row,col coordinates on the board grid
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add returns the position shifted by the given offset
func (p Position) Add(off Position) Position {
	return Position{Row: p.Row + off.Row, Col: p.Col + off.Col}
}

// Cell represents a single grid position
type Cell struct {
	Kind          CellKind `json:"kind"`
	OriginalColor Color    `json:"original_color"`
	Occupant      Color    `json:"occupant,omitempty"`
	Available     bool     `json:"available"`
	HomeSlot      bool     `json:"home_slot,omitempty"` // occupied starting position, not a filler
}

// ZoneConfig binds a layout character to a color and the zone it races to
type ZoneConfig struct {
	Key    string `json:"key"`
	Color  Color  `json:"color"`
	Target string `json:"target"` // key of the zone whose home is this color's destination
}

// NeutralColors are the resting colors of cells nobody owns
type NeutralColors struct {
	Invalid Color `json:"invalid"`
	Filler  Color `json:"filler"`
	Common  Color `json:"common"`
}

// BoardConfig represents a board geometry loaded from JSON
type BoardConfig struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Rows            int                `json:"rows"`
	Cols            int                `json:"cols"`
	PiecesPerPlayer int                `json:"pieces_per_player"`
	Layout          []string           `json:"layout"`
	Zones           []ZoneConfig       `json:"zones"`
	Palettes        map[string][]Color `json:"palettes"`
	NeighborOffsets [][2]int           `json:"neighbor_offsets,omitempty"`
	NeutralColors   NeutralColors      `json:"neutral_colors"`
}

// SeatInfo identifies the seat holding (or receiving) the turn
type SeatInfo struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
	ID    string `json:"id"`
}

// Player is one seat in a room
type Player struct {
	Name         string `json:"name"`
	Color        Color  `json:"color"`
	ConnID       string `json:"id"`
	Completed    bool   `json:"completed"`
	Disconnected bool   `json:"disconnected,omitempty"`
	Rank         int    `json:"rank,omitempty"` // 1-based finishing position, 0 if not finished
}

// Status is a room's lifecycle state
type Status string

const (
	WaitingForPlayers Status = "waiting_for_players"
	InProgress        Status = "in_progress"
	Finished          Status = "finished"
)

// RoomSnapshot is a detached, JSON-friendly copy of a room's state
type RoomSnapshot struct {
	ID            string     `json:"id"`
	Geometry      string     `json:"geometry"`
	Status        Status     `json:"status"`
	Capacity      int        `json:"capacity"`
	Players       []Player   `json:"players"`
	CurrentPlayer int        `json:"current_player"`
	Selected      *Position  `json:"selected,omitempty"`
	Pending       []Position `json:"pending,omitempty"`
	CanStepSimple bool       `json:"can_step_simple"`
	Winner        string     `json:"winner,omitempty"`
	Moves         int        `json:"moves"`
	Turn          int        `json:"turn"`
	Board         *Board     `json:"board"`
}
