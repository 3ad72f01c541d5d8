package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// DefaultNeighborOffsets are the step directions of the staggered lattice:
// diagonal neighbors plus the two-row and two-column skip neighbors.
var DefaultNeighborOffsets = [][2]int{
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
	{-2, 0}, {2, 0}, {0, -2}, {0, 2},
}

// Geometry is a validated board configuration compiled into lookup tables.
// It is immutable once built and safe to share between rooms.
type Geometry struct {
	config       *BoardConfig
	zones        map[string]ZoneConfig
	homes        map[Color][]Position
	destinations map[Color][]Position
	common       []Position
	offsets      []Position
	kinds        [][]CellKind
	zoneAt       [][]string
}

// NewGeometry validates the configuration and compiles it
func NewGeometry(config *BoardConfig) (*Geometry, error) {
	if err := ValidateBoardConfig(config); err != nil {
		return nil, err
	}
	return compileGeometry(config), nil
}

// ValidateBoardConfig validates a board configuration for internal consistency
func ValidateBoardConfig(config *BoardConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.Rows < MinRows || config.Rows > MaxRows {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinRows, MaxRows, config.Rows)
	}
	if config.Cols < MinCols || config.Cols > MaxCols {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinCols, MaxCols, config.Cols)
	}
	if config.PiecesPerPlayer < MinPieces || config.PiecesPerPlayer > MaxPieces {
		return fmt.Errorf("config validation: pieces_per_player must be between %d and %d, got %d",
			MinPieces, MaxPieces, config.PiecesPerPlayer)
	}

	if len(config.Layout) != config.Rows {
		return fmt.Errorf("config validation: layout must have %d rows, got %d", config.Rows, len(config.Layout))
	}

	// Zones
	if len(config.Zones) < MinCapacity {
		return fmt.Errorf("config validation: at least %d zones are required, got %d", MinCapacity, len(config.Zones))
	}
	zones := make(map[string]ZoneConfig, len(config.Zones))
	colors := make(map[Color]bool, len(config.Zones))
	for i, zone := range config.Zones {
		if len(zone.Key) != 1 {
			return fmt.Errorf("config validation: zone %d key must be a single character, got %q", i+1, zone.Key)
		}
		if zone.Key[0] == InvalidMark || zone.Key[0] == CommonMark {
			return fmt.Errorf("config validation: zone %d key %q is reserved", i+1, zone.Key)
		}
		if _, dup := zones[zone.Key]; dup {
			return fmt.Errorf("config validation: duplicate zone key %q", zone.Key)
		}
		if zone.Color == NoColor {
			return fmt.Errorf("config validation: zone %q color is required", zone.Key)
		}
		if colors[zone.Color] {
			return fmt.Errorf("config validation: duplicate zone color %q", zone.Color)
		}
		zones[zone.Key] = zone
		colors[zone.Color] = true
	}
	for _, zone := range config.Zones {
		if zone.Target == zone.Key {
			return fmt.Errorf("config validation: zone %q cannot target itself", zone.Key)
		}
		if _, ok := zones[zone.Target]; !ok {
			return fmt.Errorf("config validation: zone %q targets unknown zone %q", zone.Key, zone.Target)
		}
	}

	// Layout characters and zone sizes
	counts := make(map[string]int, len(zones))
	for r, row := range config.Layout {
		if len(row) != config.Cols {
			return fmt.Errorf("config validation: row %d must have %d characters, got %d", r+1, config.Cols, len(row))
		}
		for c := 0; c < len(row); c++ {
			ch := row[c]
			if ch == InvalidMark || ch == CommonMark {
				continue
			}
			if _, ok := zones[string(ch)]; !ok {
				return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", ch, r+1, c+1)
			}
			counts[string(ch)]++
		}
	}
	for _, zone := range config.Zones {
		if counts[zone.Key] != config.PiecesPerPlayer {
			return fmt.Errorf("config validation: zone %q must have %d cells, got %d",
				zone.Key, config.PiecesPerPlayer, counts[zone.Key])
		}
	}

	// Neighbor offsets
	offsets := config.NeighborOffsets
	if len(offsets) == 0 {
		offsets = DefaultNeighborOffsets
	}
	seen := make(map[[2]int]bool, len(offsets))
	for _, off := range offsets {
		if off[0] == 0 && off[1] == 0 {
			return fmt.Errorf("config validation: neighbor offset (0,0) is not allowed")
		}
		if seen[off] {
			return fmt.Errorf("config validation: duplicate neighbor offset (%d,%d)", off[0], off[1])
		}
		seen[off] = true
	}
	for off := range seen {
		if !seen[[2]int{-off[0], -off[1]}] {
			return fmt.Errorf("config validation: neighbor offset (%d,%d) has no opposite", off[0], off[1])
		}
	}

	// Palettes
	if len(config.Palettes) == 0 {
		return fmt.Errorf("config validation: at least one palette is required")
	}
	for key, palette := range config.Palettes {
		capacity, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("config validation: palette key %q is not a number", key)
		}
		if capacity < MinCapacity || capacity > MaxCapacity || capacity > len(config.Zones) {
			return fmt.Errorf("config validation: palette capacity %d out of range", capacity)
		}
		if len(palette) != capacity {
			return fmt.Errorf("config validation: palette %d must list %d colors, got %d", capacity, capacity, len(palette))
		}
		used := make(map[Color]bool, len(palette))
		for _, color := range palette {
			if !colors[color] {
				return fmt.Errorf("config validation: palette %d uses unknown color %q", capacity, color)
			}
			if used[color] {
				return fmt.Errorf("config validation: palette %d repeats color %q", capacity, color)
			}
			used[color] = true
		}
	}

	// Every destination slot must be reachable from its zone's home slots
	geom := compileGeometry(config)
	for _, zone := range config.Zones {
		reach := geom.reachableFrom(geom.homes[zone.Color])
		for _, dest := range geom.destinations[zone.Color] {
			if !reach[dest] {
				return fmt.Errorf("config validation: destination (%d,%d) of zone %q is unreachable",
					dest.Row, dest.Col, zone.Key)
			}
		}
	}

	return nil
}

// compileGeometry builds lookup tables; the config must already be valid
func compileGeometry(config *BoardConfig) *Geometry {
	g := &Geometry{
		config:       config,
		zones:        make(map[string]ZoneConfig, len(config.Zones)),
		homes:        make(map[Color][]Position, len(config.Zones)),
		destinations: make(map[Color][]Position, len(config.Zones)),
		kinds:        make([][]CellKind, config.Rows),
		zoneAt:       make([][]string, config.Rows),
	}
	for _, zone := range config.Zones {
		g.zones[zone.Key] = zone
	}

	for r := 0; r < config.Rows; r++ {
		g.kinds[r] = make([]CellKind, config.Cols)
		g.zoneAt[r] = make([]string, config.Cols)
		for c := 0; c < config.Cols; c++ {
			g.kinds[r][c] = Invalid
			if r >= len(config.Layout) || c >= len(config.Layout[r]) {
				continue
			}
			pos := Position{Row: r, Col: c}
			switch ch := config.Layout[r][c]; ch {
			case InvalidMark:
			case CommonMark:
				g.kinds[r][c] = Common
				g.common = append(g.common, pos)
			default:
				zone, ok := g.zones[string(ch)]
				if !ok {
					continue
				}
				g.kinds[r][c] = Home
				g.zoneAt[r][c] = zone.Key
				g.homes[zone.Color] = append(g.homes[zone.Color], pos)
			}
		}
	}

	for _, zone := range config.Zones {
		if target, ok := g.zones[zone.Target]; ok {
			g.destinations[zone.Color] = g.homes[target.Color]
		}
	}

	offsets := config.NeighborOffsets
	if len(offsets) == 0 {
		offsets = DefaultNeighborOffsets
	}
	for _, off := range offsets {
		g.offsets = append(g.offsets, Position{Row: off[0], Col: off[1]})
	}

	return g
}

// reachableFrom returns every non-invalid cell connected to the start cells by single steps
func (g *Geometry) reachableFrom(start []Position) map[Position]bool {
	seen := make(map[Position]bool)
	queue := make([]Position, 0, len(start))
	for _, p := range start {
		seen[p] = true
		queue = append(queue, p)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, off := range g.offsets {
			next := cur.Add(off)
			if seen[next] || g.KindAt(next) == Invalid {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}

// Config returns the underlying board configuration
func (g *Geometry) Config() *BoardConfig {
	return g.config
}

// Name returns the geometry name
func (g *Geometry) Name() string {
	return g.config.Name
}

// Rows returns the number of grid rows
func (g *Geometry) Rows() int {
	return g.config.Rows
}

// Cols returns the number of grid columns
func (g *Geometry) Cols() int {
	return g.config.Cols
}

// PiecesPerPlayer returns how many pieces each color starts with
func (g *Geometry) PiecesPerPlayer() int {
	return g.config.PiecesPerPlayer
}

// Offsets returns the neighbor offsets of the lattice
func (g *Geometry) Offsets() []Position {
	return g.offsets
}

// KindAt returns the static kind of a position; out-of-bounds positions are Invalid
func (g *Geometry) KindAt(p Position) CellKind {
	if p.Row < 0 || p.Row >= g.config.Rows || p.Col < 0 || p.Col >= g.config.Cols {
		return Invalid
	}
	return g.kinds[p.Row][p.Col]
}

// ZoneColorAt returns the color owning the home zone at p, if any
func (g *Geometry) ZoneColorAt(p Position) (Color, bool) {
	if g.KindAt(p) != Home {
		return NoColor, false
	}
	zone := g.zones[g.zoneAt[p.Row][p.Col]]
	return zone.Color, true
}

// Homes returns the home-zone cells of a color
func (g *Geometry) Homes(color Color) []Position {
	return g.homes[color]
}

// Destinations returns the destination-zone cells of a color
func (g *Geometry) Destinations(color Color) []Position {
	return g.destinations[color]
}

// CommonCells returns the shared center cells
func (g *Geometry) CommonCells() []Position {
	return g.common
}

// Colors returns every zone color in configuration order
func (g *Geometry) Colors() []Color {
	colors := make([]Color, 0, len(g.config.Zones))
	for _, zone := range g.config.Zones {
		colors = append(colors, zone.Color)
	}
	return colors
}

// Palette returns the seat colors for a room capacity
func (g *Geometry) Palette(capacity int) ([]Color, bool) {
	palette, ok := g.config.Palettes[strconv.Itoa(capacity)]
	if !ok {
		return nil, false
	}
	out := make([]Color, len(palette))
	copy(out, palette)
	return out, true
}

// Capacities returns the supported room capacities in ascending order
func (g *Geometry) Capacities() []int {
	var caps []int
	for key := range g.config.Palettes {
		if n, err := strconv.Atoi(key); err == nil {
			caps = append(caps, n)
		}
	}
	sort.Ints(caps)
	return caps
}

// LoadBoardConfig loads and validates a board configuration from a JSON file
func LoadBoardConfig(filename string) (*BoardConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseBoardConfig(data)
}

// ParseBoardConfig decodes and validates a board configuration
func ParseBoardConfig(data []byte) (*BoardConfig, error) {
	var config BoardConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse board config: %w", err)
	}
	if err := ValidateBoardConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// StandardBoardConfig returns the built-in six-pointed star (121 holes, six zones of ten)
func StandardBoardConfig() *BoardConfig {
	return &BoardConfig{
		Name:            DefaultGeometry,
		Description:     "Classic six-pointed star with 121 holes and ten marbles per color",
		Rows:            17,
		Cols:            25,
		PiecesPerPlayer: 10,
		Layout: []string{
			"............R............",
			"...........R.R...........",
			"..........R.R.R..........",
			".........R.R.R.R.........",
			"Y.Y.Y.Y.*.*.*.*.*.G.G.G.G",
			".Y.Y.Y.*.*.*.*.*.*.G.G.G.",
			"..Y.Y.*.*.*.*.*.*.*.G.G..",
			"...Y.*.*.*.*.*.*.*.*.G...",
			"....*.*.*.*.*.*.*.*.*....",
			"...O.*.*.*.*.*.*.*.*.P...",
			"..O.O.*.*.*.*.*.*.*.P.P..",
			".O.O.O.*.*.*.*.*.*.P.P.P.",
			"O.O.O.O.*.*.*.*.*.P.P.P.P",
			".........B.B.B.B.........",
			"..........B.B.B..........",
			"...........B.B...........",
			"............B............",
		},
		Zones: []ZoneConfig{
			{Key: "R", Color: "RED", Target: "B"},
			{Key: "B", Color: "BLUE", Target: "R"},
			{Key: "Y", Color: "YELLOW", Target: "P"},
			{Key: "G", Color: "GREEN", Target: "O"},
			{Key: "O", Color: "ORANGE", Target: "G"},
			{Key: "P", Color: "PURPLE", Target: "Y"},
		},
		Palettes: map[string][]Color{
			"2": {"RED", "BLUE"},
			"3": {"RED", "PURPLE", "ORANGE"},
			"4": {"RED", "BLUE", "PURPLE", "YELLOW"},
			"6": {"RED", "GREEN", "PURPLE", "BLUE", "ORANGE", "YELLOW"},
		},
		NeighborOffsets: DefaultNeighborOffsets,
		NeutralColors: NeutralColors{
			Invalid: "WHITE",
			Filler:  "GAINSBORO",
			Common:  "WHITESMOKE",
		},
	}
}

// StandardGeometry returns the compiled built-in geometry
func StandardGeometry() *Geometry {
	return compileGeometry(StandardBoardConfig())
}
