package engine

// Board is the fixed-size grid of cells for one game
type Board struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Cells [][]Cell `json:"cells"`

	offsets []Position
}

// InitBoard builds the starting board for the given colors in play.
// Home slots of active colors start occupied by their owner; home slots of
// colors not in play become empty filler cells; common cells start empty.
func InitBoard(geom *Geometry, active []Color) *Board {
	neutral := geom.Config().NeutralColors
	b := &Board{
		Rows:    geom.Rows(),
		Cols:    geom.Cols(),
		Cells:   make([][]Cell, geom.Rows()),
		offsets: geom.Offsets(),
	}
	for r := range b.Cells {
		b.Cells[r] = make([]Cell, geom.Cols())
		for c := range b.Cells[r] {
			b.Cells[r][c] = Cell{Kind: Invalid, OriginalColor: neutral.Invalid}
		}
	}

	inPlay := make(map[Color]bool, len(active))
	for _, color := range active {
		inPlay[color] = true
	}

	for _, color := range geom.Colors() {
		for _, p := range geom.Homes(color) {
			if inPlay[color] {
				b.Cells[p.Row][p.Col] = Cell{
					Kind:          Home,
					OriginalColor: color,
					Occupant:      color,
					Available:     false,
					HomeSlot:      true,
				}
			} else {
				b.Cells[p.Row][p.Col] = Cell{
					Kind:          Home,
					OriginalColor: neutral.Filler,
					Available:     true,
				}
			}
		}
	}

	for _, p := range geom.CommonCells() {
		b.Cells[p.Row][p.Col] = Cell{
			Kind:          Common,
			OriginalColor: neutral.Common,
			Available:     true,
		}
	}

	return b
}

// InBounds reports whether p lies on the grid
func (b *Board) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < b.Rows && p.Col >= 0 && p.Col < b.Cols
}

// Cell returns the cell at p, or nil when p is off the grid
func (b *Board) Cell(p Position) *Cell {
	if !b.InBounds(p) {
		return nil
	}
	return &b.Cells[p.Row][p.Col]
}

// IsOccupied reports whether a piece sits at p
func (b *Board) IsOccupied(p Position) bool {
	cell := b.Cell(p)
	return cell != nil && cell.Occupant != NoColor
}

// ColorAt returns the color of the piece at p, or NoColor
func (b *Board) ColorAt(p Position) Color {
	cell := b.Cell(p)
	if cell == nil {
		return NoColor
	}
	return cell.Occupant
}

// IsOpen reports whether a piece may land on p: on the grid, playable and empty
func (b *Board) IsOpen(p Position) bool {
	cell := b.Cell(p)
	return cell != nil && cell.Kind != Invalid && cell.Available && cell.Occupant == NoColor
}

// RestingColor is the color a cell shows when it is empty
func (b *Board) RestingColor(p Position) Color {
	cell := b.Cell(p)
	if cell == nil {
		return NoColor
	}
	return cell.OriginalColor
}

// DisplayColor is the color a cell currently shows: its occupant, or its resting color
func (b *Board) DisplayColor(p Position) Color {
	cell := b.Cell(p)
	if cell == nil {
		return NoColor
	}
	if cell.Occupant != NoColor {
		return cell.Occupant
	}
	return cell.OriginalColor
}

// PlacePiece puts a piece of the given color at p. Callers validate legality first.
func (b *Board) PlacePiece(p Position, color Color) {
	cell := &b.Cells[p.Row][p.Col]
	cell.Occupant = color
	cell.Available = false
}

// Vacate empties p, returning it to its resting color. Callers validate legality first.
func (b *Board) Vacate(p Position) {
	cell := &b.Cells[p.Row][p.Col]
	cell.Occupant = NoColor
	cell.Available = true
}

// Offsets returns the neighbor offsets used for move generation
func (b *Board) Offsets() []Position {
	return b.offsets
}

// Clone returns a deep copy of the board
func (b *Board) Clone() *Board {
	out := &Board{
		Rows:    b.Rows,
		Cols:    b.Cols,
		Cells:   make([][]Cell, len(b.Cells)),
		offsets: b.offsets,
	}
	for r := range b.Cells {
		out.Cells[r] = make([]Cell, len(b.Cells[r]))
		copy(out.Cells[r], b.Cells[r])
	}
	return out
}

// WithOffsets attaches neighbor offsets to a board decoded from JSON
func (b *Board) WithOffsets(offsets []Position) *Board {
	b.offsets = offsets
	return b
}
