package engine

import (
	"reflect"
	"testing"
)

// boardFromRows builds a board for move tests: '.' is invalid, 'o' is an empty
// playable cell, 'R' and 'B' are playable cells holding a RED or BLUE piece.
func boardFromRows(rows []string) *Board {
	b := &Board{
		Rows:    len(rows),
		Cols:    len(rows[0]),
		Cells:   make([][]Cell, len(rows)),
		offsets: compileGeometry(createTinyConfig()).Offsets(),
	}
	for r, row := range rows {
		b.Cells[r] = make([]Cell, len(row))
		for c := 0; c < len(row); c++ {
			switch row[c] {
			case '.':
				b.Cells[r][c] = Cell{Kind: Invalid, OriginalColor: "WHITE"}
			case 'o':
				b.Cells[r][c] = Cell{Kind: Common, OriginalColor: "WHITESMOKE", Available: true}
			case 'R':
				b.Cells[r][c] = Cell{Kind: Common, OriginalColor: "WHITESMOKE", Occupant: "RED"}
			case 'B':
				b.Cells[r][c] = Cell{Kind: Common, OriginalColor: "WHITESMOKE", Occupant: "BLUE"}
			}
		}
	}
	return b
}

func TestInitBoard_Counts(t *testing.T) {
	geom := StandardGeometry()

	for _, capacity := range geom.Capacities() {
		colors, _ := geom.Palette(capacity)
		board := InitBoard(geom, colors)

		if got := CountOccupied(board, ""); got != 10*capacity {
			t.Errorf("capacity %d: expected %d pieces, got %d", capacity, 10*capacity, got)
		}
		if got := CountOccupied(board, Home); got != 10*capacity {
			t.Errorf("capacity %d: expected all pieces on home cells, got %d", capacity, got)
		}
		if got := CountCellKind(board, Common); got != 61 {
			t.Errorf("capacity %d: expected 61 common cells, got %d", capacity, got)
		}
		if got := CountCellKind(board, Home); got != 60 {
			t.Errorf("capacity %d: expected 60 home cells, got %d", capacity, got)
		}
		if got := CountCellKind(board, Invalid); got != 17*25-121 {
			t.Errorf("capacity %d: expected %d invalid cells, got %d", capacity, 17*25-121, got)
		}

		for _, p := range geom.CommonCells() {
			if !board.IsOpen(p) {
				t.Errorf("capacity %d: common cell %v should start open", capacity, p)
			}
		}
		for _, color := range colors {
			if got := len(PiecesOf(board, color)); got != 10 {
				t.Errorf("capacity %d: expected 10 %s pieces, got %d", capacity, color, got)
			}
		}
	}
}

func TestInitBoard_FillerZones(t *testing.T) {
	geom := StandardGeometry()
	board := InitBoard(geom, []Color{"RED", "BLUE"})

	for _, p := range geom.Homes("YELLOW") {
		cell := board.Cell(p)
		if cell.Kind != Home {
			t.Errorf("Expected home kind at %v, got %s", p, cell.Kind)
		}
		if cell.OriginalColor != "GAINSBORO" {
			t.Errorf("Expected filler color at %v, got %s", p, cell.OriginalColor)
		}
		if cell.HomeSlot || !cell.Available || cell.Occupant != NoColor {
			t.Errorf("Expected empty filler at %v, got %+v", p, cell)
		}
	}

	for _, p := range geom.Homes("RED") {
		cell := board.Cell(p)
		if !cell.HomeSlot || cell.Available || cell.Occupant != "RED" || cell.OriginalColor != "RED" {
			t.Errorf("Expected RED home slot at %v, got %+v", p, cell)
		}
	}

	if cell := board.Cell(Position{0, 0}); cell.Kind != Invalid || cell.OriginalColor != "WHITE" {
		t.Errorf("Expected invalid corner, got %+v", cell)
	}
}

func TestInitBoard_Deterministic(t *testing.T) {
	geom := StandardGeometry()
	colors, _ := geom.Palette(6)

	a := InitBoard(geom, colors)
	b := InitBoard(geom, colors)
	if !reflect.DeepEqual(a, b) {
		t.Error("Expected identical boards for identical inputs")
	}
}

func TestBoard_PlaceAndVacate(t *testing.T) {
	geom := StandardGeometry()
	board := InitBoard(geom, []Color{"RED", "BLUE"})

	from := Position{3, 9}
	to := Position{4, 8}

	board.Vacate(from)
	board.PlacePiece(to, "RED")

	if board.IsOccupied(from) || !board.IsOpen(from) {
		t.Errorf("Expected %v to be open after vacating", from)
	}
	if board.RestingColor(from) != "RED" {
		t.Errorf("Vacated home cell should rest at RED, got %s", board.RestingColor(from))
	}
	if board.ColorAt(to) != "RED" || board.IsOpen(to) {
		t.Errorf("Expected RED piece at %v", to)
	}
	if board.DisplayColor(to) != "RED" {
		t.Errorf("Expected RED display color at %v, got %s", to, board.DisplayColor(to))
	}
	if board.RestingColor(to) != "WHITESMOKE" {
		t.Errorf("Common cell should rest at WHITESMOKE, got %s", board.RestingColor(to))
	}
}

func TestBoard_OutOfBounds(t *testing.T) {
	board := InitBoard(StandardGeometry(), []Color{"RED", "BLUE"})

	for _, p := range []Position{{-1, 0}, {0, -1}, {17, 0}, {0, 25}} {
		if board.InBounds(p) {
			t.Errorf("Expected %v out of bounds", p)
		}
		if board.Cell(p) != nil {
			t.Errorf("Expected nil cell at %v", p)
		}
		if board.IsOpen(p) || board.IsOccupied(p) {
			t.Errorf("Out-of-bounds %v should be neither open nor occupied", p)
		}
		if board.ColorAt(p) != NoColor || board.DisplayColor(p) != NoColor {
			t.Errorf("Out-of-bounds %v should have no color", p)
		}
	}
}

func TestBoard_CloneIsDeep(t *testing.T) {
	board := InitBoard(StandardGeometry(), []Color{"RED", "BLUE"})
	clone := board.Clone()

	clone.Vacate(Position{0, 12})
	if !board.IsOccupied(Position{0, 12}) {
		t.Error("Mutating the clone changed the original")
	}
	if len(clone.Offsets()) != len(board.Offsets()) {
		t.Error("Clone should keep neighbor offsets")
	}
}

func TestZoneDistance(t *testing.T) {
	geom := StandardGeometry()
	board := InitBoard(geom, []Color{"RED", "BLUE"})

	if ZoneDistance(board, geom, "RED") == 0 {
		t.Error("Expected positive distance at the start")
	}

	for _, p := range geom.Homes("RED") {
		board.Vacate(p)
	}
	for _, p := range geom.Destinations("RED") {
		board.Vacate(p)
		board.PlacePiece(p, "RED")
	}
	if got := ZoneDistance(board, geom, "RED"); got != 0 {
		t.Errorf("Expected zero distance with every piece home, got %d", got)
	}
	if got := CountPiecesInZone(board, geom.Destinations("RED"), "RED"); got != 10 {
		t.Errorf("Expected 10 RED pieces in destination, got %d", got)
	}
}

func TestStepDistance(t *testing.T) {
	tests := []struct {
		from, to Position
		want     int
	}{
		{Position{0, 0}, Position{0, 0}, 0},
		{Position{0, 0}, Position{1, 1}, 1},
		{Position{0, 0}, Position{0, 2}, 1},
		{Position{0, 0}, Position{0, 6}, 3},
		{Position{0, 12}, Position{16, 12}, 8},
		{Position{4, 0}, Position{6, 4}, 3},
	}
	for _, tt := range tests {
		if got := StepDistance(tt.from, tt.to); got != tt.want {
			t.Errorf("StepDistance(%v, %v): expected %d, got %d", tt.from, tt.to, tt.want, got)
		}
	}
}
