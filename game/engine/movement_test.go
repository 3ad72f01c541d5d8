package engine

import (
	"math/rand"
	"testing"
)

func positionSet(list []Position) map[Position]bool {
	set := make(map[Position]bool, len(list))
	for _, p := range list {
		set[p] = true
	}
	return set
}

func assertPositions(t *testing.T, got, want []Position) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	gotSet := positionSet(got)
	for _, p := range want {
		if !gotSet[p] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}

func TestLegalDestinations_StartingCorner(t *testing.T) {
	board := InitBoard(StandardGeometry(), []Color{"RED", "BLUE"})

	got := board.LegalDestinations(Position{3, 9}, true, nil)
	assertPositions(t, got, []Position{{4, 8}, {4, 10}, {5, 9}})

	if hops := board.HopDestinations(Position{3, 9}, nil); len(hops) != 0 {
		t.Errorf("Expected no hops from the front corner, got %v", hops)
	}
}

func TestLegalDestinations_SecondRow(t *testing.T) {
	board := InitBoard(StandardGeometry(), []Color{"RED", "BLUE"})

	from := Position{2, 10}
	assertPositions(t, board.SimpleSteps(from), []Position{{4, 10}})
	assertPositions(t, board.HopDestinations(from, nil), []Position{{4, 8}, {4, 12}})
	assertPositions(t, board.LegalDestinations(from, true, nil), []Position{{4, 10}, {4, 8}, {4, 12}})
}

func TestLegalDestinations_BackPiece(t *testing.T) {
	board := InitBoard(StandardGeometry(), []Color{"RED", "BLUE"})

	// The apex piece can only leave by hopping straight down the column
	assertPositions(t, board.LegalDestinations(Position{0, 12}, true, nil), []Position{{4, 12}})
}

func TestLegalDestinations_SingleDiagonal(t *testing.T) {
	board := boardFromRows([]string{
		"R....",
		".o...",
		".....",
	})

	assertPositions(t, board.LegalDestinations(Position{0, 0}, true, nil), []Position{{1, 1}})
	if got := board.LegalDestinations(Position{0, 0}, false, nil); len(got) != 0 {
		t.Errorf("Expected no hop destinations, got %v", got)
	}
}

func TestLegalDestinations_BlockedHop(t *testing.T) {
	board := boardFromRows([]string{
		"R....",
		".B...",
		"..B..",
	})

	if got := board.LegalDestinations(Position{0, 0}, true, nil); len(got) != 0 {
		t.Errorf("Expected no destinations when the landing cell is occupied, got %v", got)
	}
}

func TestHopDestinations_Chain(t *testing.T) {
	board := boardFromRows([]string{
		"R.B.o.B.o.B.o",
	})

	assertPositions(t, board.HopDestinations(Position{0, 0}, nil), []Position{{0, 4}, {0, 8}, {0, 12}})
}

func TestHopDestinations_Exclude(t *testing.T) {
	board := boardFromRows([]string{
		"R.B.o.B.o.B.o",
	})

	exclude := map[Position]bool{{Row: 0, Col: 8}: true}
	// The chain cannot pass through an excluded cell
	assertPositions(t, board.HopDestinations(Position{0, 0}, exclude), []Position{{0, 4}})
}

func TestHopDestinations_Loop(t *testing.T) {
	// The four corners are joined to each other by hops, forming a cycle
	board := boardFromRows([]string{
		"ooBoo",
		"oBoBo",
		"BoRoB",
		"oBoBo",
		"ooBoo",
	})
	for r := range board.Cells {
		for c := range board.Cells[r] {
			if (r+c)%2 == 1 {
				board.Cells[r][c] = Cell{Kind: Invalid, OriginalColor: "WHITE"}
			}
		}
	}

	got := board.HopDestinations(Position{2, 2}, nil)
	assertPositions(t, got, []Position{{0, 0}, {0, 4}, {4, 0}, {4, 4}})
}

func TestLegalDestinations_HopOnly(t *testing.T) {
	board := InitBoard(StandardGeometry(), []Color{"RED", "BLUE"})
	board.PlacePiece(Position{4, 10}, "BLUE")
	board.PlacePiece(Position{6, 12}, "BLUE")

	from := Position{3, 9}
	assertPositions(t, board.LegalDestinations(from, true, nil),
		[]Position{{4, 8}, {5, 9}, {5, 11}, {7, 13}})

	board.Vacate(from)
	board.PlacePiece(Position{5, 11}, "RED")
	trail := map[Position]bool{from: true, {Row: 5, Col: 11}: true}

	got := board.LegalDestinations(Position{5, 11}, false, trail)
	assertPositions(t, got, []Position{{7, 13}})
}

func TestLegalDestinations_Properties(t *testing.T) {
	geom := StandardGeometry()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 25; round++ {
		colors, _ := geom.Palette(6)
		board := InitBoard(geom, colors)

		// Scatter pieces by making random legal simple steps
		for i := 0; i < 200; i++ {
			color := colors[rng.Intn(len(colors))]
			pieces := PiecesOf(board, color)
			from := pieces[rng.Intn(len(pieces))]
			steps := board.SimpleSteps(from)
			if len(steps) == 0 {
				continue
			}
			to := steps[rng.Intn(len(steps))]
			board.Vacate(from)
			board.PlacePiece(to, color)
		}

		for _, color := range colors {
			for _, from := range PiecesOf(board, color) {
				dest := board.LegalDestinations(from, true, nil)
				seen := make(map[Position]bool)
				for _, p := range dest {
					if p == from {
						t.Fatalf("round %d: destinations of %v contain the origin", round, from)
					}
					if seen[p] {
						t.Fatalf("round %d: duplicate destination %v from %v", round, p, from)
					}
					seen[p] = true
					if !board.IsOpen(p) {
						t.Fatalf("round %d: destination %v from %v is not open", round, p, from)
					}
				}

				hops := positionSet(board.HopDestinations(from, nil))
				for _, p := range board.LegalDestinations(from, false, nil) {
					if !hops[p] {
						t.Fatalf("round %d: hop-only search offered simple step %v", round, p)
					}
				}
			}
		}
	}
}

func TestIsNeighbor(t *testing.T) {
	board := InitBoard(StandardGeometry(), []Color{"RED", "BLUE"})

	from := Position{8, 12}
	for _, off := range board.Offsets() {
		if !board.IsNeighbor(from, from.Add(off)) {
			t.Errorf("Expected %v to neighbor %v", from.Add(off), from)
		}
	}
	if board.IsNeighbor(from, Position{8, 13}) {
		t.Error("(8,13) is not a lattice neighbor of (8,12)")
	}
	if board.IsNeighbor(from, from) {
		t.Error("A cell is not its own neighbor")
	}
}
