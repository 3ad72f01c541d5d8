package engine

// CountPiecesInZone counts the cells of zone occupied by color
func CountPiecesInZone(board *Board, zone []Position, color Color) int {
	count := 0
	for _, p := range zone {
		if board.ColorAt(p) == color {
			count++
		}
	}
	return count
}

// CountCellKind counts the cells of a specific kind on the board
func CountCellKind(board *Board, kind CellKind) int {
	count := 0
	for _, row := range board.Cells {
		for _, cell := range row {
			if cell.Kind == kind {
				count++
			}
		}
	}
	return count
}

// CountOccupied counts the cells holding a piece, optionally restricted to one kind
func CountOccupied(board *Board, kind CellKind) int {
	count := 0
	for _, row := range board.Cells {
		for _, cell := range row {
			if cell.Occupant != NoColor && (kind == "" || cell.Kind == kind) {
				count++
			}
		}
	}
	return count
}

// PiecesOf returns the positions of every piece of a color, row-major
func PiecesOf(board *Board, color Color) []Position {
	var out []Position
	for r, row := range board.Cells {
		for c, cell := range row {
			if cell.Occupant == color {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// StepDistance estimates the number of single steps between two cells of the
// staggered lattice. A diagonal step covers one row and one column; a skip step
// covers two rows or two columns.
func StepDistance(from, to Position) int {
	dr := abs(from.Row - to.Row)
	dc := abs(from.Col - to.Col)
	diag := dr
	if dc < diag {
		diag = dc
	}
	return diag + (dr-diag)/2 + (dc-diag)/2
}

// ZoneDistance is the sum, over a color's pieces, of the step distance to the
// nearest still-empty (or foreign-held) destination cell. Zero means complete.
func ZoneDistance(board *Board, geom *Geometry, color Color) int {
	dest := geom.Destinations(color)
	total := 0
	for _, p := range PiecesOf(board, color) {
		if containsPosition(dest, p) {
			continue
		}
		best := -1
		for _, d := range dest {
			if board.ColorAt(d) == color {
				continue
			}
			if dist := StepDistance(p, d); best < 0 || dist < best {
				best = dist
			}
		}
		if best > 0 {
			total += best
		}
	}
	return total
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
