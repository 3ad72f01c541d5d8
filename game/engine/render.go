package engine

import (
	"strconv"
	"strings"
)

// Render characters for cells without a piece
const (
	RenderInvalid = ' '
	RenderEmpty   = 'o'
)

// ColorMark is the single-character mark for a color's pieces
func ColorMark(color Color) byte {
	if color == NoColor {
		return RenderEmpty
	}
	return strings.ToUpper(string(color))[0]
}

// RenderRows draws the board as one string per row: a blank for invalid
// cells, 'o' for an empty hole and the color's initial for a piece.
func RenderRows(b *Board) []string {
	rows := make([]string, b.Rows)
	line := make([]byte, b.Cols)
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			cell := b.Cells[r][c]
			switch {
			case cell.Kind == Invalid:
				line[c] = RenderInvalid
			case cell.Occupant != NoColor:
				line[c] = ColorMark(cell.Occupant)
			default:
				line[c] = RenderEmpty
			}
		}
		rows[r] = strings.TrimRight(string(line), " ")
	}
	return rows
}

// Render draws the board with row numbers in the margin
func Render(b *Board) string {
	var sb strings.Builder
	for r, row := range RenderRows(b) {
		if r < 10 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(r))
		sb.WriteString(" ")
		sb.WriteString(row)
		sb.WriteByte('\n')
	}
	return sb.String()
}
