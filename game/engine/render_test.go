package engine

import (
	"strings"
	"testing"
)

func TestRenderRows_Standard(t *testing.T) {
	geom := StandardGeometry()
	board := InitBoard(geom, []Color{"RED", "BLUE"})

	rows := RenderRows(board)
	if len(rows) != 17 {
		t.Fatalf("Expected 17 rows, got %d", len(rows))
	}
	if rows[0] != "            R" {
		t.Errorf("Unexpected apex row %q", rows[0])
	}
	if rows[16] != "            B" {
		t.Errorf("Unexpected bottom row %q", rows[16])
	}
	// Non-playing zones render as empty holes
	if !strings.HasPrefix(rows[4], "o o o o o") {
		t.Errorf("Unexpected row 4 %q", rows[4])
	}

	holes := 0
	for _, row := range rows {
		holes += strings.Count(row, "o") + strings.Count(row, "R") + strings.Count(row, "B")
	}
	if holes != 121 {
		t.Errorf("Expected 121 holes, got %d", holes)
	}
}

func TestRender_RowNumbers(t *testing.T) {
	board := InitBoard(compileGeometry(createTinyConfig()), []Color{"RED", "BLUE"})

	got := Render(board)
	want := " 0   R\n 1  o o\n 2   B\n"
	if got != want {
		t.Errorf("Expected\n%q\ngot\n%q", want, got)
	}
}

func TestRender_TwoDigitRows(t *testing.T) {
	board := InitBoard(StandardGeometry(), []Color{"RED", "BLUE"})

	lines := strings.Split(strings.TrimSuffix(Render(board), "\n"), "\n")
	if len(lines) != 17 {
		t.Fatalf("Expected 17 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[9], " 9 ") {
		t.Errorf("Expected padded row 9, got %q", lines[9])
	}
	if lines[16] != "16             B" {
		t.Errorf("Unexpected last line %q", lines[16])
	}
}

func TestColorMark(t *testing.T) {
	tests := []struct {
		color Color
		want  byte
	}{
		{"RED", 'R'},
		{"purple", 'P'},
		{NoColor, RenderEmpty},
	}
	for _, tt := range tests {
		if got := ColorMark(tt.color); got != tt.want {
			t.Errorf("ColorMark(%q) = %q, want %q", tt.color, got, tt.want)
		}
	}
}
