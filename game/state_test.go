package game

import (
	"strings"
	"testing"
)

func TestParseBoard_RoundTripsCompact(t *testing.T) {
	in := ".......\n" +
		".......\n" +
		".......\n" +
		"...Y...\n" +
		"..RR...\n" +
		".YRYR.."

	b, err := ParseBoard(in)
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	t.Logf("board:\n%s", b)

	if got := b.At(5, 1); got != Yellow {
		t.Fatalf("At(5,1)=%v want yellow", got)
	}
	if got := b.At(4, 3); got != Red {
		t.Fatalf("At(4,3)=%v want red", got)
	}
	if got := b.At(-1, 3); got != Empty {
		t.Fatalf("off-board At=%v want empty", got)
	}

	again, err := ParseBoard(b.Compact())
	if err != nil {
		t.Fatalf("ParseBoard(Compact): %v", err)
	}
	if again != b {
		t.Fatalf("round trip mismatch:\n%s\nvs\n%s", again, b)
	}
}

func TestParseBoard_Errors(t *testing.T) {
	cases := map[string]string{
		"too few rows":  "......./.......",
		"short row":     "....../......./......./......./......./.......",
		"unknown glyph": "......./......./......./......./......./...X...",
	}
	for name, in := range cases {
		if _, err := ParseBoard(in); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestBoard_HeightCountsAndToMove(t *testing.T) {
	b, err := ParseBoard("......./......./......./...Y.../...R.../..RY...")
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	if h := b.Height(3); h != 3 {
		t.Fatalf("Height(3)=%d want 3", h)
	}
	if h := b.Height(0); h != 0 {
		t.Fatalf("Height(0)=%d want 0", h)
	}
	if b.Count(Red) != 2 || b.Count(Yellow) != 2 {
		t.Fatalf("counts red=%d yellow=%d", b.Count(Red), b.Count(Yellow))
	}
	if b.EmptyCount() != Cells-4 {
		t.Fatalf("EmptyCount=%d", b.EmptyCount())
	}
	if b.ToMove() != Red {
		t.Fatalf("ToMove=%v want red", b.ToMove())
	}
}

func TestBoard_ValidateRejectsFloatingDiscs(t *testing.T) {
	b, _ := ParseBoard("......./......./......./...R.../......./.......")
	if err := b.Validate(); err == nil {
		t.Fatalf("expected floating disc to be rejected")
	}
	var empty Board
	if err := empty.Validate(); err != nil {
		t.Fatalf("empty board: %v", err)
	}
}

func TestBoard_StringHasColumnFooter(t *testing.T) {
	var b Board
	b[5][0] = Red
	s := b.String()
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) != Rows+1 {
		t.Fatalf("lines=%d want %d", len(lines), Rows+1)
	}
	if !strings.HasPrefix(lines[Rows-1], "R ") {
		t.Fatalf("bottom row=%q", lines[Rows-1])
	}
	if lines[Rows] != "0 1 2 3 4 5 6 " {
		t.Fatalf("footer=%q", lines[Rows])
	}
}

func TestPlayer_Opponent(t *testing.T) {
	if Red.Opponent() != Yellow || Yellow.Opponent() != Red || Empty.Opponent() != Empty {
		t.Fatalf("opponent mapping broken")
	}
	if p, err := ParsePlayer("Y"); err != nil || p != Yellow {
		t.Fatalf("ParsePlayer(Y)=%v,%v", p, err)
	}
	if _, err := ParsePlayer("green"); err == nil {
		t.Fatalf("expected error for unknown side")
	}
}
