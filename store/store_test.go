package store

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleRows() []GameRow {
	return []GameRow{
		{
			GameID:       "a",
			Moves:        []int32{3, 3, 2, 2, 1, 1, 0},
			Routes:       []string{"mcts", "mcts", "mcts", "mcts", "mcts", "block", "win"},
			Outcome:      OutcomeRedWin,
			Plies:        7,
			FinalBoard:   "......./......./......./......./YYY..../RRRR...",
			RedEngine:    "selector",
			YellowEngine: "selector",
			Seed:         11,
			FinishedAt:   1700000000000,
		},
		{GameID: "b", Moves: []int32{0}, Routes: []string{"win"}, Outcome: OutcomeYellowWin, Plies: 8},
		{GameID: "c", Outcome: OutcomeDraw, Plies: 42},
	}
}

func TestBatchWriter_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := NewBatchWriter(dir)
	if err != nil {
		t.Fatalf("NewBatchWriter: %v", err)
	}
	rows := sampleRows()
	if err := w.Write(rows[0]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(rows[1:]...); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(w.OutPath()); !os.IsNotExist(err) {
		t.Fatalf("batch visible before Finalize: %v", err)
	}

	path, games, err := w.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if games != 3 || path != w.OutPath() {
		t.Fatalf("Finalize=(%q, %d)", path, games)
	}
	if err := w.Write(rows[0]); err == nil {
		t.Fatalf("Write after Finalize should fail")
	}

	got, err := ReadGames(path)
	if err != nil {
		t.Fatalf("ReadGames: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d rows want 3", len(got))
	}
	first := got[0]
	if first.GameID != "a" || first.Outcome != OutcomeRedWin || first.Plies != 7 || first.Seed != 11 {
		t.Fatalf("row 0 = %+v", first)
	}
	if len(first.Moves) != 7 || first.Moves[6] != 0 || first.Routes[6] != "win" {
		t.Fatalf("moves=%v routes=%v", first.Moves, first.Routes)
	}
	if first.FinalBoard != rows[0].FinalBoard || first.FinishedAt != rows[0].FinishedAt {
		t.Fatalf("row 0 = %+v", first)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "tmp", "*"))
	if len(leftovers) != 0 {
		t.Fatalf("tmp files left behind: %v", leftovers)
	}
}

func TestBatchWriter_EmptyBatchIsDropped(t *testing.T) {
	dir := t.TempDir()
	w, err := NewBatchWriter(dir)
	if err != nil {
		t.Fatalf("NewBatchWriter: %v", err)
	}
	path, games, err := w.Finalize()
	if err != nil || path != "" || games != 0 {
		t.Fatalf("Finalize=(%q, %d, %v)", path, games, err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if len(files) != 0 {
		t.Fatalf("unexpected files %v", files)
	}
}

func TestManifest_ReopenAndSummarize(t *testing.T) {
	dir := t.TempDir()
	m, err := OpenManifest(dir)
	if err != nil {
		t.Fatalf("OpenManifest: %v", err)
	}

	rows := sampleRows()
	for _, batch := range [][]GameRow{rows[:1], rows[1:]} {
		w, err := NewBatchWriter(dir)
		if err != nil {
			t.Fatalf("NewBatchWriter: %v", err)
		}
		if err := w.Write(batch...); err != nil {
			t.Fatalf("Write: %v", err)
		}
		path, _, err := w.Finalize()
		if err != nil {
			t.Fatalf("Finalize: %v", err)
		}
		if err := m.Add(path); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := m.Add(path); err != nil {
			t.Fatalf("duplicate Add: %v", err)
		}
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A line naming a file that never got renamed into place is ignored.
	f, err := os.OpenFile(filepath.Join(dir, ManifestName), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, _ = f.WriteString(filepath.Join(dir, "missing.parquet") + "\n")
	_ = f.Close()

	m, err = OpenManifest(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m.Close()
	batches := m.Batches()
	if len(batches) != 2 {
		t.Fatalf("batches=%v want 2", batches)
	}

	s, err := Summarize(batches)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Games != 3 || s.RedWins != 1 || s.YellowWins != 1 || s.Draws != 1 {
		t.Fatalf("summary=%+v", s)
	}
	if s.AvgPlies() != 19 {
		t.Fatalf("avg plies=%v want 19", s.AvgPlies())
	}
}
