// Package store archives finished self-play games as zstd-compressed Parquet
// batches.
package store

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

const SchemaVersion = "connect4_game_v1"

// Outcome values, from red's point of view.
const (
	OutcomeYellowWin int32 = -1
	OutcomeDraw      int32 = 0
	OutcomeRedWin    int32 = 1
)

// GameRow is one complete game. Moves holds the column of every drop in
// order, red first. Routes[i] names how Moves[i] was chosen.
type GameRow struct {
	GameID       string   `parquet:"game_id"`
	Moves        []int32  `parquet:"moves"`
	Routes       []string `parquet:"routes"`
	Outcome      int32    `parquet:"outcome"`
	Plies        int32    `parquet:"plies"`
	FinalBoard   string   `parquet:"final_board"`
	RedEngine    string   `parquet:"red_engine,dict"`
	YellowEngine string   `parquet:"yellow_engine,dict"`
	Seed         int64    `parquet:"seed"`
	DurationMs   int64    `parquet:"duration_ms"`
	FinishedAt   int64    `parquet:"finished_at"`
}

// ReadGames loads every row of one batch file.
func ReadGames(path string) ([]GameRow, error) {
	rows, err := parquet.ReadFile[GameRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}

type Summary struct {
	Games      int
	RedWins    int
	YellowWins int
	Draws      int
	Plies      int
}

func (s Summary) AvgPlies() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Plies) / float64(s.Games)
}

func (s *Summary) Add(row GameRow) {
	s.Games++
	s.Plies += int(row.Plies)
	switch row.Outcome {
	case OutcomeRedWin:
		s.RedWins++
	case OutcomeYellowWin:
		s.YellowWins++
	default:
		s.Draws++
	}
}

// Summarize reads each batch and tallies outcomes.
func Summarize(paths []string) (Summary, error) {
	var s Summary
	for _, p := range paths {
		rows, err := ReadGames(p)
		if err != nil {
			return s, err
		}
		for _, r := range rows {
			s.Add(r)
		}
	}
	return s, nil
}
